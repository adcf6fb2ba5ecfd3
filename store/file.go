package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File stores each slot as <dir>/<slot>.json. Writes go to a temp file
// that is renamed into place, so a crash never leaves a half-written save.
type File struct {
	dir  string
	slot string
}

// OpenFile creates the save directory if needed.
func OpenFile(dir, slot string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("save directory is required")
	}
	if slot == "" {
		slot = DefaultSlot
	}
	if strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." {
		return nil, fmt.Errorf("invalid slot name %q", slot)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &File{dir: filepath.Clean(dir), slot: slot}, nil
}

// Path returns the file backing the slot.
func (f *File) Path() string {
	return filepath.Join(f.dir, f.slot+".json")
}

// Load reads the slot file.
func (f *File) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return data, nil
}

// Save atomically replaces the slot file.
func (f *File) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, f.slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close save: %w", err)
	}
	if err := os.Rename(tmpName, f.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}
