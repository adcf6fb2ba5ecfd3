// Package save implements JSON serialization and validation of player state
// snapshots.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// Version is the current snapshot schema version.
const Version = 1

var (
	// ErrMalformed is returned for snapshots that do not decode or violate
	// the state shape.
	ErrMalformed = errors.New("malformed snapshot")
	// ErrVersion is returned for snapshots written by an unknown schema.
	ErrVersion = errors.New("unsupported snapshot version")
)

// Snapshot is the JSON-serializable save format.
type Snapshot struct {
	Version int               `json:"version"`
	Game    string            `json:"game"`
	SavedAt time.Time         `json:"savedAt"`
	State   types.PlayerState `json:"state"`
}

// Encode serializes s into a snapshot for the given game.
func Encode(s *types.PlayerState, c *state.Content, now time.Time) ([]byte, error) {
	snap := Snapshot{
		Version: Version,
		Game:    c.Game.Title,
		SavedAt: now.UTC(),
		State:   *s,
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Decode parses and validates a snapshot against the content. On error
// the returned snapshot is nil.
func Decode(data []byte, c *state.Content) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if snap.Version != Version {
		return nil, fmt.Errorf("%w %d", ErrVersion, snap.Version)
	}
	if err := Validate(&snap.State, c); err != nil {
		return nil, err
	}
	normalize(&snap.State)
	return &snap, nil
}

// Validate checks the structural invariants of a state.
func Validate(s *types.PlayerState, c *state.Content) error {
	if s.CurrentNodeID == "" {
		return fmt.Errorf("%w: missing current node", ErrMalformed)
	}
	if _, ok := c.Node(s.CurrentNodeID); !ok {
		return fmt.Errorf("%w: unknown current node %q", ErrMalformed, s.CurrentNodeID)
	}
	if s.ActiveView != types.ViewMonologue && s.ActiveView != types.ViewMessage {
		return fmt.Errorf("%w: unknown view %q", ErrMalformed, s.ActiveView)
	}
	if s.AlexRelationship < state.ScoreMin || s.AlexRelationship > state.ScoreMax {
		return fmt.Errorf("%w: alexRelationship %d out of range", ErrMalformed, s.AlexRelationship)
	}
	if s.SelfDoubt < state.ScoreMin || s.SelfDoubt > state.ScoreMax {
		return fmt.Errorf("%w: selfDoubt %d out of range", ErrMalformed, s.SelfDoubt)
	}
	if s.DayCount < 1 {
		return fmt.Errorf("%w: dayCount %d", ErrMalformed, s.DayCount)
	}
	return nil
}

// normalize ensures collections are never nil after load.
func normalize(s *types.PlayerState) {
	if s.VisitedNodes == nil {
		s.VisitedNodes = []string{}
	}
	if s.KnownKeywords == nil {
		s.KnownKeywords = []string{}
	}
	if s.SolvedPuzzles == nil {
		s.SolvedPuzzles = []string{}
	}
	if s.CollectedClues == nil {
		s.CollectedClues = map[string][]string{}
	}
	if s.UnreadMessages == nil {
		s.UnreadMessages = map[string]int{}
	}
	if s.ReceivedEchoes == nil {
		s.ReceivedEchoes = []types.EchoRecord{}
	}
	if s.MessageHistory == nil {
		s.MessageHistory = map[string][]types.MessageRecord{}
	}
	if s.AnomalyLog == nil {
		s.AnomalyLog = []types.AnomalyRecord{}
	}
}
