package reveal

import (
	"math/rand"
	"time"
)

// Typing indicator range: [TypingDelayMin, TypingDelayMin+TypingDelaySpread).
const (
	TypingDelayMin    = 1000 * time.Millisecond
	TypingDelaySpread = 1500 * time.Millisecond
)

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every call.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// TypingDelay returns how long the "typing..." indicator shows before a
// received message appears.
func (r *RNG) TypingDelay() time.Duration {
	r.pos++
	return TypingDelayMin + time.Duration(r.src.Int63n(int64(TypingDelaySpread)))
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of RNG calls made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}
