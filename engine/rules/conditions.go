// Package rules decides whether a puzzle may be attempted and whether an
// answer solves it.
package rules

import (
	"fmt"
	"strings"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// Unmet describes one failed precondition.
type Unmet struct {
	Field string // "keyword", "puzzle", "alexRelationship", "selfDoubt", "clue"
	Want  string
}

func (u Unmet) String() string {
	return fmt.Sprintf("%s %s", u.Field, u.Want)
}

// UnmetError lists every precondition that does not hold.
type UnmetError struct {
	PuzzleID string
	Unmet    []Unmet
}

func (e *UnmetError) Error() string {
	parts := make([]string, len(e.Unmet))
	for i, u := range e.Unmet {
		parts[i] = u.String()
	}
	return fmt.Sprintf("puzzle %q not attemptable: %s", e.PuzzleID, strings.Join(parts, ", "))
}

// CheckRequirements returns every requirement of req that s fails. A nil
// req is vacuously satisfied.
func CheckRequirements(req *types.Requirements, s *types.PlayerState) []Unmet {
	if req == nil {
		return nil
	}
	var unmet []Unmet
	for _, kw := range req.Keywords {
		if !state.KnowsKeyword(s, kw) {
			unmet = append(unmet, Unmet{Field: "keyword", Want: kw})
		}
	}
	for _, p := range req.SolvedPuzzles {
		if !state.IsSolved(s, p) {
			unmet = append(unmet, Unmet{Field: "puzzle", Want: p})
		}
	}
	if req.MinAlexRelationship > 0 && s.AlexRelationship < req.MinAlexRelationship {
		unmet = append(unmet, Unmet{Field: "alexRelationship", Want: fmt.Sprintf(">= %d", req.MinAlexRelationship)})
	}
	if req.MaxSelfDoubt > 0 && s.SelfDoubt > req.MaxSelfDoubt {
		unmet = append(unmet, Unmet{Field: "selfDoubt", Want: fmt.Sprintf("<= %d", req.MaxSelfDoubt)})
	}
	return unmet
}

// MissingClues returns the required clues of p not yet collected.
func MissingClues(p types.PuzzleDef, s *types.PlayerState) []string {
	var missing []string
	have := s.CollectedClues[p.ID]
	for _, clue := range p.RequiredClues {
		if !state.Contains(have, clue) {
			missing = append(missing, clue)
		}
	}
	return missing
}
