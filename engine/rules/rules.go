package rules

import (
	"errors"
	"fmt"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// Errors returned by Evaluate when a puzzle cannot be attempted.
var (
	ErrUnknownPuzzle = errors.New("unknown puzzle")
	ErrNotOnPuzzle   = errors.New("current node is not this puzzle")
)

// Verdict is the outcome of an attempt that was allowed to run.
type Verdict struct {
	Correct bool
	Outcome *types.Outcome // OnSolve or OnFail; nil when the node has none
}

// Evaluate checks that puzzleID can be attempted from the current node and
// judges the answer. It never mutates s. The error is one of
// ErrUnknownPuzzle, ErrNotOnPuzzle or *UnmetError.
func Evaluate(c *state.Content, s *types.PlayerState, puzzleID, answer string) (Verdict, error) {
	def, ok := c.Puzzles[puzzleID]
	if !ok {
		return Verdict{}, fmt.Errorf("%w %q", ErrUnknownPuzzle, puzzleID)
	}

	node, ok := c.Node(s.CurrentNodeID)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: node %q missing", ErrNotOnPuzzle, s.CurrentNodeID)
	}
	body, ok := node.Body.(types.PuzzleNode)
	if !ok || body.PuzzleID != puzzleID {
		return Verdict{}, fmt.Errorf("%w: node %q", ErrNotOnPuzzle, node.ID)
	}

	unmet := CheckRequirements(body.RequiredState, s)
	for _, clue := range MissingClues(def, s) {
		unmet = append(unmet, Unmet{Field: "clue", Want: clue})
	}
	if len(unmet) > 0 {
		return Verdict{}, &UnmetError{PuzzleID: puzzleID, Unmet: unmet}
	}

	if MatchesSolution(answer, def.Solution) {
		return Verdict{Correct: true, Outcome: body.OnSolve}, nil
	}
	return Verdict{Correct: false, Outcome: body.OnFail}, nil
}
