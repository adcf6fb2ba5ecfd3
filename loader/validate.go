package loader

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/nathoo/echoes/engine/effects"
	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// validate checks content for referential integrity. Warnings are returned
// even when validation fails.
func validate(c *state.Content) ([]string, error) {
	ve := &ValidationError{}

	if c.Game.Title == "" {
		ve.errorf("Game.Title is required")
	}
	if c.Game.Start == "" {
		ve.errorf("Game.Start is required")
	} else if _, ok := c.Nodes[c.Game.Start]; !ok {
		ve.errorf("start node %q not found in defined nodes", c.Game.Start)
	}
	if loc := c.Game.StartLocation; loc != "" && len(c.Environments) > 0 {
		if _, ok := c.Environments[loc]; !ok {
			ve.errorf("start location %q not found in environments", loc)
		}
	}

	for _, id := range state.SortedKeys(c.Nodes) {
		validateNode(c, c.Nodes[id], ve)
	}
	for _, id := range state.SortedKeys(c.Keywords) {
		for _, target := range c.Keywords[id].UnlockedNodes {
			if _, ok := c.Nodes[target]; !ok {
				ve.errorf("keyword %q unlocks undefined node %q", id, target)
			}
		}
	}
	for _, id := range state.SortedKeys(c.Puzzles) {
		if c.Puzzles[id].Solution == "" {
			ve.errorf("puzzle %q has no solution", id)
		}
	}
	for _, id := range state.SortedKeys(c.Anomalies) {
		if impact := c.Anomalies[id].Impact; impact < 1 || impact > 5 {
			ve.errorf("anomaly %q impact %d outside 1..5", id, impact)
		}
	}
	validateLocales(c, ve)

	for _, id := range unreachable(c) {
		ve.warnf("node %q is unreachable", id)
	}

	if len(ve.Errors) > 0 {
		return ve.Warnings, ve
	}
	return ve.Warnings, nil
}

func validateNode(c *state.Content, n types.Node, ve *ValidationError) {
	where := fmt.Sprintf("node %q", n.ID)

	if n.Body == nil {
		ve.errorf("%s has no type", where)
		return
	}
	if n.Content == "" && n.ContentKey == "" && n.Kind() != types.KindMessageChoices {
		ve.warnf("%s has no content", where)
	}
	if n.Environment != "" {
		if _, ok := c.Environments[n.Environment]; !ok {
			ve.errorf("%s environment %q is not defined", where, n.Environment)
		}
	}
	for _, a := range n.AvailableAnomalies {
		if _, ok := c.Anomalies[a]; !ok {
			ve.errorf("%s offers undefined anomaly %q", where, a)
		}
	}

	switch b := n.Body.(type) {
	case types.Monologue:
		validateChoices(c, where, b.Choices, ve)
	case types.MessageReceived:
		if b.Sender == "" {
			ve.warnf("%s has no sender", where)
		}
		validateChoices(c, where, b.Choices, ve)
	case types.MessageChoices:
		if len(b.MessageChoices) == 0 {
			ve.errorf("%s offers no replies", where)
		}
		validateChoices(c, where, b.MessageChoices, ve)
	case types.PuzzleNode:
		if _, ok := c.Puzzles[b.PuzzleID]; !ok {
			ve.errorf("%s references undefined puzzle %q", where, b.PuzzleID)
		}
		if b.OnSolve == nil {
			ve.warnf("%s has no onSolve outcome", where)
		}
		for _, o := range []*types.Outcome{b.OnSolve, b.OnFail} {
			if o == nil {
				continue
			}
			if o.NextNodeID != "" {
				validateTarget(c, where, o.NextNodeID, ve)
			}
			validateEffects(c, where, o.Effects, ve)
		}
		if r := b.RequiredState; r != nil {
			for _, k := range r.Keywords {
				if _, ok := c.Keywords[k]; !ok {
					ve.errorf("%s requires undefined keyword %q", where, k)
				}
			}
			for _, p := range r.SolvedPuzzles {
				if _, ok := c.Puzzles[p]; !ok {
					ve.errorf("%s requires undefined puzzle %q", where, p)
				}
			}
		}
	case types.KeywordInfo:
		if _, ok := c.Keywords[b.Keyword]; !ok {
			ve.errorf("%s references undefined keyword %q", where, b.Keyword)
		}
		if b.ReturnToNodeID != types.ReturnPrevious {
			validateTarget(c, where, b.ReturnToNodeID, ve)
		}
	}
}

func validateChoices(c *state.Content, where string, choices []types.Choice, ve *ValidationError) {
	for i, ch := range choices {
		cw := fmt.Sprintf("%s choice %d", where, i+1)
		if ch.Text == "" {
			ve.warnf("%s has no text", cw)
		}
		validateTarget(c, cw, ch.NextNodeID, ve)
		validateEffects(c, cw, ch.Effects, ve)
	}
}

func validateTarget(c *state.Content, where, id string, ve *ValidationError) {
	if id == "" {
		ve.errorf("%s has no next node", where)
		return
	}
	if _, ok := c.Nodes[id]; !ok {
		ve.errorf("%s points to undefined node %q", where, id)
	}
}

// validateEffects checks table references. Unknown keys are ignored at
// runtime, so they only warn.
func validateEffects(c *state.Content, where string, effs types.Effects, ve *ValidationError) {
	for _, e := range effs {
		id, _ := e.Value.(string)
		switch e.Key {
		case effects.KeySelfDoubt, effects.KeyAlexRelationship, effects.KeyDayCount:
			if _, ok := e.Value.(int); !ok {
				ve.errorf("%s effect %s needs an integer, got %v", where, e.Key, e.Value)
			}
		case effects.KeyReceivedEchoes:
			if _, ok := c.Echoes[id]; !ok {
				ve.errorf("%s effect receivedEchoes references undefined echo %q", where, id)
			}
		case effects.KeyAnomalyLog:
			if _, ok := c.Anomalies[id]; !ok {
				ve.errorf("%s effect anomalyLog references undefined anomaly %q", where, id)
			}
		case effects.KeyKnownKeywords:
			if _, ok := c.Keywords[id]; !ok {
				ve.warnf("%s effect knownKeywords adds undefined keyword %q", where, id)
			}
		case effects.KeyCollectedClues:
			puzzle, _, ok := strings.Cut(id, ":")
			if !ok {
				ve.errorf("%s effect collectedClues value %q is not puzzle:clue", where, id)
			} else if _, ok := c.Puzzles[puzzle]; !ok {
				ve.errorf("%s effect collectedClues references undefined puzzle %q", where, puzzle)
			}
		case effects.KeyWorldTime:
		default:
			ve.warnf("%s has unknown effect key %q", where, e.Key)
		}
	}
}

func validateLocales(c *state.Content, ve *ValidationError) {
	for _, tag := range state.SortedKeys(c.Locales) {
		if _, err := language.Parse(tag); err != nil {
			ve.errorf("locale %q is not a valid language tag", tag)
		}
	}
	def := c.Game.DefaultLocale
	if def != "" && len(c.Locales) > 0 {
		if _, ok := c.Locales[def]; !ok {
			ve.errorf("default locale %q has no table", def)
		}
	}
	table := c.Locales[def]
	for _, id := range state.SortedKeys(c.Nodes) {
		n := c.Nodes[id]
		if n.Content != "" || n.ContentKey == "" {
			continue
		}
		if _, ok := table[n.ContentKey]; !ok {
			ve.warnf("node %q content key %q missing from locale %q", id, n.ContentKey, def)
		}
	}
}

// unreachable returns nodes that cannot be reached from the start node or
// a keyword unlock, in sorted order.
func unreachable(c *state.Content) []string {
	seen := map[string]bool{}
	var queue []string
	push := func(id string) {
		if _, ok := c.Nodes[id]; ok && !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}
	push(c.Game.Start)
	for _, k := range c.Keywords {
		for _, id := range k.UnlockedNodes {
			push(id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range successors(c.Nodes[id]) {
			push(next)
		}
	}

	var out []string
	for id := range c.Nodes {
		if !seen[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func successors(n types.Node) []string {
	var out []string
	addChoices := func(cs []types.Choice) {
		for _, ch := range cs {
			out = append(out, ch.NextNodeID)
		}
	}
	switch b := n.Body.(type) {
	case types.Monologue:
		addChoices(b.Choices)
	case types.MessageReceived:
		addChoices(b.Choices)
	case types.MessageChoices:
		addChoices(b.MessageChoices)
	case types.PuzzleNode:
		for _, o := range []*types.Outcome{b.OnSolve, b.OnFail} {
			if o != nil {
				out = append(out, o.NextNodeID)
			}
		}
	case types.KeywordInfo:
		if b.ReturnToNodeID != types.ReturnPrevious {
			out = append(out, b.ReturnToNodeID)
		}
	}
	return out
}
