// Package effects implements centralized state mutation via the Apply function.
// Each effect key is one atomic operation; unknown keys are ignored so older
// engines can run newer content.
package effects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/types"
)

// Recognised effect keys.
const (
	KeySelfDoubt        = "selfDoubt"
	KeyAlexRelationship = "alexRelationship"
	KeyReceivedEchoes   = "receivedEchoes"
	KeyKnownKeywords    = "knownKeywords"
	KeyWorldTime        = "worldTime"
	KeyDayCount         = "dayCount"
	KeyCollectedClues   = "collectedClues"
	KeyAnomalyLog       = "anomalyLog"
)

// Errors reported for effects whose value references missing content.
var (
	ErrUnknownEcho    = errors.New("unknown echo message")
	ErrUnknownAnomaly = errors.New("unknown anomaly")
	ErrBadValue       = errors.New("bad effect value")
)

// DeliveryKind distinguishes follow-up actions the engine must perform.
type DeliveryKind int

const (
	DeliverEcho DeliveryKind = iota + 1
	DeliverAnomaly
)

// Delivery is a side effect that needs the engine (timestamps, persistence,
// events) rather than a plain field update.
type Delivery struct {
	Kind    DeliveryKind
	ID      string
	Sender  string // DeliverEcho only
	Content string // DeliverEcho only
}

// Apply applies effects to s in authored order. It returns the deliveries
// the engine must carry out, in order, and one error per effect that could
// not be resolved. Unresolvable effects are skipped; the rest still apply.
func Apply(s *types.PlayerState, c *state.Content, effs types.Effects) ([]Delivery, []error) {
	var deliveries []Delivery
	var problems []error

	for _, eff := range effs {
		switch eff.Key {
		case KeySelfDoubt:
			s.SelfDoubt = state.Clamp(s.SelfDoubt + toInt(eff.Value))

		case KeyAlexRelationship:
			s.AlexRelationship = state.Clamp(s.AlexRelationship + toInt(eff.Value))

		case KeyReceivedEchoes:
			id := toString(eff.Value)
			echo, ok := c.Echoes[id]
			if !ok {
				problems = append(problems, fmt.Errorf("%w %q", ErrUnknownEcho, id))
				continue
			}
			deliveries = append(deliveries, Delivery{
				Kind:    DeliverEcho,
				ID:      id,
				Sender:  echo.Sender,
				Content: echo.Content,
			})

		case KeyKnownKeywords:
			s.KnownKeywords, _ = state.AddUnique(s.KnownKeywords, toString(eff.Value))

		case KeyWorldTime:
			if t := toString(eff.Value); t != "" {
				s.WorldTime = t
			}

		case KeyDayCount:
			s.DayCount += toInt(eff.Value)
			if s.DayCount < 1 {
				s.DayCount = 1
			}

		case KeyCollectedClues:
			puzzleID, clueID, ok := splitClue(toString(eff.Value))
			if !ok {
				problems = append(problems, fmt.Errorf("%w: clue %q, want puzzle:clue", ErrBadValue, toString(eff.Value)))
				continue
			}
			if s.CollectedClues == nil {
				s.CollectedClues = map[string][]string{}
			}
			s.CollectedClues[puzzleID], _ = state.AddUnique(s.CollectedClues[puzzleID], clueID)

		case KeyAnomalyLog:
			id := toString(eff.Value)
			if _, ok := c.Anomalies[id]; !ok {
				problems = append(problems, fmt.Errorf("%w %q", ErrUnknownAnomaly, id))
				continue
			}
			deliveries = append(deliveries, Delivery{Kind: DeliverAnomaly, ID: id})

		default:
			// Unknown effect key: ignored.
		}
	}

	return deliveries, problems
}

// splitClue parses "puzzleId:clueId".
func splitClue(v string) (string, string, bool) {
	puzzleID, clueID, ok := strings.Cut(v, ":")
	if !ok || puzzleID == "" || clueID == "" {
		return "", "", false
	}
	return puzzleID, clueID, true
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
