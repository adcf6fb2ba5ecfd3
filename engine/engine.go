// Package engine provides the narrative controller that wires together
// content, player state, effects, puzzle rules, persistence and events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/echoes/engine/dialogue"
	"github.com/nathoo/echoes/engine/effects"
	"github.com/nathoo/echoes/engine/events"
	"github.com/nathoo/echoes/engine/rules"
	"github.com/nathoo/echoes/engine/save"
	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/store"
	"github.com/nathoo/echoes/types"
)

// Failures logged by engine operations. The public API reports them as a
// false return; LastError exposes the most recent one.
var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrKeywordNotFound = errors.New("keyword not found")
	ErrPuzzleNotFound  = errors.New("puzzle not found")
	ErrEchoNotFound    = errors.New("echo message not found")
	ErrAnomalyNotFound = errors.New("anomaly not found")
	ErrContextMismatch = errors.New("operation not valid at current node")
	ErrNoStore         = errors.New("no save backend configured")
)

// Store persists encoded snapshots.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStore sets the persistence backend. Without one, saves are no-ops.
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs replaces the record id generator.
func WithIDs(next func() string) Option {
	return func(e *Engine) { e.newID = next }
}

// Engine holds the content and the mutable player state. It is not safe
// for concurrent use.
type Engine struct {
	content *state.Content
	state   *types.PlayerState
	bus     *events.Bus
	store   Store
	log     *slog.Logger
	now     func() time.Time
	newID   func() string
	lastErr error
}

// New creates an engine over c with a fresh default state. Nothing is
// persisted until the first mutation.
func New(c *state.Content, opts ...Option) *Engine {
	e := &Engine{
		content: c,
		state:   state.Default(c),
		bus:     events.NewBus(),
		log:     slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Content returns the immutable content store.
func (e *Engine) Content() *state.Content {
	return e.content
}

// State returns a deep copy of the player state.
func (e *Engine) State() types.PlayerState {
	return *state.Clone(e.state)
}

// Store returns the persistence backend, or nil.
func (e *Engine) Store() Store {
	return e.store
}

// LastError returns the failure behind the most recent false return, or nil.
func (e *Engine) LastError() error {
	return e.lastErr
}

// Subscribe registers a handler for an event kind.
func (e *Engine) Subscribe(kind events.Kind, fn events.Handler) (events.SubscriptionID, bool) {
	return e.bus.Subscribe(kind, fn)
}

// Unsubscribe removes a handler.
func (e *Engine) Unsubscribe(kind events.Kind, id events.SubscriptionID) bool {
	return e.bus.Unsubscribe(kind, id)
}

// ResetState replaces the state with a copy of the default template and
// persists it. No event is emitted.
func (e *Engine) ResetState() {
	e.state = state.Default(e.content)
	e.lastErr = nil
	e.SaveState()
}

// LoadState restores the persisted snapshot. On any failure the current
// state is left untouched and false is returned.
func (e *Engine) LoadState() bool {
	if e.store == nil {
		e.lastErr = ErrNoStore
		return false
	}
	data, err := e.store.Load(context.Background())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.log.Debug("no saved game")
		} else {
			e.log.Error("failed to load game state", "error", err)
		}
		e.lastErr = err
		return false
	}
	snap, err := save.Decode(data, e.content)
	if err != nil {
		e.log.Error("failed to load game state", "error", err)
		e.lastErr = err
		return false
	}
	e.state = &snap.State
	e.lastErr = nil
	return true
}

// SaveState persists the current state. Failures are logged, never returned.
func (e *Engine) SaveState() {
	if e.store == nil {
		return
	}
	data, err := save.Encode(e.state, e.content, e.now())
	if err != nil {
		e.log.Error("failed to encode game state", "error", err)
		return
	}
	if err := e.store.Save(context.Background(), data); err != nil {
		e.log.Error("failed to save game state", "error", err)
	}
}

// CurrentNode returns the node the player is on.
func (e *Engine) CurrentNode() (types.Node, bool) {
	return e.content.Node(e.state.CurrentNodeID)
}

// GoToNode moves the player to id. The node being left is recorded as
// visited, the node's environment becomes the current location and the
// view follows the node kind.
func (e *Engine) GoToNode(id string) bool {
	node, ok := e.content.Node(id)
	if !ok {
		return e.fail(fmt.Errorf("%w: %q", ErrNodeNotFound, id), "node", id)
	}

	if leaving := e.state.CurrentNodeID; leaving != "" {
		e.state.VisitedNodes, _ = state.AddUnique(e.state.VisitedNodes, leaving)
		e.state.PreviousNodeID = leaving
	}
	e.state.CurrentNodeID = id

	if node.Environment != "" {
		e.state.CurrentLocation = node.Environment
	}

	switch node.Body.(type) {
	case types.MessageReceived, types.MessageChoices:
		e.SetActiveView(types.ViewMessage)
	case types.Monologue:
		e.SetActiveView(types.ViewMonologue)
	case types.PuzzleNode, types.KeywordInfo:
		// View unchanged.
	}

	e.lastErr = nil
	e.SaveState()
	e.bus.Publish(events.NodeChanged{NodeID: id})
	return true
}

// SetActiveView switches the view, emitting ViewChanged only on change.
func (e *Engine) SetActiveView(view types.View) {
	if e.state.ActiveView == view {
		return
	}
	e.state.ActiveView = view
	e.bus.Publish(events.ViewChanged{View: view})
}

// MakeChoice applies the choice's effects and then navigates to its next
// node. On a message-choices node the chosen text is recorded as the
// player's reply, but only when the next node exists.
func (e *Engine) MakeChoice(choice types.Choice) bool {
	if len(choice.Effects) > 0 {
		e.ApplyEffects(choice.Effects)
	}
	if _, ok := e.content.Node(choice.NextNodeID); !ok {
		return e.fail(ErrNodeNotFound, "node", choice.NextNodeID)
	}
	if node, ok := e.CurrentNode(); ok {
		if body, ok := node.Body.(types.MessageChoices); ok && body.Sender != "" {
			dialogue.Append(e.state, body.Sender, types.MessageRecord{
				ID:         e.newID(),
				From:       types.PlayerContact,
				Text:       choice.Text,
				Timestamp:  e.now(),
				FromPlayer: true,
			})
		}
	}
	return e.GoToNode(choice.NextNodeID)
}

// ApplyEffects applies effects in order and emits one StateChanged.
// Effects referencing unknown content are logged and skipped.
func (e *Engine) ApplyEffects(effs types.Effects) {
	deliveries, problems := effects.Apply(e.state, e.content, effs)
	for _, err := range problems {
		e.log.Warn("effect skipped", "node", e.state.CurrentNodeID, "error", err)
	}
	for _, d := range deliveries {
		switch d.Kind {
		case effects.DeliverEcho:
			e.ReceiveEcho(d.Sender, d.Content)
		case effects.DeliverAnomaly:
			e.LogAnomaly(d.ID)
		}
	}
	e.SaveState()
	e.bus.Publish(events.StateChanged{Effects: effs})
}

// ExamineKeyword records the keyword as known and follows its first
// unlocked node, if any.
func (e *Engine) ExamineKeyword(id string) bool {
	kw, ok := e.content.Keywords[id]
	if !ok {
		return e.fail(fmt.Errorf("%w: %q", ErrKeywordNotFound, id), "keyword", id)
	}

	var added bool
	e.state.KnownKeywords, added = state.AddUnique(e.state.KnownKeywords, id)
	if added {
		e.SaveState()
	}

	if len(kw.UnlockedNodes) > 0 {
		return e.GoToNode(kw.UnlockedNodes[0])
	}
	e.lastErr = nil
	return true
}

// ReturnFromKeyword leaves a keyword-info node for its return target.
func (e *Engine) ReturnFromKeyword() bool {
	node, ok := e.CurrentNode()
	body, isInfo := node.Body.(types.KeywordInfo)
	if !ok || !isInfo {
		return e.fail(fmt.Errorf("%w: %q is not a keyword node", ErrContextMismatch, e.state.CurrentNodeID),
			"node", e.state.CurrentNodeID)
	}

	target := body.ReturnToNodeID
	if target == types.ReturnPrevious || target == "" {
		target = state.PreviousNode(e.state)
	}
	return e.GoToNode(target)
}

// ReceiveEcho delivers a message from sender.
func (e *Engine) ReceiveEcho(sender, content string) bool {
	id := e.newID()
	ts := e.now()

	e.state.ReceivedEchoes = append(e.state.ReceivedEchoes, types.EchoRecord{
		ID:        id,
		Sender:    sender,
		Content:   content,
		Timestamp: ts,
	})
	dialogue.Append(e.state, sender, types.MessageRecord{
		ID:        id,
		From:      sender,
		Text:      content,
		Timestamp: ts,
	})

	e.SaveState()
	e.bus.Publish(events.EchoReceived{Sender: sender, Content: content})
	return true
}

// SendEcho delivers an entry of the echo message table by id.
func (e *Engine) SendEcho(id string) bool {
	echo, ok := e.content.Echoes[id]
	if !ok {
		return e.fail(fmt.Errorf("%w: %q", ErrEchoNotFound, id), "echo", id)
	}
	return e.ReceiveEcho(echo.Sender, echo.Content)
}

// MarkMessagesRead clears the unread state of a contact's thread.
func (e *Engine) MarkMessagesRead(contact string) {
	if dialogue.MarkRead(e.state, contact) {
		e.SaveState()
	}
}

// SolvePuzzle judges an answer for the puzzle on the current node. It
// returns true only for a correct answer. Attempts that are not allowed
// (unknown puzzle, wrong node, unmet requirements) change nothing.
func (e *Engine) SolvePuzzle(puzzleID, answer string) bool {
	verdict, err := rules.Evaluate(e.content, e.state, puzzleID, answer)
	if err != nil {
		if errors.Is(err, rules.ErrUnknownPuzzle) {
			err = fmt.Errorf("%w: %w", ErrPuzzleNotFound, err)
		} else {
			err = fmt.Errorf("%w: %w", ErrContextMismatch, err)
		}
		return e.fail(err, "puzzle", puzzleID)
	}

	if verdict.Correct {
		e.state.SolvedPuzzles, _ = state.AddUnique(e.state.SolvedPuzzles, puzzleID)
	}
	if out := verdict.Outcome; out != nil {
		if len(out.Effects) > 0 {
			e.ApplyEffects(out.Effects)
		}
		if out.NextNodeID != "" {
			e.GoToNode(out.NextNodeID)
		}
	}
	if verdict.Correct {
		e.bus.Publish(events.PuzzleSolved{PuzzleID: puzzleID})
	}

	e.lastErr = nil
	e.SaveState()
	return verdict.Correct
}

// LogAnomaly adds an anomaly to the log. Logging the same anomaly twice is
// a successful no-op.
func (e *Engine) LogAnomaly(id string) bool {
	def, ok := e.content.Anomalies[id]
	if !ok {
		return e.fail(fmt.Errorf("%w: %q", ErrAnomalyNotFound, id), "anomaly", id)
	}
	e.lastErr = nil
	if state.HasAnomaly(e.state, id) {
		return true
	}

	e.state.AnomalyLog = append(e.state.AnomalyLog, types.AnomalyRecord{
		ID:          id,
		Title:       def.Title,
		Description: def.Description,
		Impact:      def.Impact,
		Timestamp:   e.now(),
	})
	e.SaveState()
	e.bus.Publish(events.AnomalyLogged{ID: id, Title: def.Title, Impact: def.Impact})
	return true
}

// PendingAnomalies lists anomalies offered by the current node that are
// not logged yet.
func (e *Engine) PendingAnomalies() []string {
	node, ok := e.CurrentNode()
	if !ok {
		return nil
	}
	var pending []string
	for _, id := range node.AvailableAnomalies {
		if !state.HasAnomaly(e.state, id) {
			pending = append(pending, id)
		}
	}
	return pending
}

// fail logs err with one identifying attribute and returns false.
func (e *Engine) fail(err error, key, id string) bool {
	e.lastErr = err
	e.log.Warn("engine operation failed", key, id, "error", err)
	return false
}
