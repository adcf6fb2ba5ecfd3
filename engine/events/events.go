// Package events implements the engine's typed publish/subscribe bus.
// Handlers run synchronously in subscription order.
package events

import "github.com/nathoo/echoes/types"

// Kind identifies an event. The set is closed.
type Kind uint8

const (
	KindStateChanged Kind = iota
	KindNodeChanged
	KindViewChanged
	KindEchoReceived
	KindPuzzleSolved
	KindAnomalyLogged

	numKinds
)

var kindNames = [numKinds]string{
	KindStateChanged:  "stateChanged",
	KindNodeChanged:   "nodeChanged",
	KindViewChanged:   "viewChanged",
	KindEchoReceived:  "echoReceived",
	KindPuzzleSolved:  "puzzleSolved",
	KindAnomalyLogged: "anomalyLogged",
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k < numKinds
}

// ParseKind maps an event name ("nodeChanged") to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Event is implemented by every payload type.
type Event interface {
	Kind() Kind
}

// StateChanged is published once per ApplyEffects call.
type StateChanged struct {
	Effects types.Effects
}

// NodeChanged is published after every successful navigation.
type NodeChanged struct {
	NodeID string
}

// ViewChanged is published when the active view actually changes.
type ViewChanged struct {
	View types.View
}

// EchoReceived is published when an echo lands in the inbox.
type EchoReceived struct {
	Sender  string
	Content string
}

// PuzzleSolved is published on a correct answer.
type PuzzleSolved struct {
	PuzzleID string
}

// AnomalyLogged is published when a new anomaly enters the log.
type AnomalyLogged struct {
	ID     string
	Title  string
	Impact int
}

func (StateChanged) Kind() Kind  { return KindStateChanged }
func (NodeChanged) Kind() Kind   { return KindNodeChanged }
func (ViewChanged) Kind() Kind   { return KindViewChanged }
func (EchoReceived) Kind() Kind  { return KindEchoReceived }
func (PuzzleSolved) Kind() Kind  { return KindPuzzleSolved }
func (AnomalyLogged) Kind() Kind { return KindAnomalyLogged }

// Handler receives an event.
type Handler func(Event)

// Typed adapts a handler for one concrete payload type.
func Typed[E Event](fn func(E)) Handler {
	return func(e Event) {
		if ev, ok := e.(E); ok {
			fn(ev)
		}
	}
}

// SubscriptionID identifies a subscription for removal.
type SubscriptionID uint64

type subscription struct {
	id SubscriptionID
	fn Handler
}

// Bus fans events out to subscribers. It is not safe for concurrent use;
// the engine is single-threaded.
type Bus struct {
	next SubscriptionID
	subs [numKinds][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for kind. It fails for unknown kinds or a nil fn.
func (b *Bus) Subscribe(kind Kind, fn Handler) (SubscriptionID, bool) {
	if !kind.Valid() || fn == nil {
		return 0, false
	}
	b.next++
	b.subs[kind] = append(b.subs[kind], subscription{id: b.next, fn: fn})
	return b.next, true
}

// Unsubscribe removes a subscription. It returns false for unknown kinds
// or ids that are not subscribed.
func (b *Bus) Unsubscribe(kind Kind, id SubscriptionID) bool {
	if !kind.Valid() {
		return false
	}
	list := b.subs[kind]
	for i, s := range list {
		if s.id == id {
			// Copy so a publish in progress keeps iterating its own slice.
			updated := make([]subscription, 0, len(list)-1)
			updated = append(updated, list[:i]...)
			updated = append(updated, list[i+1:]...)
			b.subs[kind] = updated
			return true
		}
	}
	return false
}

// Publish invokes every handler subscribed to e's kind, in order. Handlers
// added during a publish are not called for that event.
func (b *Bus) Publish(e Event) {
	k := e.Kind()
	if !k.Valid() {
		return
	}
	for _, s := range b.subs[k] {
		s.fn(e)
	}
}

// Count returns the number of subscribers for kind.
func (b *Bus) Count(kind Kind) int {
	if !kind.Valid() {
		return 0
	}
	return len(b.subs[kind])
}
