// Package types defines the shared data structures for the Echoes engine.
// Content definitions are immutable after loading; PlayerState is the only
// mutable record and is owned by the engine.
package types

import "time"

// View is the pane the player is currently looking at.
type View string

const (
	ViewMonologue View = "monologue"
	ViewMessage   View = "message"
)

// NodeKind names a node variant. The string values match the authored
// content schema.
type NodeKind string

const (
	KindMonologue       NodeKind = "monologue"
	KindMessageReceived NodeKind = "messageReceived"
	KindMessageChoices  NodeKind = "messageChoices"
	KindPuzzle          NodeKind = "puzzle"
	KindKeywordInfo     NodeKind = "keywordInfo"
)

// ReturnPrevious is the KeywordInfo return target meaning "the node the
// player came from".
const ReturnPrevious = "previous"

// PlayerContact is the sender name recorded for the player's own replies.
const PlayerContact = "Me"

// Effect is one declared state mutation. Key selects the state field,
// Value is a delta (numeric keys) or an id (set and table keys).
type Effect struct {
	Key   string
	Value any
}

// Effects is an ordered effect set. Order is the authored order.
type Effects []Effect

// Choice is an outgoing edge of a node.
type Choice struct {
	Text       string
	NextNodeID string
	Effects    Effects
}

// Outcome is the result branch of a puzzle attempt.
type Outcome struct {
	NextNodeID string
	Effects    Effects
}

// Requirements is a puzzle node precondition. Zero values mean "no
// requirement" for that field.
type Requirements struct {
	Keywords            []string
	SolvedPuzzles       []string
	MinAlexRelationship int
	MaxSelfDoubt        int
}

// Node is one unit of narrative content. Body holds the variant-specific
// fields; switch on its concrete type.
type Node struct {
	ID                 string
	Content            string // inline markup; takes precedence over ContentKey
	ContentKey         string // locale key resolved by the presentation layer
	Environment        string // optional location id
	AvailableAnomalies []string
	Body               NodeBody
}

// Kind returns the variant of the node, or "" for a node without a body.
func (n Node) Kind() NodeKind {
	if n.Body == nil {
		return ""
	}
	return n.Body.Kind()
}

// NodeBody is the closed set of node variants.
type NodeBody interface {
	Kind() NodeKind
	nodeBody()
}

// Monologue is inner narration followed by choices.
type Monologue struct {
	Choices []Choice
}

// MessageReceived is an incoming phone message followed by choices.
type MessageReceived struct {
	Sender  string
	Choices []Choice
}

// MessageChoices offers the player replies to send to Sender.
type MessageChoices struct {
	Sender         string
	MessageChoices []Choice
}

// PuzzleNode presents a puzzle and branches on the answer.
type PuzzleNode struct {
	PuzzleID      string
	RequiredState *Requirements
	OnSolve       *Outcome
	OnFail        *Outcome
}

// KeywordInfo shows a keyword's entry and returns to ReturnToNodeID.
type KeywordInfo struct {
	Keyword        string
	ReturnToNodeID string
}

func (Monologue) Kind() NodeKind       { return KindMonologue }
func (MessageReceived) Kind() NodeKind { return KindMessageReceived }
func (MessageChoices) Kind() NodeKind  { return KindMessageChoices }
func (PuzzleNode) Kind() NodeKind      { return KindPuzzle }
func (KeywordInfo) Kind() NodeKind     { return KindKeywordInfo }

func (Monologue) nodeBody()       {}
func (MessageReceived) nodeBody() {}
func (MessageChoices) nodeBody()  {}
func (PuzzleNode) nodeBody()      {}
func (KeywordInfo) nodeBody()     {}

// KeywordDef is an examinable keyword.
type KeywordDef struct {
	ID            string
	Title         string
	Description   string
	UnlockedNodes []string
}

// PuzzleDef is an authored puzzle. Solution is compared case-insensitively.
type PuzzleDef struct {
	ID            string
	Description   string
	Difficulty    int
	RequiredClues []string
	Solution      string
	Reward        string
}

// EchoDef is an entry of the echo message table.
type EchoDef struct {
	ID      string
	Sender  string
	Content string
}

// EnvironmentDef describes a location. Only the id matters to the engine.
type EnvironmentDef struct {
	ID              string
	Name            string
	Description     string
	BackgroundImage string
	Objects         []string
}

// AnomalyDef is a discoverable inconsistency. Impact is 1..5.
type AnomalyDef struct {
	ID          string
	Title       string
	Description string
	Impact      int
}

// GameDef holds game metadata and the default-state seeds.
type GameDef struct {
	Title         string
	Version       string
	Author        string
	DefaultLocale string
	Start         string   // starting node id
	StartLocation string   // initial currentLocation
	StartTime     string   // initial worldTime
	Contacts      []string // contacts with an (initially empty) message thread
}

// EchoRecord is a delivered echo.
type EchoRecord struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// MessageRecord is one entry of a contact's thread.
type MessageRecord struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	FromPlayer bool      `json:"fromPlayer"`
}

// AnomalyRecord is a logged anomaly.
type AnomalyRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Impact      int       `json:"impact"`
	Timestamp   time.Time `json:"timestamp"`
}

// PlayerState is the complete mutable progress record.
type PlayerState struct {
	CurrentNodeID  string   `json:"currentNodeId"`
	PreviousNodeID string   `json:"previousNodeId"` // node left by the latest transition
	VisitedNodes   []string `json:"visitedNodes"`
	ActiveView     View     `json:"activeView"`

	KnownKeywords  []string            `json:"knownKeywords"`
	CollectedClues map[string][]string `json:"collectedClues"`
	SolvedPuzzles  []string            `json:"solvedPuzzles"`

	CurrentLocation string `json:"currentLocation"`
	WorldTime       string `json:"worldTime"`
	DayCount        int    `json:"dayCount"`

	AlexRelationship int `json:"alexRelationship"`
	SelfDoubt        int `json:"selfDoubt"`

	UnreadMessages map[string]int             `json:"unreadMessages"`
	ReceivedEchoes []EchoRecord               `json:"receivedEchoes"`
	MessageHistory map[string][]MessageRecord `json:"messageHistory"`
	AnomalyLog     []AnomalyRecord            `json:"anomalyLog"`
}
