// Package play turns parsed player commands into engine calls and
// describes the current node for the front ends.
package play

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/echoes/engine"
	"github.com/nathoo/echoes/engine/dialogue"
	"github.com/nathoo/echoes/engine/events"
	"github.com/nathoo/echoes/engine/parser"
	"github.com/nathoo/echoes/engine/resolve"
	"github.com/nathoo/echoes/engine/rules"
	"github.com/nathoo/echoes/engine/state"
	"github.com/nathoo/echoes/store"
	"github.com/nathoo/echoes/types"
)

// BackChoice is the single choice offered on keyword-info nodes.
const BackChoice = "Go back"

// Screen describes what the front end shows for the current node.
type Screen struct {
	NodeID   string
	Kind     types.NodeKind
	Sender   string // message nodes
	Title    string // keyword title on keyword-info nodes
	Text     string // markup
	Prompt   string // puzzle description on puzzle nodes
	Choices  []string
	Location string // display name of the current location
}

// Reply is the outcome of one command.
type Reply struct {
	Lines   []string // direct answer to the command
	Notices []string // things that happened along the way
	Moved   bool     // the screen changed and should be shown again
	Quit    bool
}

// Session dispatches commands for one player. It is not safe for
// concurrent use.
type Session struct {
	eng     *engine.Engine
	locale  string
	notices []string
	moved   bool
	subs    map[events.Kind]events.SubscriptionID
}

// New creates a session over eng showing texts in locale.
func New(eng *engine.Engine, locale string) *Session {
	s := &Session{eng: eng, locale: locale, subs: map[events.Kind]events.SubscriptionID{}}
	s.subscribe(events.KindNodeChanged, func(events.Event) { s.moved = true })
	s.subscribe(events.KindEchoReceived, events.Typed(func(e events.EchoReceived) {
		s.notices = append(s.notices, fmt.Sprintf("New message from %s.", e.Sender))
	}))
	s.subscribe(events.KindAnomalyLogged, events.Typed(func(e events.AnomalyLogged) {
		s.notices = append(s.notices, fmt.Sprintf("Anomaly logged: %s %s", e.Title, Stars(e.Impact)))
	}))
	return s
}

func (s *Session) subscribe(kind events.Kind, fn events.Handler) {
	if id, ok := s.eng.Subscribe(kind, fn); ok {
		s.subs[kind] = id
	}
}

// Close detaches the session from the engine's events.
func (s *Session) Close() {
	for kind, id := range s.subs {
		s.eng.Unsubscribe(kind, id)
	}
	s.subs = map[events.Kind]events.SubscriptionID{}
}

// Engine returns the underlying engine.
func (s *Session) Engine() *engine.Engine {
	return s.eng
}

// Locale returns the locale texts are shown in.
func (s *Session) Locale() string {
	return s.locale
}

// Screen describes the current node.
func (s *Session) Screen() Screen {
	c := s.eng.Content()
	st := s.eng.State()

	scr := Screen{NodeID: st.CurrentNodeID, Location: s.locationName(st.CurrentLocation)}
	node, ok := s.eng.CurrentNode()
	if !ok {
		return scr
	}
	scr.Kind = node.Kind()
	scr.Text = c.Text(node, s.locale)

	switch body := node.Body.(type) {
	case types.Monologue:
		scr.Choices = choiceTexts(body.Choices)
	case types.MessageReceived:
		scr.Sender = body.Sender
		scr.Choices = choiceTexts(body.Choices)
	case types.MessageChoices:
		scr.Sender = body.Sender
		scr.Choices = choiceTexts(body.MessageChoices)
	case types.PuzzleNode:
		if def, ok := c.Puzzles[body.PuzzleID]; ok {
			scr.Prompt = def.Description
			if scr.Text == "" {
				scr.Text = def.Description
				scr.Prompt = ""
			}
		}
	case types.KeywordInfo:
		if kw, ok := c.Keywords[body.Keyword]; ok {
			scr.Title = kw.Title
			if scr.Text == "" {
				scr.Text = kw.Description
			}
		}
		scr.Choices = []string{BackChoice}
	}
	return scr
}

func (s *Session) locationName(id string) string {
	if env, ok := s.eng.Content().Environments[id]; ok && env.Name != "" {
		return env.Name
	}
	return id
}

func choiceTexts(choices []types.Choice) []string {
	out := make([]string, len(choices))
	for i, ch := range choices {
		out[i] = ch.Text
	}
	return out
}

// DoInput parses and runs one line of input. On puzzle nodes a line that
// is not a command is taken as the answer.
func (s *Session) DoInput(input string) Reply {
	cmd := parser.Parse(input)
	if node, ok := s.eng.CurrentNode(); ok && node.Kind() == types.KindPuzzle {
		if cmd.Verb == parser.VerbChoose || cmd.Verb == parser.VerbUnknown {
			cmd = parser.Command{Verb: parser.VerbAnswer, Arg: strings.TrimSpace(input)}
		}
	}
	return s.Do(cmd)
}

// Do runs one command.
func (s *Session) Do(cmd parser.Command) Reply {
	s.moved = false
	var r Reply

	switch cmd.Verb {
	case parser.VerbAdvance:
		// Handled by the front end's renderer.
	case parser.VerbChoose:
		r = s.choose(cmd.Index)
	case parser.VerbExamine:
		r = s.examine(cmd.Arg)
	case parser.VerbAnswer:
		r = s.answer(cmd.Arg)
	case parser.VerbBack:
		r = s.back()
	case parser.VerbRead:
		r = s.read(cmd.Arg)
	case parser.VerbContacts:
		r = s.contacts()
	case parser.VerbKeywords:
		r = s.keywords()
	case parser.VerbAnomalies:
		r = s.anomalies()
	case parser.VerbLog:
		r = s.logAnomaly(cmd.Arg)
	case parser.VerbSave:
		s.eng.SaveState()
		r.Lines = []string{"Progress saved."}
	case parser.VerbLoad:
		r = s.load()
	case parser.VerbSlots:
		r = s.slots()
	case parser.VerbReset:
		s.eng.ResetState()
		r = Reply{Lines: []string{"Your memory resets."}, Moved: true}
	case parser.VerbState:
		r.Lines = s.stateLines()
	case parser.VerbHelp:
		r.Lines = HelpLines()
	case parser.VerbQuit:
		r = Reply{Lines: []string{"Goodbye."}, Quit: true}
	default:
		r.Lines = []string{"I don't understand that. Type help for commands."}
	}

	if s.moved {
		r.Moved = true
	}
	r.Notices = append(r.Notices, s.notices...)
	s.notices = nil
	return r
}

func (s *Session) choose(i int) Reply {
	node, ok := s.eng.CurrentNode()
	if !ok {
		return Reply{Lines: []string{"There is nowhere to go."}}
	}

	var choices []types.Choice
	switch body := node.Body.(type) {
	case types.Monologue:
		choices = body.Choices
	case types.MessageReceived:
		choices = body.Choices
	case types.MessageChoices:
		choices = body.MessageChoices
	case types.KeywordInfo:
		if i == 0 {
			return s.back()
		}
	case types.PuzzleNode:
		return Reply{Lines: []string{"Type answer <text> to try the puzzle."}}
	}

	if i < 0 || i >= len(choices) {
		return Reply{Lines: []string{fmt.Sprintf("There is no choice %d.", i+1)}}
	}
	if !s.eng.MakeChoice(choices[i]) {
		return Reply{Lines: []string{"That path leads nowhere."}}
	}
	return Reply{}
}

func (s *Session) examine(name string) Reply {
	if name == "" {
		return Reply{Lines: []string{"Examine what?"}}
	}
	st := s.eng.State()
	id, err := resolve.Keyword(s.eng.Content(), &st, s.Screen().Text, name)
	if err != nil {
		return Reply{Lines: []string{capitalize(err.Error()) + "."}}
	}
	kw := s.eng.Content().Keywords[id]
	if !s.eng.ExamineKeyword(id) {
		return Reply{Lines: []string{"It slips out of focus."}}
	}
	if len(kw.UnlockedNodes) > 0 {
		return Reply{}
	}
	return Reply{Lines: []string{kw.Title + ": " + PlainText(kw.Description)}}
}

func (s *Session) answer(text string) Reply {
	node, ok := s.eng.CurrentNode()
	body, isPuzzle := node.Body.(types.PuzzleNode)
	if !ok || !isPuzzle {
		return Reply{Lines: []string{"There is nothing to answer here."}}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Lines: []string{"Answer what?"}}
	}

	if s.eng.SolvePuzzle(body.PuzzleID, text) {
		return Reply{Lines: []string{"Something clicks into place."}}
	}
	var unmet *rules.UnmetError
	if errors.As(s.eng.LastError(), &unmet) {
		return Reply{Lines: []string{"You can't make sense of it yet. Something is missing."}}
	}
	if s.eng.LastError() != nil {
		return Reply{Lines: []string{"Nothing happens."}}
	}
	return Reply{Lines: []string{"That isn't it."}}
}

func (s *Session) back() Reply {
	if !s.eng.ReturnFromKeyword() {
		return Reply{Lines: []string{"There is nothing to go back to."}}
	}
	return Reply{}
}

func (s *Session) read(name string) Reply {
	st := s.eng.State()
	if name == "" {
		scr := s.Screen()
		if scr.Sender == "" {
			return s.contacts()
		}
		name = scr.Sender
	}
	contact, err := resolve.Contact(&st, name)
	if err != nil {
		return Reply{Lines: []string{capitalize(err.Error()) + "."}}
	}

	history := st.MessageHistory[contact]
	if len(history) == 0 {
		return Reply{Lines: []string{fmt.Sprintf("No messages with %s.", contact)}}
	}
	lines := []string{"-- " + contact + " --"}
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.From, PlainText(m.Text)))
	}
	s.eng.MarkMessagesRead(contact)
	return Reply{Lines: lines}
}

func (s *Session) contacts() Reply {
	st := s.eng.State()
	threads := dialogue.Threads(&st)
	if len(threads) == 0 {
		return Reply{Lines: []string{"Your phone has no contacts."}}
	}
	lines := make([]string, 0, len(threads))
	for _, t := range threads {
		line := t.Contact
		if t.Unread > 0 {
			line += fmt.Sprintf(" (%d unread)", t.Unread)
		}
		if t.Last != nil {
			line += ": " + PlainText(t.Last.Text)
		}
		lines = append(lines, line)
	}
	return Reply{Lines: lines}
}

func (s *Session) keywords() Reply {
	st := s.eng.State()
	if len(st.KnownKeywords) == 0 {
		return Reply{Lines: []string{"You haven't noticed anything yet."}}
	}
	c := s.eng.Content()
	var lines []string
	for _, id := range st.KnownKeywords {
		kw, ok := c.Keywords[id]
		if !ok {
			continue
		}
		lines = append(lines, kw.Title+": "+PlainText(kw.Description))
	}
	return Reply{Lines: lines}
}

func (s *Session) anomalies() Reply {
	st := s.eng.State()
	var lines []string
	if len(st.AnomalyLog) == 0 {
		lines = append(lines, "Your anomaly log is empty.")
	}
	for _, a := range st.AnomalyLog {
		lines = append(lines, fmt.Sprintf("%s %s  %s", Stars(a.Impact), a.Title, a.Timestamp.Format("15:04")))
		if a.Description != "" {
			lines = append(lines, "  "+PlainText(a.Description))
		}
	}
	if pending := s.eng.PendingAnomalies(); len(pending) > 0 {
		c := s.eng.Content()
		titles := make([]string, 0, len(pending))
		for _, id := range pending {
			titles = append(titles, c.Anomalies[id].Title)
		}
		lines = append(lines, "Something here feels wrong: "+strings.Join(titles, ", "))
	}
	return Reply{Lines: lines}
}

func (s *Session) logAnomaly(name string) Reply {
	st := s.eng.State()
	node, _ := s.eng.CurrentNode()
	id, err := resolve.Anomaly(s.eng.Content(), node.AvailableAnomalies, name)
	if err != nil {
		return Reply{Lines: []string{capitalize(err.Error()) + "."}}
	}
	if state.HasAnomaly(&st, id) {
		return Reply{Lines: []string{"You already noted that."}}
	}
	if !s.eng.LogAnomaly(id) {
		return Reply{Lines: []string{"You can't put it into words."}}
	}
	return Reply{}
}

func (s *Session) load() Reply {
	if s.eng.LoadState() {
		return Reply{Lines: []string{"Progress restored."}, Moved: true}
	}
	err := s.eng.LastError()
	if errors.Is(err, engine.ErrNoStore) {
		return Reply{Lines: []string{"Saving is turned off."}}
	}
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return Reply{Lines: []string{"There is no saved game."}}
	}
	return Reply{Lines: []string{fmt.Sprintf("Load failed: %v", err)}}
}

// slotLister is implemented by backends that keep several slots.
type slotLister interface {
	Slots(ctx context.Context) ([]store.Slot, error)
}

func (s *Session) slots() Reply {
	lister, ok := s.eng.Store().(slotLister)
	if !ok {
		return Reply{Lines: []string{"This save backend keeps a single game."}}
	}
	slots, err := lister.Slots(context.Background())
	if err != nil {
		return Reply{Lines: []string{fmt.Sprintf("Listing saves failed: %v", err)}}
	}
	if len(slots) == 0 {
		return Reply{Lines: []string{"There are no saved games."}}
	}
	lines := []string{"Saved games:"}
	for _, sl := range slots {
		lines = append(lines, fmt.Sprintf("  %s  %s", sl.Name, sl.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return Reply{Lines: lines}
}

func (s *Session) stateLines() []string {
	st := s.eng.State()
	lines := []string{
		fmt.Sprintf("Node: %s (%s)", st.CurrentNodeID, st.ActiveView),
		fmt.Sprintf("Location: %s", s.locationName(st.CurrentLocation)),
		fmt.Sprintf("Day %d, %s", st.DayCount, st.WorldTime),
		fmt.Sprintf("Alex: %d/%d  Self-doubt: %d/%d", st.AlexRelationship, state.ScoreMax, st.SelfDoubt, state.ScoreMax),
		fmt.Sprintf("Unread: %d", dialogue.TotalUnread(&st)),
	}
	if len(st.KnownKeywords) > 0 {
		lines = append(lines, "Keywords: "+strings.Join(st.KnownKeywords, ", "))
	}
	if len(st.SolvedPuzzles) > 0 {
		lines = append(lines, "Solved: "+strings.Join(st.SolvedPuzzles, ", "))
	}
	for _, id := range state.SortedKeys(st.CollectedClues) {
		lines = append(lines, fmt.Sprintf("Clues for %s: %s", id, strings.Join(st.CollectedClues[id], ", ")))
	}
	return lines
}

// HelpLines renders the command reference.
func HelpLines() []string {
	width := 0
	for _, h := range parser.Help {
		width = max(width, len(h.Usage))
	}
	lines := make([]string, len(parser.Help))
	for i, h := range parser.Help {
		lines[i] = fmt.Sprintf("  %-*s  %s", width, h.Usage, h.Description)
	}
	return lines
}

// Stars renders an anomaly impact of 1..5.
func Stars(impact int) string {
	impact = min(max(impact, 0), 5)
	return strings.Repeat("★", impact) + strings.Repeat("☆", 5-impact)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
