package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/echoes/play"
	"github.com/nathoo/echoes/reveal"
	"github.com/nathoo/echoes/types"
)

// tickMsg asks the stage to run due reveal steps.
type tickMsg struct{ gen uint64 }

// typingDoneMsg ends the typing indicator of a received message.
type typingDoneMsg struct{ gen uint64 }

// rawLine stores an unstyled transcript line with its classification, so
// it can be re-wrapped and re-styled when the terminal is resized.
type rawLine struct {
	text string
	kind lineKind
}

// stage owns the renderer and the transcript. It is shared by every copy
// of the Model and only touched from Update.
type stage struct {
	queue    *reveal.Queue
	renderer *reveal.Renderer
	rng      *reveal.RNG

	lines []rawLine // finished transcript

	screen   play.Screen
	live     string // markup of the chunk being revealed
	chunk    int
	more     bool     // a further chunk waits for the reader
	choices  []string // shown after the last chunk
	complete bool
	typing   bool

	gen uint64 // invalidates stale ticks
}

func newStage(opts reveal.Options, seed int64, now func() time.Time) *stage {
	st := &stage{
		queue: reveal.NewQueue(now),
		rng:   reveal.NewRNG(seed),
	}
	st.renderer = reveal.NewRenderer(st.queue, opts, reveal.Hooks{
		OnUpdate:   st.onUpdate,
		OnContinue: func() { st.more = true },
		OnChoices:  func(c []string) { st.choices = c },
	})
	return st
}

func (st *stage) onUpdate(displayed string) {
	if idx, _ := st.renderer.Chunk(); idx != st.chunk {
		st.commitLive()
		st.chunk = idx
	}
	st.live = displayed
	st.more = false
}

// commitLive moves the revealed chunk into the transcript.
func (st *stage) commitLive() {
	if st.live != "" {
		st.lines = append(st.lines, rawLine{text: st.live, kind: kindNarration})
		st.live = ""
	}
}

// append adds plain lines to the transcript.
func (st *stage) append(kind lineKind, lines ...string) {
	for _, l := range lines {
		st.lines = append(st.lines, rawLine{text: l, kind: kind})
	}
}

// show starts presenting scr. Received messages first show the typing
// indicator for a random delay.
func (st *stage) show(scr play.Screen) tea.Cmd {
	st.commitLive()
	st.lines = append(st.lines, rawLine{})
	st.screen = scr
	st.chunk = 0
	st.more = false
	st.choices = nil
	st.complete = false

	switch scr.Kind {
	case types.KindMessageReceived:
		st.append(kindSender, scr.Sender)
		st.typing = true
		st.gen++
		gen := st.gen
		return tea.Tick(st.rng.TypingDelay(), func(time.Time) tea.Msg {
			return typingDoneMsg{gen: gen}
		})
	case types.KindMessageChoices:
		st.append(kindSender, "To "+scr.Sender)
	case types.KindKeywordInfo:
		st.append(kindTitle, scr.Title)
	}
	return st.startText()
}

func (st *stage) startText() tea.Cmd {
	st.typing = false
	st.renderer.SetText(st.screen.Text, st.screen.Choices, func() { st.complete = true })
	return st.tick()
}

// advance is the reader's "next" action: end the typing indicator, skip
// the animation or show the next chunk.
func (st *stage) advance() tea.Cmd {
	if st.typing {
		return st.startText()
	}
	st.renderer.Advance()
	return st.tick()
}

// tick schedules delivery of the next due reveal step, if any.
func (st *stage) tick() tea.Cmd {
	st.gen++
	gen := st.gen
	d, ok := st.queue.Next()
	if !ok {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (st *stage) onTick(msg tickMsg) tea.Cmd {
	if msg.gen != st.gen {
		return nil
	}
	st.queue.RunDue()
	return st.tick()
}

func (st *stage) onTypingDone(msg typingDoneMsg) tea.Cmd {
	if msg.gen != st.gen || !st.typing {
		return nil
	}
	return st.startText()
}
