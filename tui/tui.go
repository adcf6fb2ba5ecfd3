// Package tui provides a Bubble Tea terminal UI for Echoes.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/echoes/engine/dialogue"
	"github.com/nathoo/echoes/play"
	"github.com/nathoo/echoes/reveal"
	"github.com/nathoo/echoes/types"
)

// pane selects what the viewport shows.
type pane int

const (
	paneStory pane = iota
	panePhone
)

// phoneHistory is the number of messages shown per thread on the phone.
const phoneHistory = 4

// Model is the Bubble Tea model for the Echoes TUI.
type Model struct {
	session *play.Session
	st      *stage

	viewport viewport.Model
	input    textinput.Model
	history  *History

	pane     pane
	width    int
	height   int
	ready    bool
	quitting bool
	lastCmd  string
}

// New creates a TUI model for the session.
func New(s *play.Session, opts reveal.Options, seed int64) Model {
	return newModel(s, opts, seed, time.Now)
}

func newModel(s *play.Session, opts reveal.Options, seed int64, now func() time.Time) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		session: s,
		st:      newStage(opts, seed, now),
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program.
func Run(s *play.Session, opts reveal.Options, seed int64) error {
	m := New(s, opts, seed)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init shows the current node.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.st.show(m.session.Screen()))
}

// Update handles messages (key presses, window resize, reveal ticks).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := max(m.height-2, 1) // 1 status bar + 1 input line

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "tab":
			if m.pane == paneStory {
				m.pane = panePhone
			} else {
				m.pane = paneStory
			}
			m.refreshViewport()
			return m, nil

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case tickMsg:
		cmds = append(cmds, m.st.onTick(msg))

	case typingDoneMsg:
		cmds = append(cmds, m.st.onTypingDone(msg))
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line. An empty line advances
// the text.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		cmd := m.st.advance()
		m.refreshViewport()
		return m, cmd
	}

	m.history.Push(input)

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m.st.append(kindSystem, "Nothing to repeat.")
			m.refreshViewport()
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	m.st.append(kindInput, "> "+input)
	r := m.session.DoInput(input)
	m.st.append(kindSystem, r.Lines...)
	m.st.append(kindNotice, r.Notices...)

	if r.Quit {
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if r.Moved {
		m.pane = paneStory
		cmd = m.st.show(m.session.Screen())
	}
	m.refreshViewport()
	return m, cmd
}

// refreshViewport re-wraps and re-styles the transcript at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	if m.st.screen.Kind == types.KindPuzzle {
		m.input.Placeholder = "type your answer"
	} else {
		m.input.Placeholder = ""
	}

	if m.pane == panePhone {
		m.viewport.SetContent(m.phoneView(width))
		return
	}

	var styled []string
	for _, rl := range m.st.lines {
		styled = append(styled, renderRawLine(rl, width))
	}
	styled = append(styled, m.liveView(width)...)

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

func renderRawLine(rl rawLine, width int) string {
	switch {
	case rl.text == "":
		return ""
	case rl.kind == kindNarration:
		return renderMarkup(rl.text, width)
	default:
		return renderLine(wordWrap(rl.text, width), rl.kind)
	}
}

// liveView renders the node being presented: the revealing chunk, then
// the continue hint, the choices or the puzzle prompt.
func (m *Model) liveView(width int) []string {
	st := m.st
	var out []string
	if st.typing {
		return append(out, styleHint.Render(st.screen.Sender+" is typing..."))
	}
	if st.live != "" {
		out = append(out, renderMarkup(st.live, width))
	}
	if st.more {
		out = append(out, styleHint.Render("▼ press Enter"))
	}
	for i, c := range st.choices {
		num := styleChoiceNum.Render(fmt.Sprintf("%d.", i+1))
		out = append(out, num+" "+styleChoice.Render(wordWrap(c, width-3)))
	}
	if st.complete && st.screen.Kind == types.KindPuzzle && st.screen.Prompt != "" {
		out = append(out, styleHint.Render(wordWrap(st.screen.Prompt, width)))
	}
	return out
}

// phoneView lists the message threads with their latest messages.
func (m *Model) phoneView(width int) string {
	s := m.session.Engine().State()
	var out []string
	out = append(out, styleTitle.Render("Messages"), "")
	for _, t := range dialogue.Threads(&s) {
		header := t.Contact
		if t.Unread > 0 {
			header += fmt.Sprintf(" (%d unread)", t.Unread)
		}
		out = append(out, styleSender.Render(header))

		history := s.MessageHistory[t.Contact]
		if len(history) > phoneHistory {
			history = history[len(history)-phoneHistory:]
		}
		for _, msg := range history {
			style := styleNarration
			if msg.FromPlayer {
				style = styleMe
			}
			out = append(out, style.Render(wordWrap("  "+msg.From+": "+play.PlainText(msg.Text), width)))
		}
		out = append(out, "")
	}
	out = append(out, styleHint.Render("Tab: back to the story · read <contact> marks a thread read"))
	return strings.Join(out, "\n")
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
