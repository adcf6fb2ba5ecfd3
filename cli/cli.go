// Package cli provides the plain line interface: terminal I/O, progressive
// text output and command dispatch for pipes, scripts and dumb terminals.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nathoo/echoes/engine/parser"
	"github.com/nathoo/echoes/play"
	"github.com/nathoo/echoes/reveal"
	"github.com/nathoo/echoes/types"
)

// drainLimit bounds the reveal steps run for one text in instant mode.
const drainLimit = 1 << 20

// CLI handles terminal interaction with the player.
type CLI struct {
	Session   *play.Session
	In        io.Reader
	Out       io.Writer
	Reveal    reveal.Options
	Timed     bool // reveal with real delays; otherwise text appears at once
	EchoInput bool // echo each input line after the prompt (for script playback)
	RNG       *reveal.RNG
	Sleep     func(time.Duration)
	Now       func() time.Time

	renderer *reveal.Renderer
	queue    *reveal.Queue
	manual   *reveal.Manual
	printed  string // plain text of the current chunk already written
	lastCmd  string // for "again"/"g" repeat
}

// New creates a CLI for the given session.
func New(s *play.Session, opts reveal.Options, seed int64) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
		Reveal:  opts,
		RNG:     reveal.NewRNG(seed),
		Sleep:   time.Sleep,
	}
}

func (c *CLI) init() {
	if c.renderer != nil {
		return
	}
	if c.RNG == nil {
		c.RNG = reveal.NewRNG(0)
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	var sched reveal.Scheduler
	if c.Timed {
		c.queue = reveal.NewQueue(c.Now)
		sched = c.queue
	} else {
		c.manual = reveal.NewManual()
		sched = c.manual
	}
	c.renderer = reveal.NewRenderer(sched, c.Reveal, reveal.Hooks{
		OnUpdate:   c.printDelta,
		OnContinue: c.onContinue,
		OnChoices:  c.onChoices,
	})
}

// Run shows the current node, then loops: prompt → input → dispatch →
// output.
func (c *CLI) Run() {
	c.init()
	c.show()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printSystem("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else if input != "" {
			c.lastCmd = input
		}

		if c.handle(input) {
			return
		}
	}
}

// handle dispatches one input line. Returns true if the game should exit.
func (c *CLI) handle(input string) bool {
	if parser.Parse(input).Verb == parser.VerbAdvance {
		c.advance()
		return false
	}

	r := c.Session.DoInput(input)
	for _, line := range r.Lines {
		c.printLine(line)
	}
	for _, n := range r.Notices {
		c.printSystem(n)
	}
	if r.Quit {
		return true
	}
	if r.Moved {
		c.show()
	}
	return false
}

// advance moves to the next chunk of the current text.
func (c *CLI) advance() {
	if c.renderer.Phase() != reveal.PhaseChunkComplete {
		return
	}
	c.printed = ""
	c.renderer.ShowNextChunk()
	c.drive()
}

// show writes the current node: a header, the revealed text and then the
// choices or prompt.
func (c *CLI) show() {
	scr := c.Session.Screen()
	c.printLine("")

	switch scr.Kind {
	case types.KindMessageReceived:
		c.printSystem(scr.Sender + " is typing...")
		if c.Timed {
			c.Sleep(c.RNG.TypingDelay())
		}
		c.print(scr.Sender + ": ")
	case types.KindMessageChoices:
		if scr.Text == "" {
			c.printLine("Reply to " + scr.Sender + ":")
		}
	case types.KindKeywordInfo:
		c.printLine("== " + scr.Title + " ==")
	}

	c.printed = ""
	c.renderer.SetText(scr.Text, scr.Choices, func() { c.onComplete(scr) })
	c.drive()
}

// drive runs the renderer's pending steps until the chunk is done.
func (c *CLI) drive() {
	if !c.Timed {
		c.manual.Drain(drainLimit)
		return
	}
	for {
		d, ok := c.queue.Next()
		if !ok {
			return
		}
		c.Sleep(d)
		c.queue.RunDue()
	}
}

func (c *CLI) printDelta(displayed string) {
	text := play.PlainText(displayed)
	if !strings.HasPrefix(text, c.printed) {
		return
	}
	c.print(text[len(c.printed):])
	c.printed = text
}

func (c *CLI) onContinue() {
	c.printLine("")
	c.printSystem("more: press Enter")
}

func (c *CLI) onChoices(choices []string) {
	c.printLine("")
	for i, ch := range choices {
		c.printLine(fmt.Sprintf("  %d. %s", i+1, ch))
	}
}

func (c *CLI) onComplete(scr play.Screen) {
	if scr.Text != "" {
		c.printLine("")
	}
	if scr.Kind == types.KindPuzzle {
		if scr.Prompt != "" {
			c.printLine(scr.Prompt)
		}
		c.printSystem("type: answer <text>")
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
