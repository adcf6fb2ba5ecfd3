package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"

	"github.com/nathoo/echoes/play"
)

// run is a piece of text with uniform marks.
type run struct {
	text string
	mark mark
}

// renderMarkup styles content markup and wraps it to width display
// columns. Whitespace collapses to single spaces except newlines, which
// are kept as hard breaks.
func renderMarkup(markup string, width int) string {
	w := &wrapper{width: width}

	type open struct {
		tag  string
		mark mark
	}
	var stack []open
	current := func() mark {
		if len(stack) == 0 {
			return 0
		}
		return stack[len(stack)-1].mark
	}

	z := html.NewTokenizer(strings.NewReader(play.TrimPartialEntity(markup)))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			w.flush()
			return w.b.String()
		case html.TextToken:
			w.text(string(z.Text()), current())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "br" {
				w.hardBreak()
				continue
			}
			if tt == html.SelfClosingTagToken {
				continue
			}
			m := current()
			switch tok.Data {
			case "b", "strong":
				m |= markBold
			case "i", "em":
				m |= markItalic
			case "span":
				if play.IsKeyword(tok) {
					m |= markKeyword
				}
			}
			stack = append(stack, open{tag: tok.Data, mark: m})
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "p" {
				w.hardBreak()
			}
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].tag == tok.Data {
					stack = stack[:i]
					break
				}
			}
		}
	}
}

// wrapper greedily fills lines with words. A word may span several runs,
// as in "<b>3:17</b>.".
type wrapper struct {
	b       strings.Builder
	width   int
	lineLen int
	word    []run
	wordLen int
	space   bool // whitespace seen since the last word
}

func (w *wrapper) text(s string, m mark) {
	for _, r := range s {
		switch r {
		case '\n':
			w.hardBreak()
		case ' ', '\t', '\r':
			w.flush()
			w.space = true
		default:
			if n := len(w.word); n > 0 && w.word[n-1].mark == m {
				w.word[n-1].text += string(r)
			} else {
				w.word = append(w.word, run{text: string(r), mark: m})
			}
			w.wordLen += runewidth.RuneWidth(r)
		}
	}
}

// flush writes the pending word, breaking the line first if it does not
// fit.
func (w *wrapper) flush() {
	if len(w.word) == 0 {
		return
	}
	if w.lineLen > 0 && w.space {
		if w.width > 0 && w.lineLen+1+w.wordLen > w.width {
			w.b.WriteByte('\n')
			w.lineLen = 0
		} else {
			w.b.WriteString(styleNarration.Render(" "))
			w.lineLen++
		}
	}
	for _, r := range w.word {
		w.b.WriteString(styleFor(r.mark).Render(r.text))
	}
	w.lineLen += w.wordLen
	w.word = w.word[:0]
	w.wordLen = 0
	w.space = false
}

func (w *wrapper) hardBreak() {
	w.flush()
	w.b.WriteByte('\n')
	w.lineLen = 0
	w.space = false
}

// wordWrap wraps plain text to fit within the given display width,
// breaking at word boundaries. Existing newlines are preserved.
func wordWrap(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wrapLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(line) {
		wLen := runewidth.StringWidth(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}
	return result.String()
}
