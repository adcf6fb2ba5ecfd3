package tui

import "github.com/charmbracelet/lipgloss"

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleKeyword = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Underline(true)

	styleSender = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleMe = lipgloss.NewStyle().
		Foreground(lipgloss.Color("34"))

	styleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleChoiceNum = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleNotice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213"))

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of a transcript line for styling.
type lineKind int

const (
	kindNarration lineKind = iota // markup
	kindSender
	kindTitle
	kindInput
	kindSystem
	kindNotice
)

// mark is a set of inline text attributes from markup.
type mark uint8

const (
	markBold mark = 1 << iota
	markItalic
	markKeyword
)

// styleFor returns the style for text carrying marks.
func styleFor(m mark) lipgloss.Style {
	s := styleNarration
	if m&markKeyword != 0 {
		s = styleKeyword
	}
	if m&markBold != 0 {
		s = s.Bold(true)
	}
	if m&markItalic != 0 {
		s = s.Italic(true)
	}
	return s
}

// renderLine styles a wrapped transcript line of the given kind.
func renderLine(text string, kind lineKind) string {
	switch kind {
	case kindSender:
		return styleSender.Render(text)
	case kindTitle:
		return styleTitle.Render(text)
	case kindInput:
		return stylePlayerInput.Render(text)
	case kindNotice:
		return styleNotice.Render(text)
	default:
		return styleSystem.Render(text)
	}
}
