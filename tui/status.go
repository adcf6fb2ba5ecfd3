package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/echoes/engine/dialogue"
)

// locationDisplayName derives a human-readable name from a location ID.
// "front_hall" -> "Front Hall". Names that already contain spaces are
// returned unchanged.
func locationDisplayName(id string) string {
	if strings.Contains(id, " ") {
		return id
	}
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// location, the day and time, both scores and the unread count.
func (m Model) renderStatusBar() string {
	s := m.session.Engine().State()

	left := fmt.Sprintf(" %s | Day %d, %s", locationDisplayName(m.st.screen.Location), s.DayCount, s.WorldTime)
	if m.pane == panePhone {
		left = " Phone |" + left
	}

	right := fmt.Sprintf("Alex %d · Doubt %d ", s.AlexRelationship, s.SelfDoubt)
	if n := dialogue.TotalUnread(&s); n > 0 {
		candidate := fmt.Sprintf("✉ %d | %s", n, right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
