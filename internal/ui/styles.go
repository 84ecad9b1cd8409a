package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3498DB")).
			Padding(0, 1)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F39C12"))

	cardKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3498DB"))
)

// Field is one labelled line of a card.
type Field struct {
	Key   string
	Value string
}

// RenderCard lays fields out as "Key: Value" lines under a title.
func RenderCard(title string, fields []Field) string {
	lines := make([]string, 0, len(fields)+1)
	if title != "" {
		lines = append(lines, cardTitleStyle.Render(title))
	}
	for _, f := range fields {
		lines = append(lines, cardKeyStyle.Render(f.Key+":")+" "+f.Value)
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}
