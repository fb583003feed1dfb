package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one labeled line of a summary panel.
type Field struct {
	Label string
	Value string
}

// Summary renders a titled panel of label/value lines.
func Summary(title string, fields []Field) string {
	var b strings.Builder
	b.WriteString(Title.Render(title))
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, MetricLabel.Render(f.Label), MetricValue.Render(f.Value)))
	}
	return Panel.Render(b.String())
}
