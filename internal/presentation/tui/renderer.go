package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderFunc turns node text into terminal output.
type RenderFunc func(string) (string, error)

// NewRenderer returns a function that renders markdown using glamour.
// When the renderer cannot be built, text is returned unchanged.
func NewRenderer() RenderFunc {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return Plain
	}
	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return markdown, err
		}
		return strings.Trim(out, "\n"), nil
	}
}

// Plain renders text unchanged.
func Plain(text string) (string, error) { return text, nil }
