package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/muesli/termenv"
)

// Formatter renders snapshots for the interactive play loop.
type Formatter struct {
	Profile termenv.Profile
	Render  RenderFunc
	// Meters holds the graph's meter bounds, used to draw gauges.
	Meters map[string]domain.MeterConfig
}

// NewFormatter creates a formatter for the current terminal.
func NewFormatter(meters map[string]domain.MeterConfig, markdown bool) *Formatter {
	f := &Formatter{Profile: termenv.ColorProfile(), Render: Plain, Meters: meters}
	if markdown {
		f.Render = NewRenderer()
	}
	return f
}

// Header returns the "Title · Act" line.
func (f *Formatter) Header(snap domain.Snapshot) string {
	header := snap.Title
	if snap.ActLabel != "" {
		header += " · " + snap.ActLabel
	}
	return f.Profile.String(header).Bold().String()
}

// Body renders the node text and, for choice nodes, the numbered options.
func (f *Formatter) Body(snap domain.Snapshot) string {
	var sb strings.Builder
	if snap.Text != "" {
		text, err := f.Render(snap.Text)
		if err != nil {
			text = snap.Text
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	for _, c := range snap.Choices {
		num := f.Profile.String(fmt.Sprintf("  [%d]", c.Index+1)).Foreground(f.Profile.Color("#a78bfa"))
		fmt.Fprintf(&sb, "%s %s\n", num, c.Label)
	}
	if snap.Terminal {
		sb.WriteString(f.Profile.String("  (the end)").Faint().String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// MeterLine renders every meter as "label value" with a colour picked from
// the value's position within its bounds.
func (f *Formatter) MeterLine(snap domain.Snapshot) string {
	keys := make([]string, 0, len(snap.Meters))
	for k := range snap.Meters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label := snap.MeterLabels[k]
		if label == "" {
			label = k
		}
		v := snap.Meters[k]
		value := f.Profile.String(formatValue(v)).Foreground(f.Profile.Color(f.colour(k, v)))
		parts = append(parts, fmt.Sprintf("%s %s", label, value))
	}
	return strings.Join(parts, "  ")
}

func (f *Formatter) colour(key string, v float64) string {
	cfg, ok := f.Meters[key]
	if !ok || cfg.Max <= cfg.Min {
		return "#e5e7eb"
	}
	ratio := (v - cfg.Min) / (cfg.Max - cfg.Min)
	switch {
	case ratio < 0.34:
		return "#fb7185"
	case ratio < 0.67:
		return "#facc15"
	default:
		return "#4ade80"
	}
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// Format renders the full snapshot view.
func (f *Formatter) Format(snap domain.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(f.Header(snap))
	sb.WriteString("\n\n")
	sb.WriteString(f.Body(snap))
	if line := f.MeterLine(snap); line != "" {
		sb.WriteString("\n")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
