package components

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/omni-quota/internal/ui/styles"
)

// RenderHistoryChart plots a model's remaining percentage over time on a
// fixed 0..100 scale.
func RenderHistoryChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No history yet")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	// asciigraph needs two points to draw a line
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Caption(caption),
	)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline of percentages.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width < 1 {
		return ""
	}

	// Keep the most recent values that fit
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var result strings.Builder
	for _, v := range values {
		idx := int(v / 100 * float64(len(sparkChars)-1))
		idx = max(0, min(len(sparkChars)-1, idx))
		result.WriteRune(sparkChars[idx])
	}
	return result.String()
}

// RenderHistoryCaption describes the plotted range.
func RenderHistoryCaption(model string, points int) string {
	if points == 1 {
		return fmt.Sprintf("%s (1 sample)", model)
	}
	return fmt.Sprintf("%s (%d samples)", model, points)
}
