package renderer

import (
	"fmt"
	"io"

	"github.com/etnz/pit"
	"github.com/wcharczuk/go-chart/v2"
)

// ChartFormat selects the output of AllocationChart.
type ChartFormat string

const (
	SVG ChartFormat = "svg"
	PNG ChartFormat = "png"
)

// AllocationChart draws the allocation by asset type as a pie chart.
func AllocationChart(w io.Writer, alloc []pit.AllocationSlice, format ChartFormat) error {
	if len(alloc) == 0 {
		return fmt.Errorf("nothing to chart: the portfolio has no value")
	}
	values := make([]chart.Value, 0, len(alloc))
	for _, s := range alloc {
		values = append(values, chart.Value{
			Value: s.Value.Decimal().InexactFloat64(),
			Label: fmt.Sprintf("%s %s", s.Type, s.Percent.Round(1)),
		})
	}
	pie := chart.PieChart{
		Width:  512,
		Height: 512,
		Values: values,
	}

	provider := chart.SVG
	if format == PNG {
		provider = chart.PNG
	}
	if err := pie.Render(provider, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}
