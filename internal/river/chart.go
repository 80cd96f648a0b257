package river

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
)

const chartTimeLayout = "2006-01-02 15:04"

// ChartTitle returns the title and value-axis label for a series.
func ChartTitle(station string, position domain.Position, parameter domain.Parameter) (title, valueLabel string) {
	if parameter == domain.ParameterFlow {
		return fmt.Sprintf("%s %s river flow", station, position), "River flow (m3/s)"
	}
	return fmt.Sprintf("%s %s river level", station, position), "River level (m AOD)"
}

// Chart renders the series selected by q as a standalone HTML line chart.
func (s *Service) Chart(ctx context.Context, q MetricQuery, w io.Writer) error {
	series, err := s.Metric(ctx, q)
	if err != nil {
		return err
	}
	return RenderChart(series, w)
}

// RenderChart writes series as an HTML page. Missing values leave gaps.
func RenderChart(series Series, w io.Writer) error {
	title, valueLabel := ChartTitle(series.Station, series.Position, series.Parameter)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: valueLabel}),
	)

	xs := make([]string, 0, len(series.Readings))
	ys := make([]opts.LineData, 0, len(series.Readings))
	for _, r := range series.Readings {
		xs = append(xs, r.DateTime.Format(chartTimeLayout))
		if r.Value == nil {
			ys = append(ys, opts.LineData{Value: nil})
		} else {
			ys = append(ys, opts.LineData{Value: *r.Value})
		}
	}
	line.SetXAxis(xs).AddSeries(valueLabel, ys)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
