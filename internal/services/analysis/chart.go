package analysis

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/folio/internal/indicators"
	"github.com/bobmcallan/folio/internal/models"
)

// RenderAssetChart renders a PNG line chart of an asset's closing prices with
// an SMA20 overlay. Returns raw PNG bytes.
func (s *Service) RenderAssetChart(ctx context.Context, symbol string, assetType models.AssetType) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	series, err := s.cache.Get(ctx, models.SeriesKey{
		Symbol:   symbol,
		Type:     assetType,
		Period:   IndicatorPeriod,
		Interval: DefaultInterval,
	})
	if err != nil {
		return nil, err
	}

	if len(series.Points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points for %s, got %d", symbol, len(series.Points))
	}

	xValues := make([]time.Time, len(series.Points))
	closeY := make([]float64, len(series.Points))
	for i, p := range series.Points {
		xValues[i] = p.Date
		closeY[i] = p.Close
	}

	closeSeries := chart.TimeSeries{
		Name: symbol,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: closeY,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Close", symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{closeSeries},
	}

	// SMA20 overlay — only for the span where the window is full.
	if smaX, smaY := smaOverlay(xValues, closeY, indicators.SMAShortPeriod); len(smaY) > 1 {
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name: fmt.Sprintf("SMA%d", indicators.SMAShortPeriod),
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: smaX,
			YValues: smaY,
		})
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// smaOverlay computes the rolling SMA values aligned to their dates.
func smaOverlay(dates []time.Time, closes []float64, period int) ([]time.Time, []float64) {
	if len(closes) < period {
		return nil, nil
	}

	x := make([]time.Time, 0, len(closes)-period+1)
	y := make([]float64, 0, len(closes)-period+1)
	for i := period; i <= len(closes); i++ {
		if v := indicators.SMA(closes[:i], period); v != nil {
			x = append(x, dates[i-1])
			y = append(y, *v)
		}
	}
	return x, y
}
