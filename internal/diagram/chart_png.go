package diagram

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/junkd0g/bellybutton/internal/palette"
	"github.com/junkd0g/bellybutton/internal/projection"
	"github.com/junkd0g/bellybutton/internal/selection"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	// ErrEmptyChart is returned when asked to draw an empty projection.
	ErrEmptyChart = errors.New("chart has no data")
	// ErrUnknownChart is returned for a chart kind other than bar or bubble.
	ErrUnknownChart = errors.New("unknown chart kind")
)

// Chart kinds accepted by GenerateChartPNG.
const (
	ChartBar    = "bar"
	ChartBubble = "bubble"
)

const (
	pngWidth  = 1024
	pngHeight = 600
)

// Slot file names written by FileRenderer.
const (
	BarFile     = "bar.png"
	BubbleFile  = "bubble.png"
	SummaryFile = "summary.txt"
)

func drawingColor(c palette.RGB) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: 255}
}

func chartPadding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// RenderBarPNG draws the ranked bars as a PNG. go-chart only draws
// vertical bars, so the ascending rows run left to right with the
// largest OTU on the right.
func RenderBarPNG(w io.Writer, bar projection.BarChart) error {
	if bar.Empty || len(bar.Rows) == 0 {
		return ErrEmptyChart
	}

	maxValue := 0.0
	bars := make([]chart.Value, 0, len(bar.Rows))
	for _, r := range bar.Rows {
		maxValue = math.Max(maxValue, r.Value)
		col := drawingColor(r.Color)
		bars = append(bars, chart.Value{
			Label: r.Category,
			Value: r.Value,
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		})
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	slotWidth := (pngWidth - 120) / len(bars)
	bc := chart.BarChart{
		Title:      bar.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		BarWidth:   slotWidth * 2 / 3,
		BarSpacing: slotWidth / 3,
		Background: chartPadding(),
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1}},
		Bars:       bars,
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render bar chart: %w", err)
	}
	return nil
}

// RenderScatterPNG draws the bubble chart as a PNG. Dot width follows the
// square root of the measurement so bubble area tracks the value.
func RenderScatterPNG(w io.Writer, scatter projection.ScatterChart) error {
	if scatter.Empty || len(scatter.Points) == 0 {
		return ErrEmptyChart
	}

	xs := make([]float64, len(scatter.Points))
	ys := make([]float64, len(scatter.Points))
	maxX, maxY, maxSize := 0.0, 0.0, 0.0
	for i, p := range scatter.Points {
		xs[i], ys[i] = float64(p.X), p.Y
		maxX = math.Max(maxX, xs[i])
		maxY = math.Max(maxY, p.Y)
		maxSize = math.Max(maxSize, p.Size)
	}
	if maxSize <= 0 {
		maxSize = 1
	}

	points := scatter.Points
	ch := chart.Chart{
		Title:      scatter.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chartPadding(),
		XAxis:      chart.XAxis{Name: scatter.XAxisTitle, Range: &chart.ContinuousRange{Min: 0, Max: maxX*1.05 + 1}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: maxY*1.1 + 1}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    scatter.Subject.String(),
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
						return 2 + 28*math.Sqrt(points[index].Size/maxSize)
					},
					DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
						return drawingColor(points[index].Color).WithAlpha(192)
					},
				},
			},
		},
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render bubble chart: %w", err)
	}
	return nil
}

// GenerateChartPNG renders the kind chart of u and saves it to outputPath.
func GenerateChartPNG(u selection.Update, kind, outputPath string) error {
	var buf bytes.Buffer
	var err error
	switch kind {
	case ChartBar:
		err = RenderBarPNG(&buf, u.Bar)
	case ChartBubble:
		err = RenderScatterPNG(&buf, u.Scatter)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
	if err != nil {
		return err
	}

	if err := writeFileBytes(outputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

// FileRenderer draws each chart slot to a fixed file in Dir. Every render
// overwrites its slot file; an empty projection removes it.
type FileRenderer struct {
	Dir string
}

func (f *FileRenderer) RenderBar(bar projection.BarChart) error {
	if bar.Empty || len(bar.Rows) == 0 {
		return f.clear(BarFile)
	}
	var buf bytes.Buffer
	if err := RenderBarPNG(&buf, bar); err != nil {
		return err
	}
	return writeFileBytes(filepath.Join(f.Dir, BarFile), buf.Bytes())
}

func (f *FileRenderer) RenderScatter(scatter projection.ScatterChart) error {
	if scatter.Empty || len(scatter.Points) == 0 {
		return f.clear(BubbleFile)
	}
	var buf bytes.Buffer
	if err := RenderScatterPNG(&buf, scatter); err != nil {
		return err
	}
	return writeFileBytes(filepath.Join(f.Dir, BubbleFile), buf.Bytes())
}

func (f *FileRenderer) RenderSummary(table projection.SummaryTable) error {
	if table.Empty {
		return f.clear(SummaryFile)
	}
	return writeFileBytes(filepath.Join(f.Dir, SummaryFile), []byte(strings.Join(table.Rows, "\n")+"\n"))
}

func (f *FileRenderer) clear(name string) error {
	err := os.Remove(filepath.Join(f.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
