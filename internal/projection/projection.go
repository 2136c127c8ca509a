// Package projection turns subject records into render-ready chart payloads.
//
// Every projection accepts a nil record and then returns a payload with
// Empty set: the selected subject has no data for that facet. Renderers
// draw an empty payload as a cleared slot.
package projection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/palette"
	"github.com/junkd0g/bellybutton/internal/ranking"
)

const (
	// LineBreak replaces the taxonomy delimiter in hover text.
	LineBreak = "<br>"
	// TaxonomyDelimiter separates ranks in an OTU label.
	TaxonomyDelimiter = ";"

	BarTitle = "Top 10 OTUs Found"
)

// Colorer maps an OTU id to a colour.
type Colorer interface {
	ColorFor(id int) palette.RGB
}

// BarRow is one horizontal bar.
type BarRow struct {
	ID        int         `json:"id"`
	Value     float64     `json:"x"`
	Category  string      `json:"y"`
	HoverText string      `json:"text"`
	Color     palette.RGB `json:"color"`
}

// BarChart is the ranked top-10 view. Rows are ascending by value so a
// top-to-bottom renderer places the largest bar at the top.
type BarChart struct {
	Empty       bool               `json:"empty"`
	Subject     dataset.SubjectKey `json:"subject,omitempty"`
	Title       string             `json:"title"`
	Orientation string             `json:"orientation"`
	Rows        []BarRow           `json:"rows"`
}

// ScatterPoint is one bubble.
type ScatterPoint struct {
	X         int         `json:"x"`
	Y         float64     `json:"y"`
	Size      float64     `json:"size"`
	Color     palette.RGB `json:"color"`
	HoverText string      `json:"text"`
}

// ScatterChart holds every OTU of a subject, untruncated, in source order.
type ScatterChart struct {
	Empty      bool               `json:"empty"`
	Subject    dataset.SubjectKey `json:"subject,omitempty"`
	Title      string             `json:"title"`
	XAxisTitle string             `json:"xAxisTitle"`
	Points     []ScatterPoint     `json:"points"`
}

// SummaryTable is the metadata panel as "field: value" lines.
type SummaryTable struct {
	Empty   bool               `json:"empty"`
	Subject dataset.SubjectKey `json:"subject,omitempty"`
	Rows    []string           `json:"rows"`
}

// Projector builds chart payloads using a fixed colour mapping.
type Projector struct {
	colors Colorer
}

// New returns a Projector.
func New(colors Colorer) *Projector {
	return &Projector{colors: colors}
}

// Ranked projects the top-10 OTUs of sample into horizontal bars.
func (p *Projector) Ranked(sample *dataset.SubjectSample) (BarChart, error) {
	chart := BarChart{Title: BarTitle, Orientation: "h", Rows: []BarRow{}}
	if sample == nil {
		chart.Empty = true
		return chart, nil
	}
	chart.Subject = sample.ID

	top, err := ranking.TopK(sample, ranking.BarK)
	if err != nil {
		return BarChart{}, err
	}
	for _, e := range top {
		chart.Rows = append(chart.Rows, BarRow{
			ID:        e.ID,
			Value:     e.Value,
			Category:  fmt.Sprintf("OTU %d", e.ID),
			HoverText: HoverText(e.Label),
			Color:     p.colors.ColorFor(e.ID),
		})
	}
	return chart, nil
}

// Scatter projects every OTU of sample into a bubble chart.
func (p *Projector) Scatter(sample *dataset.SubjectSample) (ScatterChart, error) {
	chart := ScatterChart{XAxisTitle: "OTU ID", Points: []ScatterPoint{}}
	if sample == nil {
		chart.Empty = true
		return chart, nil
	}
	chart.Subject = sample.ID
	chart.Title = ScatterTitle(sample.ID)

	entries, err := ranking.Zip(sample)
	if err != nil {
		return ScatterChart{}, err
	}
	for _, e := range entries {
		chart.Points = append(chart.Points, ScatterPoint{
			X:         e.ID,
			Y:         e.Value,
			Size:      e.Value,
			Color:     p.colors.ColorFor(e.ID),
			HoverText: HoverText(e.Label),
		})
	}
	return chart, nil
}

// Summary lists the metadata fields in their fixed display order.
func (p *Projector) Summary(meta *dataset.SubjectMetadata) SummaryTable {
	if meta == nil {
		return SummaryTable{Empty: true, Rows: []string{}}
	}
	return SummaryTable{
		Subject: meta.ID,
		Rows: []string{
			"id: " + meta.ID.String(),
			"ethnicity: " + meta.Ethnicity,
			"gender: " + meta.Gender,
			"age: " + formatNumber(meta.Age),
			"location: " + meta.Location,
			"bbtype: " + meta.BBType,
			"wfreq: " + formatNumber(meta.WFreq),
		},
	}
}

// ScatterTitle is the bubble chart caption for a subject.
func ScatterTitle(key dataset.SubjectKey) string {
	return "All Samples for Test Subject ID No. " + key.String()
}

// HoverText renders a taxonomy path one rank per line.
func HoverText(label string) string {
	return strings.ReplaceAll(label, TaxonomyDelimiter, LineBreak)
}

func formatNumber(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
