package projection

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/palette"
	"github.com/junkd0g/bellybutton/internal/ranking"
)

func float(v float64) *float64 { return &v }

func testSample() *dataset.SubjectSample {
	return &dataset.SubjectSample{
		ID:     "940",
		OTUIDs: []int{1167, 2859, 482, 2264, 41, 1189, 352, 189, 2318, 1977, 3450, 2722},
		OTULabels: []string{
			"Bacteria;Bacteroidetes;Bacteroidia;Bacteroidales;Porphyromonadaceae;Porphyromonas",
			"Bacteria;Firmicutes;Clostridia;Clostridiales;IncertaeSedisXI;Peptoniphilus",
			"Bacteria",
			"Bacteria;Firmicutes;Clostridia;Clostridiales;IncertaeSedisXI",
			"Bacteria",
			"Bacteria;Bacteroidetes;Bacteroidia;Bacteroidales;Porphyromonadaceae;Porphyromonas",
			"Bacteria",
			"Bacteria",
			"Bacteria;Firmicutes;Clostridia;Clostridiales;IncertaeSedisXI;Peptoniphilus",
			"Bacteria;Firmicutes;Clostridia;Clostridiales;IncertaeSedisXI;Anaerococcus",
			"Bacteria;Proteobacteria",
			"Bacteria;Firmicutes",
		},
		SampleValues: []float64{163, 126, 113, 78, 71, 51, 50, 47, 40, 40, 2, 1},
	}
}

func testMetadata() *dataset.SubjectMetadata {
	return &dataset.SubjectMetadata{
		ID:        "940",
		Ethnicity: "Caucasian",
		Gender:    "F",
		Age:       float(24),
		Location:  "Beaufort/NC",
		BBType:    "I",
		WFreq:     float(2),
	}
}

func newProjector() *Projector {
	return New(palette.NewMapper(3663))
}

func TestRanked(t *testing.T) {
	p := newProjector()
	chart, err := p.Ranked(testSample())
	if err != nil {
		t.Fatalf("Ranked: %v", err)
	}
	if chart.Empty {
		t.Fatal("expected non-empty chart")
	}
	if chart.Title != BarTitle || chart.Orientation != "h" {
		t.Fatalf("unexpected header: %+v", chart)
	}
	if len(chart.Rows) != ranking.BarK {
		t.Fatalf("expected %d rows, got %d", ranking.BarK, len(chart.Rows))
	}

	top := chart.Rows[len(chart.Rows)-1]
	if top.Category != "OTU 1167" || top.Value != 163 {
		t.Fatalf("expected OTU 1167 on top, got %+v", top)
	}
	if !strings.Contains(top.HoverText, "Bacteria<br>Bacteroidetes") || strings.Contains(top.HoverText, ";") {
		t.Fatalf("unexpected hover text %q", top.HoverText)
	}
	if top.Color != palette.NewMapper(3663).ColorFor(1167) {
		t.Fatalf("unexpected colour %v", top.Color)
	}
}

func TestScatterKeepsEveryPoint(t *testing.T) {
	p := newProjector()
	sample := testSample()
	chart, err := p.Scatter(sample)
	if err != nil {
		t.Fatalf("Scatter: %v", err)
	}
	if len(chart.Points) != len(sample.OTUIDs) {
		t.Fatalf("expected %d points, got %d", len(sample.OTUIDs), len(chart.Points))
	}
	if chart.Title != "All Samples for Test Subject ID No. 940" {
		t.Fatalf("unexpected title %q", chart.Title)
	}
	for i, pt := range chart.Points {
		if pt.X != sample.OTUIDs[i] || pt.Y != sample.SampleValues[i] || pt.Size != sample.SampleValues[i] {
			t.Fatalf("point %d misaligned: %+v", i, pt)
		}
	}
}

func TestSummaryFieldOrder(t *testing.T) {
	p := newProjector()
	got := p.Summary(testMetadata())
	want := []string{
		"id: 940",
		"ethnicity: Caucasian",
		"gender: F",
		"age: 24",
		"location: Beaufort/NC",
		"bbtype: I",
		"wfreq: 2",
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("Summary rows = %v, want %v", got.Rows, want)
	}

	meta := testMetadata()
	meta.WFreq = nil
	if rows := p.Summary(meta).Rows; rows[6] != "wfreq: null" {
		t.Fatalf("expected null wfreq, got %q", rows[6])
	}
}

func TestNilInputsProduceEmptyProjections(t *testing.T) {
	p := newProjector()

	bar, err := p.Ranked(nil)
	if err != nil || !bar.Empty || len(bar.Rows) != 0 {
		t.Fatalf("Ranked(nil) = %+v, %v", bar, err)
	}
	scatter, err := p.Scatter(nil)
	if err != nil || !scatter.Empty || len(scatter.Points) != 0 {
		t.Fatalf("Scatter(nil) = %+v, %v", scatter, err)
	}
	if s := p.Summary(nil); !s.Empty || len(s.Rows) != 0 {
		t.Fatalf("Summary(nil) = %+v", s)
	}
	if g := p.Gauge(nil); !g.Empty {
		t.Fatalf("Gauge(nil) = %+v", g)
	}
	if l, err := p.Lineage(nil); err != nil || !l.Empty {
		t.Fatalf("Lineage(nil) = %+v, %v", l, err)
	}
}

func TestMalformedSampleFails(t *testing.T) {
	p := newProjector()
	bad := testSample()
	bad.SampleValues = bad.SampleValues[:3]

	if _, err := p.Ranked(bad); !errors.Is(err, ranking.ErrMalformedSample) {
		t.Fatalf("Ranked: expected ErrMalformedSample, got %v", err)
	}
	if _, err := p.Scatter(bad); !errors.Is(err, ranking.ErrMalformedSample) {
		t.Fatalf("Scatter: expected ErrMalformedSample, got %v", err)
	}
}

func TestProjectionIsIdempotent(t *testing.T) {
	p := newProjector()
	sample := testSample()

	a, _ := p.Ranked(sample)
	b, _ := p.Ranked(sample)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("Ranked not idempotent")
	}
	c, _ := p.Scatter(sample)
	d, _ := p.Scatter(sample)
	if !reflect.DeepEqual(c, d) {
		t.Fatal("Scatter not idempotent")
	}
}

func TestGauge(t *testing.T) {
	p := newProjector()
	g := p.Gauge(testMetadata())
	if g.Empty || !g.HasValue || g.Value != 2 {
		t.Fatalf("unexpected gauge %+v", g)
	}
	if len(g.Steps) != GaugeMax || g.Steps[0].Label != "0-1" || g.Steps[8].Label != "8-9" {
		t.Fatalf("unexpected steps %+v", g.Steps)
	}
	if g.Steps[0].Color == g.Steps[8].Color {
		t.Fatal("expected graded step colours")
	}

	meta := testMetadata()
	meta.WFreq = float(12)
	if g := p.Gauge(meta); g.Value != GaugeMax {
		t.Fatalf("expected clamp to %d, got %v", GaugeMax, g.Value)
	}
	meta.WFreq = nil
	if g := p.Gauge(meta); g.HasValue {
		t.Fatal("expected no needle for unknown wfreq")
	}
}

func TestLineage(t *testing.T) {
	p := newProjector()
	l, err := p.Lineage(testSample())
	if err != nil {
		t.Fatalf("Lineage: %v", err)
	}
	if l.Root == nil || l.Root.Name != "Subject 940" {
		t.Fatalf("unexpected root %+v", l.Root)
	}
	// Top 10 drops the two smallest values (2 and 1).
	if l.Root.Value != 779 {
		t.Fatalf("root value = %v, want 779", l.Root.Value)
	}
	if len(l.Root.Children) != 1 || l.Root.Children[0].Name != "Bacteria" {
		t.Fatalf("expected single Bacteria kingdom, got %+v", l.Root.Children)
	}

	bacteria := l.Root.Children[0]
	// 482, 41, 352, 189 are labelled just "Bacteria".
	if !reflect.DeepEqual(bacteria.OTUIDs, []int{482, 41, 352, 189}) {
		t.Fatalf("unexpected kingdom otus %v", bacteria.OTUIDs)
	}
	if bacteria.Children[0].Name != "Bacteroidetes" {
		t.Fatalf("expected heaviest phylum first, got %s", bacteria.Children[0].Name)
	}

	var nodes, leaves int
	l.Root.Walk(func(parent, node *LineageNode) {
		nodes++
		if parent != nil && !strings.HasPrefix(node.Path, parent.Path) {
			t.Errorf("path %q not under %q", node.Path, parent.Path)
		}
		if len(node.OTUIDs) > 0 {
			leaves++
			if node.Color == nil {
				t.Errorf("node %q carries otus but no colour", node.Path)
			}
		}
	})
	if nodes < 8 || leaves != 5 {
		t.Fatalf("unexpected tree shape: %d nodes, %d otu-bearing", nodes, leaves)
	}
}
