package selection

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/palette"
	"github.com/junkd0g/bellybutton/internal/projection"
)

type recorder struct {
	mu       sync.Mutex
	bars     []projection.BarChart
	scatters []projection.ScatterChart
	tables   []projection.SummaryTable
	gauges   []projection.Gauge
	failBar  error
}

func (r *recorder) RenderBar(b projection.BarChart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bars = append(r.bars, b)
	return r.failBar
}

func (r *recorder) RenderScatter(s projection.ScatterChart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scatters = append(r.scatters, s)
	return nil
}

func (r *recorder) RenderSummary(s projection.SummaryTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, s)
	return nil
}

func (r *recorder) RenderGauge(g projection.Gauge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges = append(r.gauges, g)
	return nil
}

func wfreq(v float64) *float64 { return &v }

// fixture has a sample-only subject (941), a metadata-only subject (942)
// and a subject with both (940). The largest id lives in 941.
func fixture() *dataset.Dataset {
	return &dataset.Dataset{
		Names: []dataset.SubjectKey{"940", "941", "942", "943"},
		Samples: []dataset.SubjectSample{
			{ID: "940", OTUIDs: []int{1, 50}, OTULabels: []string{"Bacteria", "Bacteria;Firmicutes"}, SampleValues: []float64{10, 20}},
			{ID: "941", OTUIDs: []int{99, 3}, OTULabels: []string{"Archaea", "Bacteria"}, SampleValues: []float64{5, 1}},
		},
		Metadata: []dataset.SubjectMetadata{
			{ID: "940", Ethnicity: "Caucasian", Gender: "F", WFreq: wfreq(2)},
			{ID: "942", Ethnicity: "Asian", Gender: "M"},
		},
	}
}

func TestSelectBeforeLoad(t *testing.T) {
	c := New(&recorder{})
	if c.State() != Unloaded {
		t.Fatalf("expected Unloaded, got %s", c.State())
	}
	if _, err := c.Select("940"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := c.Project("940"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if c.Subjects() != nil {
		t.Fatal("expected no subjects before load")
	}
}

func TestLoadSelectsFirstSubjectAndCalibrates(t *testing.T) {
	r := &recorder{}
	c := New(r)
	if err := c.Load(fixture()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.State() != Loaded || c.Selected() != "940" {
		t.Fatalf("state=%s selected=%s", c.State(), c.Selected())
	}
	if got, want := c.Colors().Scale(), palette.ScaleFor(99); got != want {
		t.Fatalf("hue scale = %v, want %v from global max id", got, want)
	}
	if len(r.bars) != 1 || len(r.scatters) != 1 || len(r.tables) != 1 || len(r.gauges) != 1 {
		t.Fatalf("expected one render per slot, got %d/%d/%d/%d",
			len(r.bars), len(r.scatters), len(r.tables), len(r.gauges))
	}
	if r.bars[0].Empty || r.tables[0].Empty {
		t.Fatal("expected populated projections for 940")
	}
}

func TestSelectFacetsAreIndependent(t *testing.T) {
	r := &recorder{}
	c := New(r)
	if err := c.Load(fixture()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	u, err := c.Select("941")
	if err != nil {
		t.Fatalf("Select(941): %v", err)
	}
	if u.Bar.Empty || u.Scatter.Empty {
		t.Fatal("expected sample charts for 941")
	}
	if !u.Summary.Empty || !u.Gauge.Empty {
		t.Fatal("expected empty summary and gauge for 941")
	}

	u, err = c.Select("942")
	if err != nil {
		t.Fatalf("Select(942): %v", err)
	}
	if !u.Bar.Empty || !u.Scatter.Empty {
		t.Fatal("expected empty sample charts for 942")
	}
	if u.Summary.Empty {
		t.Fatal("expected summary for 942")
	}

	u, err = c.Select("943")
	if err != nil {
		t.Fatalf("Select(943): %v", err)
	}
	if !u.Bar.Empty || !u.Summary.Empty {
		t.Fatal("expected every facet empty for 943")
	}

	// The renderer sees every facet on every selection, empty or not.
	if len(r.bars) != 4 || len(r.tables) != 4 {
		t.Fatalf("expected 4 renders per slot, got %d bars, %d tables", len(r.bars), len(r.tables))
	}
	if !r.bars[2].Empty || r.tables[2].Empty {
		t.Fatal("renderer did not receive the 942 projections")
	}
}

func TestProjectDoesNotMutateSelection(t *testing.T) {
	r := &recorder{}
	c := New(r)
	if err := c.Load(fixture()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	u, err := c.Project("941")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if u.Subject != "941" {
		t.Fatalf("unexpected subject %s", u.Subject)
	}
	if c.Selected() != "940" || len(r.bars) != 1 {
		t.Fatal("Project changed selection or rendered")
	}

	again, _ := c.Project("941")
	if !reflect.DeepEqual(u, again) {
		t.Fatal("Project not idempotent")
	}
}

func TestLoadRejectsInvalidDataset(t *testing.T) {
	c := New(nil)
	if err := c.Load(nil); err == nil {
		t.Fatal("expected error for nil dataset")
	}

	bad := fixture()
	bad.Samples[0].OTULabels = nil
	if err := c.Load(bad); !errors.Is(err, dataset.ErrInvalidDataset) {
		t.Fatalf("expected ErrInvalidDataset, got %v", err)
	}
	if c.State() != Unloaded {
		t.Fatal("failed load must leave controller unloaded")
	}
}

func TestRenderErrorsSurface(t *testing.T) {
	r := &recorder{failBar: fmt.Errorf("slot gone")}
	c := New(r)
	err := c.Load(fixture())
	if err == nil {
		t.Fatal("expected render error")
	}
	// Remaining slots are still drawn.
	if len(r.scatters) != 1 || len(r.tables) != 1 {
		t.Fatal("expected other slots to render despite bar failure")
	}
	if c.Selected() != "940" {
		t.Fatal("selection should still be applied")
	}
}

func TestConcurrentSelectionsDoNotInterleave(t *testing.T) {
	r := &recorder{}
	c := New(r)
	if err := c.Load(fixture()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	keys := []dataset.SubjectKey{"940", "941", "942", "943"}
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(k dataset.SubjectKey) {
			defer wg.Done()
			if _, err := c.Select(k); err != nil {
				t.Errorf("Select(%s): %v", k, err)
			}
		}(keys[i%len(keys)])
	}
	wg.Wait()

	// Every bar must be followed by the table of the same subject.
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bars {
		bar, table := r.bars[i], r.tables[i]
		if !bar.Empty && !table.Empty && bar.Subject != table.Subject {
			t.Fatalf("render %d mixes subjects %s and %s", i, bar.Subject, table.Subject)
		}
	}

	cur, err := c.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.Subject != c.Selected() {
		t.Fatalf("current projection %s does not match selection %s", cur.Subject, c.Selected())
	}
}

func TestLineageRequiresLoad(t *testing.T) {
	c := New(nil)
	if _, err := c.Lineage("940"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := c.Load(fixture()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	l, err := c.Lineage("940")
	if err != nil || l.Empty {
		t.Fatalf("Lineage(940) = %+v, %v", l, err)
	}
	if l, _ := c.Lineage("942"); !l.Empty {
		t.Fatal("expected empty lineage for metadata-only subject")
	}
}
