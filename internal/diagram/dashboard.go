package diagram

import (
	"sync"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/projection"
	"github.com/junkd0g/bellybutton/internal/selection"
)

// Dashboard is a Renderer that keeps the latest payload of every slot.
// Each render replaces its slot; an empty payload is kept as the cleared
// slot.
type Dashboard struct {
	mu      sync.RWMutex
	current selection.Update
	renders int
}

func NewDashboard() *Dashboard {
	return &Dashboard{}
}

func (d *Dashboard) RenderBar(bar projection.BarChart) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current.Bar = bar
	d.renders++
	return nil
}

func (d *Dashboard) RenderScatter(scatter projection.ScatterChart) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current.Scatter = scatter
	d.renders++
	return nil
}

func (d *Dashboard) RenderSummary(table projection.SummaryTable) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current.Summary = table
	d.renders++
	return nil
}

func (d *Dashboard) RenderGauge(g projection.Gauge) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current.Gauge = g
	d.renders++
	return nil
}

// Snapshot returns what the slots currently show. Subject is taken from
// the first non-empty slot and is blank when every slot is cleared.
func (d *Dashboard) Snapshot() selection.Update {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u := d.current
	for _, s := range []dataset.SubjectKey{u.Bar.Subject, u.Scatter.Subject, u.Summary.Subject, u.Gauge.Subject} {
		if s != "" {
			u.Subject = s
			break
		}
	}
	return u
}

// Renders counts slot renders since creation.
func (d *Dashboard) Renders() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.renders
}
