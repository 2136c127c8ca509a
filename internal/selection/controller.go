// Package selection owns the loaded dataset and the active subject, and
// recomputes every chart when the selection changes.
package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/palette"
	"github.com/junkd0g/bellybutton/internal/projection"
)

// State is the lifecycle state of a Controller.
type State int

const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotLoaded is returned by operations that need a dataset before Load.
var ErrNotLoaded = errors.New("no dataset loaded")

// Renderer draws the chart slots. Each call replaces the previous content
// of its slot; an Empty payload clears it.
type Renderer interface {
	RenderBar(projection.BarChart) error
	RenderScatter(projection.ScatterChart) error
	RenderSummary(projection.SummaryTable) error
}

// GaugeRenderer is implemented by renderers that also draw the washing
// frequency dial.
type GaugeRenderer interface {
	RenderGauge(projection.Gauge) error
}

// Update is the full projection of one subject.
type Update struct {
	Subject dataset.SubjectKey      `json:"subject"`
	Bar     projection.BarChart     `json:"bar"`
	Scatter projection.ScatterChart `json:"scatter"`
	Summary projection.SummaryTable `json:"summary"`
	Gauge   projection.Gauge        `json:"gauge"`
}

// Controller is the single owner of the session's dataset and selection.
// Load and Select are serialised; a selection is projected and rendered
// as one step, so overlapping calls never interleave and the last one wins.
type Controller struct {
	mu        sync.Mutex
	state     State
	data      *dataset.Dataset
	selected  dataset.SubjectKey
	mapper    *palette.Mapper
	projector *projection.Projector
	last      Update

	renderer Renderer
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for load and selection events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an Unloaded controller that forwards projections to r.
// A nil renderer discards them.
func New(r Renderer, opts ...Option) *Controller {
	if r == nil {
		r = Discard
	}
	c := &Controller{
		renderer: r,
		logger:   slog.Default().With(slog.String("component", "selection")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load installs ds, calibrates the hue scale to its largest OTU id,
// selects the first subject and renders it. A second Load replaces the
// dataset and recalibrates.
func (c *Controller) Load(ds *dataset.Dataset) error {
	if ds == nil {
		return fmt.Errorf("failed to load dataset: %w", errors.New("dataset is nil"))
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	maxID := ds.MaxCategoryID()
	c.data = ds
	c.mapper = palette.NewMapper(maxID)
	c.projector = projection.New(c.mapper)
	c.state = Loaded

	var first dataset.SubjectKey
	if len(ds.Names) > 0 {
		first = ds.Names[0]
	}
	c.logger.Info("dataset loaded",
		slog.Int("subjects", len(ds.Names)),
		slog.Int("samples", len(ds.Samples)),
		slog.Int("max_otu_id", maxID),
		slog.Float64("hue_scale", float64(c.mapper.Scale())),
	)

	_, err := c.selectLocked(first)
	return err
}

// Select makes key the active subject and renders its projections. A key
// with no sample or no metadata renders that facet empty.
func (c *Controller) Select(key dataset.SubjectKey) (Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Loaded {
		return Update{}, ErrNotLoaded
	}
	return c.selectLocked(key)
}

// Project computes the projections of key without changing the selection
// or calling the renderer.
func (c *Controller) Project(key dataset.SubjectKey) (Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Loaded {
		return Update{}, ErrNotLoaded
	}
	return c.project(key)
}

func (c *Controller) selectLocked(key dataset.SubjectKey) (Update, error) {
	u, err := c.project(key)
	if err != nil {
		return Update{}, err
	}
	c.selected = key
	c.last = u

	c.logger.Debug("subject selected",
		slog.String("subject", key.String()),
		slog.Bool("has_sample", !u.Bar.Empty),
		slog.Bool("has_metadata", !u.Summary.Empty),
	)

	if err := c.render(u); err != nil {
		return u, fmt.Errorf("failed to render subject %s: %w", key, err)
	}
	return u, nil
}

func (c *Controller) project(key dataset.SubjectKey) (Update, error) {
	sample, _ := c.data.Sample(key)
	meta, _ := c.data.MetadataFor(key)

	u := Update{Subject: key}
	var err error
	if u.Bar, err = c.projector.Ranked(sample); err != nil {
		return Update{}, fmt.Errorf("failed to project subject %s: %w", key, err)
	}
	if u.Scatter, err = c.projector.Scatter(sample); err != nil {
		return Update{}, fmt.Errorf("failed to project subject %s: %w", key, err)
	}
	u.Summary = c.projector.Summary(meta)
	u.Gauge = c.projector.Gauge(meta)
	return u, nil
}

func (c *Controller) render(u Update) error {
	return Render(c.renderer, u)
}

// Render hands each facet of u to r, joining the failures.
func Render(r Renderer, u Update) error {
	var errs []error
	if err := r.RenderBar(u.Bar); err != nil {
		errs = append(errs, fmt.Errorf("bar: %w", err))
	}
	if err := r.RenderScatter(u.Scatter); err != nil {
		errs = append(errs, fmt.Errorf("scatter: %w", err))
	}
	if err := r.RenderSummary(u.Summary); err != nil {
		errs = append(errs, fmt.Errorf("summary: %w", err))
	}
	if gr, ok := r.(GaugeRenderer); ok {
		if err := gr.RenderGauge(u.Gauge); err != nil {
			errs = append(errs, fmt.Errorf("gauge: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Lineage projects the taxonomy tree of key's top OTUs.
func (c *Controller) Lineage(key dataset.SubjectKey) (projection.Lineage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Loaded {
		return projection.Lineage{}, ErrNotLoaded
	}
	sample, _ := c.data.Sample(key)
	return c.projector.Lineage(sample)
}

// State reports whether a dataset has been loaded.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the active subject key.
func (c *Controller) Selected() dataset.SubjectKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Current returns the projections of the active subject.
func (c *Controller) Current() (Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Loaded {
		return Update{}, ErrNotLoaded
	}
	return c.last, nil
}

// Subjects returns the selectable subject keys in dataset order.
func (c *Controller) Subjects() []dataset.SubjectKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		return nil
	}
	return append([]dataset.SubjectKey(nil), c.data.Names...)
}

// Dataset returns the loaded dataset, or nil before Load.
func (c *Controller) Dataset() *dataset.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Colors returns the colour mapper calibrated on Load, or nil before it.
func (c *Controller) Colors() *palette.Mapper {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapper
}

type discard struct{}

func (discard) RenderBar(projection.BarChart) error         { return nil }
func (discard) RenderScatter(projection.ScatterChart) error { return nil }
func (discard) RenderSummary(projection.SummaryTable) error { return nil }

// Discard is a Renderer that draws nothing.
var Discard Renderer = discard{}
