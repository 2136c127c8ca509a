package projection

import (
	"strconv"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	GaugeTitle = "Belly Button Washing Frequency"
	GaugeUnit  = "Scrubs per Week"
	GaugeMax   = 9
)

var (
	gaugeLow  = colorful.Color{R: 0.973, G: 0.953, B: 0.925}
	gaugeHigh = colorful.Color{R: 0.518, G: 0.710, B: 0.537}
)

// GaugeStep is one coloured band of the gauge dial.
type GaugeStep struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// Gauge is the washing frequency dial. HasValue is false when the
// subject's wfreq is unknown; the dial is then drawn without a needle.
type Gauge struct {
	Empty    bool               `json:"empty"`
	Subject  dataset.SubjectKey `json:"subject,omitempty"`
	Title    string             `json:"title"`
	Unit     string             `json:"unit"`
	Value    float64            `json:"value"`
	HasValue bool               `json:"hasValue"`
	Min      float64            `json:"min"`
	Max      float64            `json:"max"`
	Steps    []GaugeStep        `json:"steps"`
}

// Gauge projects the washing frequency of meta onto a 0-9 dial.
func (p *Projector) Gauge(meta *dataset.SubjectMetadata) Gauge {
	g := Gauge{
		Title: GaugeTitle,
		Unit:  GaugeUnit,
		Min:   0,
		Max:   GaugeMax,
		Steps: gaugeSteps(),
	}
	if meta == nil {
		g.Empty = true
		return g
	}
	g.Subject = meta.ID
	if meta.WFreq != nil {
		g.Value = clamp(*meta.WFreq, g.Min, g.Max)
		g.HasValue = true
	}
	return g
}

func gaugeSteps() []GaugeStep {
	steps := make([]GaugeStep, GaugeMax)
	for i := range steps {
		t := float64(i) / float64(GaugeMax-1)
		steps[i] = GaugeStep{
			From:  float64(i),
			To:    float64(i + 1),
			Label: labelFor(i),
			Color: gaugeLow.BlendLab(gaugeHigh, t).Clamped().Hex(),
		}
	}
	return steps
}

func labelFor(i int) string {
	return strconv.Itoa(i) + "-" + strconv.Itoa(i+1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
