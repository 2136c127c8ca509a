package diagram

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/selection"
)

// WidgetType defines available dashboard widgets.
type WidgetType string

const (
	WidgetSubjectSelect WidgetType = "subject_select"
	WidgetStatsCards    WidgetType = "stats_cards"
	WidgetSummary       WidgetType = "summary"
	WidgetRankedBar     WidgetType = "ranked_bar"
	WidgetGauge         WidgetType = "gauge"
	WidgetBubble        WidgetType = "bubble"
)

// HTMLConfig configures what to include in the dashboard page.
type HTMLConfig struct {
	Title       string
	Description string
	Widgets     []WidgetType
	Theme       string // "dark" or "light"
}

// DefaultConfig returns a full-featured default configuration.
func DefaultConfig() HTMLConfig {
	return HTMLConfig{
		Title:       "Belly Button Biodiversity",
		Description: "Select a test subject to explore the microbes found in their navel",
		Theme:       "light",
		Widgets: []WidgetType{
			WidgetSubjectSelect,
			WidgetStatsCards,
			WidgetSummary,
			WidgetRankedBar,
			WidgetGauge,
			WidgetBubble,
		},
	}
}

// Source is what the dashboard reads subjects and projections from.
// *selection.Controller implements it.
type Source interface {
	Subjects() []dataset.SubjectKey
	Selected() dataset.SubjectKey
	Project(key dataset.SubjectKey) (selection.Update, error)
}

// HTMLBuilder builds the dashboard page.
type HTMLBuilder struct {
	src    Source
	config HTMLConfig
	data   *ReportData
}

// ReportData is embedded into the page as JSON. Every subject is
// projected up front so the page switches subjects without a server.
type ReportData struct {
	Subjects []string                    `json:"subjects"`
	Selected string                      `json:"selected"`
	Updates  map[string]selection.Update `json:"updates"`
	Stats    StatsData                   `json:"stats"`
}

type StatsData struct {
	TotalSubjects int `json:"totalSubjects"`
	WithSamples   int `json:"withSamples"`
	WithMetadata  int `json:"withMetadata"`
	DistinctOTUs  int `json:"distinctOtus"`
}

// GenerateHTML writes the dashboard for every subject of src to outputPath.
func GenerateHTML(src Source, outputPath string, config HTMLConfig) error {
	var sb strings.Builder
	if err := RenderHTML(src, &sb, config); err != nil {
		return err
	}

	if err := writeFileBytes(outputPath, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	return nil
}

// RenderHTML writes the dashboard page to w.
func RenderHTML(src Source, w io.Writer, config HTMLConfig) error {
	builder := &HTMLBuilder{
		src:    src,
		config: config,
	}

	data, err := builder.buildReportData()
	if err != nil {
		return err
	}
	builder.data = data

	page, err := builder.render()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, page); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}
	return nil
}

func (b *HTMLBuilder) buildReportData() (*ReportData, error) {
	keys := b.src.Subjects()
	data := &ReportData{
		Subjects: make([]string, 0, len(keys)),
		Selected: b.src.Selected().String(),
		Updates:  make(map[string]selection.Update, len(keys)),
	}

	for _, key := range keys {
		u, err := b.src.Project(key)
		if err != nil {
			return nil, fmt.Errorf("failed to project subject %s: %w", key, err)
		}
		data.Subjects = append(data.Subjects, key.String())
		data.Updates[key.String()] = u
	}
	if data.Selected == "" && len(data.Subjects) > 0 {
		data.Selected = data.Subjects[0]
	}

	data.Stats = b.buildStatsData(data.Updates)
	return data, nil
}

func (b *HTMLBuilder) buildStatsData(updates map[string]selection.Update) StatsData {
	stats := StatsData{TotalSubjects: len(updates)}

	otus := make(map[int]bool)
	for _, u := range updates {
		if !u.Scatter.Empty {
			stats.WithSamples++
		}
		if !u.Summary.Empty {
			stats.WithMetadata++
		}
		for _, p := range u.Scatter.Points {
			otus[p.X] = true
		}
	}
	stats.DistinctOTUs = len(otus)

	return stats
}

func (b *HTMLBuilder) render() (string, error) {
	scripts, err := b.renderScripts()
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString(b.renderHead())
	sb.WriteString(`<body><div class="container">`)
	sb.WriteString(b.renderHeader())

	for _, widget := range b.config.Widgets {
		sb.WriteString(b.renderWidget(widget))
	}

	sb.WriteString(b.renderFooter())
	sb.WriteString(`</div>`)
	sb.WriteString(scripts)
	sb.WriteString(`</body></html>`)

	return sb.String(), nil
}

func (b *HTMLBuilder) renderHead() string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <script src="https://cdn.jsdelivr.net/npm/echarts@5.4.3/dist/echarts.min.js"></script>
    <style>%s</style>
</head>`, html.EscapeString(b.config.Title), b.getThemeCSS())
}

func (b *HTMLBuilder) getThemeCSS() string {
	if b.config.Theme == "dark" {
		return darkThemeCSS
	}
	return lightThemeCSS
}

func (b *HTMLBuilder) renderHeader() string {
	return fmt.Sprintf(`
<header>
    <h1>%s</h1>
    <p>%s</p>
</header>`, html.EscapeString(b.config.Title), html.EscapeString(b.config.Description))
}

func (b *HTMLBuilder) renderFooter() string {
	return `<footer><p>Generated by bellybutton</p></footer>`
}

func (b *HTMLBuilder) renderWidget(widget WidgetType) string {
	switch widget {
	case WidgetSubjectSelect:
		return b.renderSubjectSelect()
	case WidgetStatsCards:
		return b.renderStatsCards()
	case WidgetSummary:
		return `
<div class="widget table-box third">
    <h3>Demographic Info</h3>
    <div id="sample-metadata" class="summary"></div>
</div>`
	case WidgetRankedBar:
		return `
<div class="widget chart-box third">
    <h3>Top 10 OTUs</h3>
    <div id="bar" class="chart"></div>
</div>`
	case WidgetGauge:
		return `
<div class="widget chart-box third">
    <h3>Washing Frequency</h3>
    <div id="gauge" class="chart"></div>
</div>`
	case WidgetBubble:
		return `
<div class="widget chart-box">
    <h3>All OTUs</h3>
    <div id="bubble" class="chart-large"></div>
</div>`
	default:
		return ""
	}
}

func (b *HTMLBuilder) renderSubjectSelect() string {
	var opts strings.Builder
	for _, key := range b.data.Subjects {
		selected := ""
		if key == b.data.Selected {
			selected = " selected"
		}
		escaped := html.EscapeString(key)
		opts.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`, escaped, selected, escaped))
	}
	return fmt.Sprintf(`
<div class="widget select-box">
    <label for="selDataset">Test Subject ID No.</label>
    <select id="selDataset">%s</select>
</div>`, opts.String())
}

func (b *HTMLBuilder) renderStatsCards() string {
	return fmt.Sprintf(`
<div class="widget stats-grid">
    <div class="stat-card">
        <div class="number">%d</div>
        <div class="label">Subjects</div>
    </div>
    <div class="stat-card">
        <div class="number">%d</div>
        <div class="label">With Samples</div>
    </div>
    <div class="stat-card">
        <div class="number">%d</div>
        <div class="label">With Metadata</div>
    </div>
    <div class="stat-card">
        <div class="number">%d</div>
        <div class="label">Distinct OTUs</div>
    </div>
</div>`,
		b.data.Stats.TotalSubjects,
		b.data.Stats.WithSamples,
		b.data.Stats.WithMetadata,
		b.data.Stats.DistinctOTUs)
}

func (b *HTMLBuilder) renderScripts() (string, error) {
	dataJSON, err := json.Marshal(b.data)
	if err != nil {
		return "", fmt.Errorf("failed to encode report data: %w", err)
	}

	var renders strings.Builder
	for _, widget := range b.config.Widgets {
		switch widget {
		case WidgetSummary:
			renders.WriteString(summaryScript)
		case WidgetRankedBar:
			renders.WriteString(rankedBarScript)
		case WidgetGauge:
			renders.WriteString(gaugeScript)
		case WidgetBubble:
			renders.WriteString(bubbleScript)
		}
	}

	return fmt.Sprintf(`
<script>
const data = %s;
const charts = {};
function slot(id) {
    const el = document.getElementById(id);
    if (!el) return null;
    if (!charts[id]) charts[id] = echarts.init(el);
    return charts[id];
}
const renderers = [];
%s
function optionChanged(key) {
    const update = data.updates[key];
    if (!update) return;
    renderers.forEach(r => r(update));
}
const select = document.getElementById('selDataset');
if (select) select.addEventListener('change', e => optionChanged(e.target.value));
optionChanged(select ? select.value : data.selected);
window.addEventListener('resize', () => Object.values(charts).forEach(c => c.resize()));
</script>`, string(dataJSON), renders.String()), nil
}

// Chart scripts. Each replaces its slot on every call (setOption with
// notMerge) and clears the slot for an empty projection.
const summaryScript = `
renderers.push(function(update) {
    const el = document.getElementById('sample-metadata');
    if (!el) return;
    el.textContent = '';
    if (update.summary.empty) return;
    update.summary.rows.forEach(row => {
        const line = document.createElement('div');
        line.textContent = row;
        el.appendChild(line);
    });
});
`

const rankedBarScript = `
renderers.push(function(update) {
    const chart = slot('bar');
    if (!chart) return;
    if (update.bar.empty) { chart.clear(); return; }
    const rows = update.bar.rows;
    chart.setOption({
        title: { text: update.bar.title, left: 'center', textStyle: { fontSize: 14 } },
        tooltip: { trigger: 'item', formatter: p => rows[p.dataIndex].text },
        grid: { left: '3%', right: '4%', bottom: '3%', top: 40, containLabel: true },
        xAxis: { type: 'value' },
        yAxis: { type: 'category', data: rows.map(r => r.y) },
        series: [{ type: 'bar', data: rows.map(r => ({ value: r.x, itemStyle: { color: r.color } })), barWidth: '60%', itemStyle: { borderRadius: [0, 4, 4, 0] } }]
    }, true);
});
`

const gaugeScript = `
renderers.push(function(update) {
    const chart = slot('gauge');
    if (!chart) return;
    const g = update.gauge;
    if (g.empty) { chart.clear(); return; }
    chart.setOption({
        title: { text: g.title, subtext: g.unit, left: 'center', textStyle: { fontSize: 14 } },
        series: [{
            type: 'gauge',
            min: g.min, max: g.max, splitNumber: g.steps.length,
            startAngle: 180, endAngle: 0, center: ['50%', '75%'], radius: '90%',
            axisLine: { lineStyle: { width: 30, color: g.steps.map(s => [s.to / g.max, s.color]) } },
            pointer: { show: g.hasValue },
            axisLabel: { distance: -50 },
            detail: { show: g.hasValue, formatter: '{value}', offsetCenter: [0, '20%'] },
            data: [{ value: g.value }]
        }]
    }, true);
});
`

const bubbleScript = `
renderers.push(function(update) {
    const chart = slot('bubble');
    if (!chart) return;
    const s = update.scatter;
    if (s.empty) { chart.clear(); return; }
    const maxSize = Math.max(1, ...s.points.map(p => p.size));
    chart.setOption({
        title: { text: s.title, left: 'center', textStyle: { fontSize: 14 } },
        tooltip: { trigger: 'item', formatter: p => s.points[p.dataIndex].text },
        xAxis: { type: 'value', name: s.xAxisTitle, nameLocation: 'middle', nameGap: 30 },
        yAxis: { type: 'value' },
        series: [{
            type: 'scatter',
            data: s.points.map(p => ({ value: [p.x, p.y], symbolSize: 6 + 54 * Math.sqrt(p.size / maxSize), itemStyle: { color: p.color, opacity: 0.75 } }))
        }]
    }, true);
});
`

// Theme CSS
const darkThemeCSS = `
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
    min-height: 100vh;
    color: #e4e4e4;
}
.container { max-width: 1600px; margin: 0 auto; padding: 20px; }
header { text-align: center; padding: 30px 0; border-bottom: 1px solid #333; margin-bottom: 30px; }
header h1 { font-size: 2.5rem; color: #50C878; margin-bottom: 10px; }
header p { color: #888; font-size: 1.1rem; }
.widget { margin-bottom: 25px; }
.select-box { display: flex; align-items: center; gap: 12px; }
.select-box select { padding: 6px 12px; border-radius: 6px; background: #16213e; color: #e4e4e4; border: 1px solid #444; font-size: 1rem; }
.stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 20px; }
.stat-card { background: rgba(255,255,255,0.05); border-radius: 12px; padding: 20px; text-align: center; border: 1px solid rgba(255,255,255,0.1); }
.stat-card .number { font-size: 2.5rem; font-weight: bold; color: #50C878; }
.stat-card .label { color: #888; margin-top: 5px; }
.chart-box, .table-box { background: rgba(255,255,255,0.05); border-radius: 12px; padding: 20px; border: 1px solid rgba(255,255,255,0.1); }
.third { display: inline-block; width: calc(33.3% - 14px); vertical-align: top; margin-right: 16px; }
.third:nth-of-type(3n) { margin-right: 0; }
.chart-box h3, .table-box h3 { margin-bottom: 15px; color: #fff; font-size: 1.2rem; }
.summary div { padding: 6px 0; border-bottom: 1px solid rgba(255,255,255,0.1); }
.chart { width: 100%; height: 350px; }
.chart-large { width: 100%; height: 500px; }
footer { text-align: center; padding: 30px 0; color: #666; border-top: 1px solid #333; margin-top: 30px; }
`

const lightThemeCSS = `
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: linear-gradient(135deg, #f5f7fa 0%, #e4e8ec 100%);
    min-height: 100vh;
    color: #333;
}
.container { max-width: 1600px; margin: 0 auto; padding: 20px; }
header { text-align: center; padding: 30px 0; border-bottom: 1px solid #ddd; margin-bottom: 30px; }
header h1 { font-size: 2.5rem; color: #4A90D9; margin-bottom: 10px; }
header p { color: #666; font-size: 1.1rem; }
.widget { margin-bottom: 25px; }
.select-box { display: flex; align-items: center; gap: 12px; }
.select-box select { padding: 6px 12px; border-radius: 6px; border: 1px solid #ccc; font-size: 1rem; }
.stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 20px; }
.stat-card { background: #fff; border-radius: 12px; padding: 20px; text-align: center; border: 1px solid #e0e0e0; box-shadow: 0 2px 8px rgba(0,0,0,0.05); }
.stat-card .number { font-size: 2.5rem; font-weight: bold; color: #4A90D9; }
.stat-card .label { color: #666; margin-top: 5px; }
.chart-box, .table-box { background: #fff; border-radius: 12px; padding: 20px; border: 1px solid #e0e0e0; box-shadow: 0 2px 8px rgba(0,0,0,0.05); }
.third { display: inline-block; width: calc(33.3% - 14px); vertical-align: top; margin-right: 16px; }
.third:nth-of-type(3n) { margin-right: 0; }
.chart-box h3, .table-box h3 { margin-bottom: 15px; color: #333; font-size: 1.2rem; }
.summary div { padding: 6px 0; border-bottom: 1px solid #eee; }
.chart { width: 100%; height: 350px; }
.chart-large { width: 100%; height: 500px; }
footer { text-align: center; padding: 30px 0; color: #999; border-top: 1px solid #ddd; margin-top: 30px; }
`
