// Package tui is a terminal subject browser. Moving the list cursor
// selects a subject on the controller; the charts are drawn from the
// slots the controller last rendered.
package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/diagram"
	"github.com/junkd0g/bellybutton/internal/projection"
	"github.com/junkd0g/bellybutton/internal/selection"
)

const (
	defaultWidth  = 100
	defaultHeight = 24
	listWidth     = 24
	labelWidth    = 10
)

var (
	selectedColor = lipgloss.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = lipgloss.AdaptiveColor{Light: "#555", Dark: "#555"}
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(borderColor)
	paneStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})
)

type subjectItem struct {
	key       dataset.SubjectKey
	hasSample bool
	hasMeta   bool
}

func (i subjectItem) Title() string { return "Subject " + i.key.String() }

func (i subjectItem) Description() string {
	var parts []string
	if i.hasSample {
		parts = append(parts, "sample")
	}
	if i.hasMeta {
		parts = append(parts, "metadata")
	}
	if len(parts) == 0 {
		return "no data"
	}
	return strings.Join(parts, " · ")
}

func (i subjectItem) FilterValue() string { return i.key.String() }

// Model is the bubbletea model of the browser.
type Model struct {
	ctrl  *selection.Controller
	slots *diagram.Dashboard

	list  list.Model
	help  help.Model
	width int
	err   error
}

// New builds the browser for a loaded controller whose renderer is slots.
// The list cursor starts on the controller's selected subject.
func New(ctrl *selection.Controller, slots *diagram.Dashboard) *Model {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(borderColor).
		Foreground(selectedColor).
		Padding(0, 0, 0, 1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.
		Foreground(selectedColor)

	var items []list.Item
	selected := 0
	if ds := ctrl.Dataset(); ds != nil {
		for i, k := range ds.Names {
			_, hasSample := ds.Sample(k)
			_, hasMeta := ds.MetadataFor(k)
			items = append(items, subjectItem{key: k, hasSample: hasSample, hasMeta: hasMeta})
			if k == ctrl.Selected() {
				selected = i
			}
		}
	}

	l := list.New(items, d, listWidth, defaultHeight)
	l.Title = "Test Subject ID No."
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.Select(selected)

	return &Model{
		ctrl:  ctrl,
		slots: slots,
		list:  l,
		help:  help.New(),
		width: defaultWidth,
	}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.list.SetSize(listWidth, max(1, msg.Height-2))
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.list.CursorUp()
			m.selectCurrent()
			return m, nil
		case key.Matches(msg, keys.Down):
			m.list.CursorDown()
			m.selectCurrent()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectCurrent()
	return m, cmd
}

// selectCurrent selects the subject under the cursor if it changed.
func (m *Model) selectCurrent() {
	item, ok := m.list.SelectedItem().(subjectItem)
	if !ok || item.key == m.ctrl.Selected() {
		return
	}
	_, m.err = m.ctrl.Select(item.key)
}

func (m *Model) View() string {
	u := m.slots.Snapshot()
	right := max(30, m.width-listWidth-6)

	panes := lipgloss.JoinVertical(lipgloss.Left,
		renderBars(u.Bar, right),
		"",
		renderSummary(u.Summary),
		"",
		renderGauge(u.Gauge, right),
	)
	view := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), paneStyle.Render(panes))

	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, view, errStyle.Render("ERROR: "+m.err.Error()), m.help.View(keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, view, m.help.View(keys))
}

// renderBars draws the ranked rows as horizontal bars, largest on top.
func renderBars(bar projection.BarChart, width int) string {
	if bar.Empty || len(bar.Rows) == 0 {
		return mutedStyle.Render("no sample for this subject")
	}

	maxValue := 0.0
	for _, r := range bar.Rows {
		maxValue = math.Max(maxValue, r.Value)
	}
	barWidth := max(1, width-labelWidth-10)

	lines := []string{titleStyle.Render(bar.Title)}
	for i := len(bar.Rows) - 1; i >= 0; i-- {
		r := bar.Rows[i]
		n := 0
		if maxValue > 0 {
			n = int(math.Round(r.Value / maxValue * float64(barWidth)))
		}
		fill := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Color.Hex())).Render(strings.Repeat("█", max(1, n)))
		lines = append(lines, fmt.Sprintf("%-*s %s %s", labelWidth, r.Category, fill, formatValue(r.Value)))
	}
	return strings.Join(lines, "\n")
}

func renderSummary(table projection.SummaryTable) string {
	if table.Empty {
		return mutedStyle.Render("no demographic info")
	}
	return titleStyle.Render("Demographic Info") + "\n" + strings.Join(table.Rows, "\n")
}

func renderGauge(g projection.Gauge, width int) string {
	if g.Empty {
		return ""
	}
	title := titleStyle.Render(g.Title)
	if !g.HasValue {
		return title + "\n" + mutedStyle.Render("unknown")
	}

	cells := max(g.Max-g.Min, 1)
	cellWidth := max(1, (width-20)/int(cells))
	filled := int(math.Round(g.Value - g.Min))

	var sb strings.Builder
	for i, step := range g.Steps {
		glyph := "░"
		if i < filled {
			glyph = "█"
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(step.Color)).Render(strings.Repeat(glyph, cellWidth)))
	}
	return fmt.Sprintf("%s\n%s %s %s", title, sb.String(), formatValue(g.Value), g.Unit)
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// Run starts the browser on the alternate screen and blocks until quit.
func Run(ctrl *selection.Controller, slots *diagram.Dashboard) error {
	_, err := tea.NewProgram(New(ctrl, slots), tea.WithAltScreen()).Run()
	return err
}

type keyMap struct {
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Quit}}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}
