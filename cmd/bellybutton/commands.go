package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/diagram"
	"github.com/junkd0g/bellybutton/internal/selection"
	"github.com/junkd0g/bellybutton/internal/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the test subject ids",
	Args:  cobra.NoArgs,
	RunE:  runSubjects,
}

var showCmd = &cobra.Command{
	Use:   "show <subject>",
	Short: "Print the demographic info and top 10 OTUs of a subject",
	Long: `Print the demographic info, top 10 OTUs and washing frequency of a
subject. Unknown ids print empty facets.

Examples:
  bellybutton show 940
  bellybutton show 940 --format json
  bellybutton show 940 --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Generate the interactive HTML dashboard",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

var chartCmd = &cobra.Command{
	Use:   "chart <subject>",
	Short: "Render the bar chart, bubble chart and summary of a subject to files",
	Long: `Render the chart slots of a subject into <output-dir>/<subject>/:
bar.png, bubble.png and summary.txt. A facet the subject has no data for
leaves its file absent.`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy <subject>",
	Short: "Generate the taxonomy lineage diagram of a subject's top 10 OTUs",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaxonomy,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse subjects in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

var (
	showFormat     string // text, json or yaml
	dashboardOut   string
	taxonomyOutput string
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4A90D9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func init() {
	showCmd.Flags().StringVar(&showFormat, "format", "text", "output format: text, json or yaml")
	dashboardCmd.Flags().StringVarP(&dashboardOut, "output", "o", "dashboard.html", "output HTML file")
	taxonomyCmd.Flags().StringVarP(&taxonomyOutput, "output", "o", "", "output file, .png or .svg (default <subject>_taxonomy.png)")

	rootCmd.AddCommand(subjectsCmd, showCmd, dashboardCmd, chartCmd, taxonomyCmd, browseCmd)
}

func runSubjects(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	for _, k := range s.ctrl.Subjects() {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	u, err := s.ctrl.Select(dataset.SubjectKey(args[0]))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch showFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(u)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(u)
	case "text":
		printUpdate(out, u)
		return nil
	default:
		return fmt.Errorf("unknown format %q: want text, json or yaml", showFormat)
	}
}

func printUpdate(w io.Writer, u selection.Update) {
	fmt.Fprintln(w, headingStyle.Render("Demographic Info"))
	if u.Summary.Empty {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	for _, row := range u.Summary.Rows {
		fmt.Fprintln(w, "  "+row)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render(u.Bar.Title))
	if u.Bar.Empty {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	for i := len(u.Bar.Rows) - 1; i >= 0; i-- {
		r := u.Bar.Rows[i]
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Color.Hex())).Render("■")
		taxon := strings.ReplaceAll(r.HoverText, "<br>", " > ")
		fmt.Fprintf(w, "  %s %-9s %6g  %s\n", swatch, r.Category, r.Value, mutedStyle.Render(taxon))
	}

	if !u.Gauge.Empty {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render(u.Gauge.Title))
		if u.Gauge.HasValue {
			fmt.Fprintf(w, "  %g %s\n", u.Gauge.Value, u.Gauge.Unit)
		} else {
			fmt.Fprintln(w, mutedStyle.Render("  unknown"))
		}
	}
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}

	cfg := diagram.DefaultConfig()
	cfg.Theme = s.cfg.Theme.Value
	outputPath := s.cfg.OutputPath(dashboardOut)
	if err := diagram.GenerateHTML(s.ctrl, outputPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dashboard written to %s\n", outputPath)
	return nil
}

func runChart(cmd *cobra.Command, args []string) error {
	key := dataset.SubjectKey(args[0])
	if k := key.String(); k == "" || k == "." || k == ".." || strings.ContainsAny(k, `/\`) {
		return fmt.Errorf("invalid subject id %q: must not be a path", key)
	}

	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	dir := s.cfg.OutputPath(key.String())

	u, err := s.ctrl.Project(key)
	if err != nil {
		return err
	}
	if err := selection.Render(&diagram.FileRenderer{Dir: dir}, u); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Charts for subject %s written to %s\n", key, dir)
	return nil
}

func runTaxonomy(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	key := dataset.SubjectKey(args[0])

	lineage, err := s.ctrl.Lineage(key)
	if err != nil {
		return err
	}

	name := taxonomyOutput
	if name == "" {
		name = key.String() + "_taxonomy.png"
	}
	outputPath := s.cfg.OutputPath(name)
	if err := diagram.RenderLineage(cmd.Context(), lineage, outputPath); err != nil {
		return fmt.Errorf("subject %s: %w", key, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Taxonomy diagram written to %s\n", outputPath)
	return nil
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	slots := diagram.NewDashboard()
	s, err := openSession(cmd, slots)
	if err != nil {
		return err
	}
	return tui.Run(s.ctrl, slots)
}
