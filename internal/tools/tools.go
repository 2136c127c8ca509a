package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/diagram"
	"github.com/junkd0g/bellybutton/internal/projection"
	"github.com/junkd0g/bellybutton/internal/selection"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Handlers serves the dashboard tools from one loaded controller.
type Handlers struct {
	ctrl      *selection.Controller
	outputDir string
	theme     string
}

// NewHandlers binds the tools to ctrl. Relative output paths resolve
// against outputDir.
func NewHandlers(ctrl *selection.Controller, outputDir, theme string) *Handlers {
	return &Handlers{ctrl: ctrl, outputDir: outputDir, theme: theme}
}

// Register registers all tools with the MCP server.
func Register(s *server.MCPServer, h *Handlers) {
	registerListSubjectsTool(s, h)
	registerSelectSubjectTool(s, h)
	registerDashboardTool(s, h)
	registerChartTool(s, h)
	registerTaxonomyTool(s, h)
}

func registerListSubjectsTool(s *server.MCPServer, h *Handlers) {
	tool := mcp.NewTool("list_subjects",
		mcp.WithDescription("Lists the test subject ids of the loaded belly button dataset in dataset order, marking the currently selected subject."),
	)

	s.AddTool(tool, h.listSubjectsHandler)
}

func registerSelectSubjectTool(s *server.MCPServer, h *Handlers) {
	tool := mcp.NewTool("select_subject",
		mcp.WithDescription("Selects a test subject and returns its chart projections as JSON: the top 10 OTU bar chart, the bubble chart of all OTUs, the demographic summary and the washing frequency gauge. Unknown ids return empty facets."),
		mcp.WithString("subject_id",
			mcp.Required(),
			mcp.Description("The test subject id, e.g. 940"),
		),
	)

	s.AddTool(tool, h.selectSubjectHandler)
}

func registerDashboardTool(s *server.MCPServer, h *Handlers) {
	tool := mcp.NewTool("generate_dashboard",
		mcp.WithDescription("Generates a self-contained interactive HTML dashboard with a subject selector, the top 10 OTU bar chart, the bubble chart, demographic info and the washing frequency gauge for every subject."),
		mcp.WithString("output_path",
			mcp.Description("The output path for the HTML file. Defaults to dashboard.html in the output directory"),
		),
		mcp.WithString("theme",
			mcp.Description("Color theme: 'dark' or 'light'. Defaults to the configured theme"),
		),
	)

	s.AddTool(tool, h.dashboardHandler)
}

func registerChartTool(s *server.MCPServer, h *Handlers) {
	tool := mcp.NewTool("generate_chart",
		mcp.WithDescription("Renders one chart of a test subject as a PNG image: 'bar' for the top 10 OTUs or 'bubble' for all OTUs."),
		mcp.WithString("subject_id",
			mcp.Required(),
			mcp.Description("The test subject id, e.g. 940"),
		),
		mcp.WithString("kind",
			mcp.Description("Chart kind: 'bar' or 'bubble'. Defaults to bar"),
		),
		mcp.WithString("output_path",
			mcp.Description("The output path for the PNG file. Defaults to <subject>_<kind>.png in the output directory"),
		),
	)

	s.AddTool(tool, h.chartHandler)
}

func registerTaxonomyTool(s *server.MCPServer, h *Handlers) {
	tool := mcp.NewTool("generate_taxonomy_diagram",
		mcp.WithDescription("Generates a taxonomy lineage diagram of a test subject's top 10 OTUs. Supports PNG and SVG output formats."),
		mcp.WithString("subject_id",
			mcp.Required(),
			mcp.Description("The test subject id, e.g. 940"),
		),
		mcp.WithString("output_path",
			mcp.Description("The output path for the diagram file. Supports .png and .svg extensions. Defaults to <subject>_taxonomy.png in the output directory"),
		),
	)

	s.AddTool(tool, h.taxonomyHandler)
}

func (h *Handlers) listSubjectsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subjects := h.ctrl.Subjects()
	if len(subjects) == 0 {
		return newToolResultError("no subjects loaded"), nil
	}

	selected := h.ctrl.Selected()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d subjects:\n", len(subjects)))
	for _, k := range subjects {
		marker := " "
		if k == selected {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", marker, k))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (h *Handlers) selectSubjectHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, ok := subjectArg(request)
	if !ok {
		return newToolResultError("subject_id is required"), nil
	}

	u, err := h.ctrl.Select(key)
	if err != nil {
		return newToolResultError(fmt.Sprintf("failed to select subject: %v", err)), nil
	}

	out, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return newToolResultError(fmt.Sprintf("failed to encode update: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (h *Handlers) dashboardHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outputPath := h.outputPath(request, "dashboard.html")

	config := diagram.DefaultConfig()
	config.Theme = h.theme
	if theme, ok := request.Params.Arguments["theme"].(string); ok && theme != "" {
		if theme != "dark" && theme != "light" {
			return newToolResultError(fmt.Sprintf("unknown theme %q: want dark or light", theme)), nil
		}
		config.Theme = theme
	}

	if err := diagram.GenerateHTML(h.ctrl, outputPath, config); err != nil {
		return newToolResultError(fmt.Sprintf("failed to generate dashboard: %v", err)), nil
	}

	return mcp.NewToolResultText(buildSummary(h.ctrl.Dataset(), outputPath)), nil
}

func (h *Handlers) chartHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, ok := subjectArg(request)
	if !ok {
		return newToolResultError("subject_id is required"), nil
	}

	kind := diagram.ChartBar
	if k, ok := request.Params.Arguments["kind"].(string); ok && k != "" {
		kind = k
	}

	u, err := h.ctrl.Project(key)
	if err != nil {
		return newToolResultError(fmt.Sprintf("failed to project subject: %v", err)), nil
	}

	outputPath := h.outputPath(request, fmt.Sprintf("%s_%s.png", key, kind))
	if err := diagram.GenerateChartPNG(u, kind, outputPath); err != nil {
		return newToolResultError(fmt.Sprintf("failed to generate %s chart for subject %s: %v", kind, key, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Chart generated successfully!\n\nSubject: %s\nKind: %s\nOutput: %s\n", key, kind, outputPath)), nil
}

func (h *Handlers) taxonomyHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, ok := subjectArg(request)
	if !ok {
		return newToolResultError("subject_id is required"), nil
	}

	lineage, err := h.ctrl.Lineage(key)
	if err != nil {
		return newToolResultError(fmt.Sprintf("failed to build lineage: %v", err)), nil
	}
	if lineage.Empty {
		return newToolResultError(fmt.Sprintf("subject %s has no sample", key)), nil
	}

	outputPath := h.outputPath(request, fmt.Sprintf("%s_taxonomy.png", key))
	if err := diagram.RenderLineage(ctx, lineage, outputPath); err != nil {
		return newToolResultError(fmt.Sprintf("failed to generate diagram: %v", err)), nil
	}

	ranks := 0
	lineage.Root.Walk(func(_, _ *projection.LineageNode) { ranks++ })
	return mcp.NewToolResultText(fmt.Sprintf("Taxonomy diagram generated successfully!\n\nSubject: %s\nOutput: %s\nTaxa: %d\n", key, outputPath, ranks-1)), nil
}

func subjectArg(request mcp.CallToolRequest) (dataset.SubjectKey, bool) {
	id, ok := request.Params.Arguments["subject_id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return dataset.SubjectKey(strings.TrimSpace(id)), true
}

func (h *Handlers) outputPath(request mcp.CallToolRequest, fallback string) string {
	path := fallback
	if op, ok := request.Params.Arguments["output_path"].(string); ok && op != "" {
		path = op
	}
	if filepath.IsAbs(path) || h.outputDir == "" {
		return path
	}
	return filepath.Join(h.outputDir, path)
}

func newToolResultError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: message,
			},
		},
		IsError: true,
	}
}

func buildSummary(ds *dataset.Dataset, outputPath string) string {
	summary := fmt.Sprintf("Dashboard generated successfully!\n\nOutput: %s\n\n", outputPath)
	if ds == nil {
		return summary
	}

	summary += "Dataset:\n"
	summary += fmt.Sprintf("  - Subjects: %d\n", len(ds.Names))
	summary += fmt.Sprintf("  - Samples: %d\n", len(ds.Samples))
	summary += fmt.Sprintf("  - Metadata records: %d\n", len(ds.Metadata))
	summary += fmt.Sprintf("  - Largest OTU id: %d\n", ds.MaxCategoryID())

	return summary
}
