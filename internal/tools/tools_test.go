package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/selection"
	"github.com/mark3labs/mcp-go/mcp"
)

func newHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()
	ds := &dataset.Dataset{
		Names: []dataset.SubjectKey{"940", "941"},
		Samples: []dataset.SubjectSample{
			{
				ID:           "940",
				OTUIDs:       []int{1167, 2859, 482},
				OTULabels:    []string{"Bacteria;Bacteroidetes", "Bacteria;Firmicutes", "Bacteria"},
				SampleValues: []float64{163, 126, 113},
			},
		},
		Metadata: []dataset.SubjectMetadata{
			{ID: "941", Ethnicity: "Asian", Gender: "M"},
		},
	}

	ctrl := selection.New(nil)
	if err := ctrl.Load(ds); err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := t.TempDir()
	return NewHandlers(ctrl, dir, "light"), dir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestListSubjects(t *testing.T) {
	h, _ := newHandlers(t)

	res, err := h.listSubjectsHandler(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "* 940") || !strings.Contains(text, "  941") {
		t.Fatalf("unexpected listing:\n%s", text)
	}
}

func TestSelectSubject(t *testing.T) {
	h, _ := newHandlers(t)

	res, err := h.selectSubjectHandler(context.Background(), callRequest(map[string]interface{}{"subject_id": "941"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var u selection.Update
	if err := json.Unmarshal([]byte(resultText(t, res)), &u); err != nil {
		t.Fatalf("result is not an update: %v", err)
	}
	if u.Subject != "941" || !u.Bar.Empty || u.Summary.Empty {
		t.Fatalf("unexpected update: %+v", u)
	}
	if h.ctrl.Selected() != "941" {
		t.Fatalf("selection not applied")
	}
}

func TestSelectUnknownSubject(t *testing.T) {
	h, _ := newHandlers(t)

	res, err := h.selectSubjectHandler(context.Background(), callRequest(map[string]interface{}{"subject_id": "999"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var u selection.Update
	if err := json.Unmarshal([]byte(resultText(t, res)), &u); err != nil {
		t.Fatalf("result is not an update: %v", err)
	}
	if u.Subject != "999" {
		t.Fatalf("subject = %q, want 999", u.Subject)
	}
	if !u.Bar.Empty || !u.Scatter.Empty || !u.Summary.Empty || !u.Gauge.Empty {
		t.Fatalf("expected every facet empty, got %+v", u)
	}
}

func TestSelectSubjectRequiresID(t *testing.T) {
	h, _ := newHandlers(t)

	res, err := h.selectSubjectHandler(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || resultText(t, res) != "subject_id is required" {
		t.Fatalf("expected missing id error, got %+v", res)
	}
}

func TestGenerateDashboard(t *testing.T) {
	h, dir := newHandlers(t)

	res, err := h.dashboardHandler(context.Background(), callRequest(map[string]interface{}{"theme": "dark"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "Subjects: 2") {
		t.Fatalf("summary missing counts:\n%s", resultText(t, res))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "dashboard.html"))
	if err != nil {
		t.Fatalf("dashboard not written: %v", err)
	}
	if !bytes.Contains(raw, []byte("selDataset")) {
		t.Fatal("dashboard has no subject selector")
	}

	res, _ = h.dashboardHandler(context.Background(), callRequest(map[string]interface{}{"theme": "neon"}))
	if !res.IsError {
		t.Fatal("expected error for unknown theme")
	}
}

func TestGenerateChart(t *testing.T) {
	h, dir := newHandlers(t)

	res, err := h.chartHandler(context.Background(), callRequest(map[string]interface{}{"subject_id": "940", "kind": "bubble"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	raw, err := os.ReadFile(filepath.Join(dir, "940_bubble.png"))
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Fatal("chart is not a PNG")
	}

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no sample", map[string]interface{}{"subject_id": "941"}},
		{"unknown kind", map[string]interface{}{"subject_id": "940", "kind": "pie"}},
		{"missing id", map[string]interface{}{"kind": "bar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.chartHandler(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if !res.IsError {
				t.Fatalf("expected error result, got %s", resultText(t, res))
			}
		})
	}
}

func TestGenerateTaxonomyDiagram(t *testing.T) {
	h, dir := newHandlers(t)

	out := filepath.Join(dir, "tax.svg")
	res, err := h.taxonomyHandler(context.Background(), callRequest(map[string]interface{}{"subject_id": "940", "output_path": out}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("diagram not written: %v", err)
	}

	res, _ = h.taxonomyHandler(context.Background(), callRequest(map[string]interface{}{"subject_id": "941"}))
	if !res.IsError {
		t.Fatal("expected error for subject without sample")
	}
}
