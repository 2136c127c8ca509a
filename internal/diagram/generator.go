package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/junkd0g/bellybutton/internal/projection"
)

// ErrEmptyLineage is returned when asked to draw a subject with no sample.
var ErrEmptyLineage = errors.New("lineage has no data")

// RenderLineage draws the taxonomy lineage with graphviz and saves it to
// outputPath. The format follows the extension: .svg or PNG otherwise.
func RenderLineage(ctx context.Context, lineage projection.Lineage, outputPath string) error {
	if lineage.Empty || lineage.Root == nil {
		return ErrEmptyLineage
	}

	g, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer g.Close()

	graph, err := graphviz.ParseBytes([]byte(GenerateLineageDOT(lineage)))
	if err != nil {
		return fmt.Errorf("failed to parse DOT: %w", err)
	}
	defer graph.Close()

	format := graphviz.PNG
	if strings.HasSuffix(strings.ToLower(outputPath), ".svg") {
		format = graphviz.SVG
	}

	var buf bytes.Buffer
	if err := g.Render(ctx, graph, format, &buf); err != nil {
		return fmt.Errorf("failed to render graph: %w", err)
	}

	if err := writeFileBytes(outputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

// GenerateLineageDOT renders the lineage tree as a left-to-right DOT graph.
// Ranks that carry OTUs are filled with their OTU colour; edge width grows
// with the share of the subject's top-10 abundance flowing through it.
func GenerateLineageDOT(lineage projection.Lineage) string {
	var sb strings.Builder

	sb.WriteString("digraph Lineage {\n")
	sb.WriteString("  rankdir=LR;\n")
	if lineage.Root != nil {
		sb.WriteString(fmt.Sprintf("  label=%s;\n", quote("Taxonomy of the top 10 OTUs, "+lineage.Root.Name)))
	}
	sb.WriteString("  labelloc=t;\n")
	sb.WriteString("  fontsize=20;\n")
	sb.WriteString("  fontname=\"Helvetica-Bold\";\n")
	sb.WriteString("  pad=0.4;\n")
	sb.WriteString("  nodesep=0.4;\n")
	sb.WriteString("  ranksep=0.9;\n\n")

	sb.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, fillcolor=\"#FAFAFA\", color=\"#999999\"];\n")
	sb.WriteString("  edge [color=\"#777777\", arrowhead=none];\n\n")

	if lineage.Root == nil {
		sb.WriteString("}\n")
		return sb.String()
	}

	ids := make(map[*projection.LineageNode]string)
	total := lineage.Root.Value
	lineage.Root.Walk(func(parent, node *projection.LineageNode) {
		id := fmt.Sprintf("n%d", len(ids))
		ids[node] = id

		label := fmt.Sprintf("%s\\n%s", escapeDOT(node.Name), formatValue(node.Value))
		if len(node.OTUIDs) > 0 {
			label += "\\n" + otuList(node.OTUIDs)
		}
		attrs := []string{"label=\"" + label + "\""}
		if node.Color != nil {
			attrs = append(attrs, fmt.Sprintf("fillcolor=\"%s\"", node.Color.Hex()))
		}
		if parent == nil {
			attrs = append(attrs, "shape=ellipse", "fillcolor=\"#E8EEF4\"")
		}
		sb.WriteString(fmt.Sprintf("  %s [%s];\n", id, strings.Join(attrs, ", ")))

		if parent != nil {
			width := 1.0
			if total > 0 {
				width += 5 * node.Value / total
			}
			sb.WriteString(fmt.Sprintf("  %s -> %s [penwidth=%.2f];\n", ids[parent], id, width))
		}
	})

	sb.WriteString("}\n")
	return sb.String()
}

func otuList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("OTU %d", id)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func quote(s string) string {
	return "\"" + escapeDOT(s) + "\""
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\"", "\\\"")
}
