package projection

import (
	"slices"
	"strings"

	"github.com/junkd0g/bellybutton/internal/dataset"
	"github.com/junkd0g/bellybutton/internal/palette"
	"github.com/junkd0g/bellybutton/internal/ranking"
)

// LineageNode is one taxonomic rank in the lineage tree. Value is the
// summed measurement of every top OTU below it.
type LineageNode struct {
	Name     string         `json:"name"`
	Path     string         `json:"path"`
	Value    float64        `json:"value"`
	OTUIDs   []int          `json:"otuIds,omitempty"`
	Color    *palette.RGB   `json:"color,omitempty"`
	Children []*LineageNode `json:"children,omitempty"`
}

// Lineage is the taxonomy tree of a subject's top-10 OTUs.
type Lineage struct {
	Empty   bool               `json:"empty"`
	Subject dataset.SubjectKey `json:"subject,omitempty"`
	Root    *LineageNode       `json:"root,omitempty"`
}

// Lineage groups the top-10 OTUs of sample by taxonomy path. Children
// appear in order of first visit, heaviest OTU first. The OTU ids of an
// entry attach to the deepest rank of its label and colour that node.
func (p *Projector) Lineage(sample *dataset.SubjectSample) (Lineage, error) {
	if sample == nil {
		return Lineage{Empty: true}, nil
	}

	top, err := ranking.TopK(sample, ranking.BarK)
	if err != nil {
		return Lineage{}, err
	}
	slices.Reverse(top)

	root := &LineageNode{Name: "Subject " + sample.ID.String()}
	for _, e := range top {
		root.Value += e.Value
		node := root
		var path []string
		for _, rank := range splitTaxonomy(e.Label) {
			path = append(path, rank)
			node = node.child(rank, strings.Join(path, TaxonomyDelimiter))
			node.Value += e.Value
		}
		node.OTUIDs = append(node.OTUIDs, e.ID)
		if node.Color == nil {
			c := p.colors.ColorFor(e.ID)
			node.Color = &c
		}
	}
	return Lineage{Subject: sample.ID, Root: root}, nil
}

func (n *LineageNode) child(name, path string) *LineageNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	c := &LineageNode{Name: name, Path: path}
	n.Children = append(n.Children, c)
	return c
}

// Walk visits n and its descendants depth first, parents before children.
func (n *LineageNode) Walk(fn func(parent, node *LineageNode)) {
	var visit func(parent, node *LineageNode)
	visit = func(parent, node *LineageNode) {
		fn(parent, node)
		for _, c := range node.Children {
			visit(node, c)
		}
	}
	visit(nil, n)
}

func splitTaxonomy(label string) []string {
	var ranks []string
	for _, r := range strings.Split(label, TaxonomyDelimiter) {
		if r = strings.TrimSpace(r); r != "" {
			ranks = append(ranks, r)
		}
	}
	if len(ranks) == 0 {
		ranks = []string{"Unclassified"}
	}
	return ranks
}
