package detail

import (
	"errors"

	"github.com/gaoych/bean-analyze/internal/graph"
)

// ErrNotInView marks a cross-link pointing at a node outside the currently
// loaded subgraph. The current selection stays as it was.
var ErrNotInView = errors.New("node not in current view")

// RelationLink is one dependency or dependent entry of the panel. Links
// into the current snapshot are navigable; the rest render inert.
type RelationLink struct {
	ID     string `json:"id"`
	InView bool   `json:"inView"`
}

// PanelView is the presentation projection of one selected node.
type PanelView struct {
	ID                string         `json:"id"`
	Label             string         `json:"label"`
	Type              string         `json:"type"`
	Scope             string         `json:"scope"`
	Source            string         `json:"source"`
	DefinitionSource  string         `json:"definitionSource"`
	Categories        []string       `json:"categories"`
	IsAdditionalBean  bool           `json:"isAdditionalBean"`
	IsThirdPartyBean  bool           `json:"isThirdPartyBean"`
	ThirdPartyPackage string         `json:"thirdPartyPackage,omitempty"`
	IsRoot            bool           `json:"isRoot"`
	Missing           bool           `json:"missing"`
	DependentCount    int            `json:"dependentCount"`
	Dependencies      []RelationLink `json:"dependencies"`
	Dependents        []RelationLink `json:"dependents"`
}

// Panel tracks the selected node of the active snapshot.
type Panel struct {
	snap     *graph.Snapshot
	selected string
}

// NewPanel returns a panel with nothing selected.
func NewPanel() *Panel {
	return &Panel{}
}

// Rebind points the panel at a new snapshot and drops the selection.
func (p *Panel) Rebind(snap *graph.Snapshot) {
	p.snap = snap
	p.selected = ""
}

// Selected returns the currently selected node id, if any.
func (p *Panel) Selected() string { return p.selected }

// Select makes the given node the selection and returns its projection.
// Selecting a node outside the snapshot fails with ErrNotInView and leaves
// the current selection unchanged.
func (p *Panel) Select(id string) (*PanelView, error) {
	if p.snap == nil || !p.snap.Contains(id) {
		return nil, ErrNotInView
	}
	p.selected = id
	return Project(p.snap, id), nil
}

// Project builds the panel view for a node known to be in the snapshot.
func Project(snap *graph.Snapshot, id string) *PanelView {
	n := snap.NodeByID(id)
	if n == nil {
		return nil
	}
	return &PanelView{
		ID:                n.ID,
		Label:             n.Label,
		Type:              n.Metadata.Type,
		Scope:             n.Metadata.Scope,
		Source:            n.Metadata.Source,
		DefinitionSource:  n.Metadata.DefinitionSource,
		Categories:        n.Metadata.Categories,
		IsAdditionalBean:  n.Metadata.IsAdditionalBean,
		IsThirdPartyBean:  n.Metadata.IsThirdPartyBean,
		ThirdPartyPackage: n.Metadata.ThirdPartyPackage,
		IsRoot:            n.IsRoot,
		Missing:           n.Missing,
		DependentCount:    n.DependentCount,
		Dependencies:      links(snap, n.Dependencies),
		Dependents:        links(snap, n.Dependents),
	}
}

func links(snap *graph.Snapshot, ids []string) []RelationLink {
	out := make([]RelationLink, len(ids))
	for i, id := range ids {
		out[i] = RelationLink{ID: id, InView: snap.Contains(id)}
	}
	return out
}
