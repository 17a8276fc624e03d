package server

import (
	"github.com/gaoych/bean-analyze/internal/controller"
	"github.com/gaoych/bean-analyze/internal/detail"
	"github.com/gaoych/bean-analyze/internal/graph"
	"github.com/gaoych/bean-analyze/internal/layout"
	"github.com/gaoych/bean-analyze/internal/search"
)

// Status codes of the session itself; the controller and navigator bring
// their own.
const (
	StatusEmptySelection = "selection.empty"
	StatusNotInView      = "panel.not-in-view"
	StatusBadMessage     = "message.invalid"
)

// clientMessage is the incoming WebSocket message format. Type selects
// which of the remaining fields are meaningful.
type clientMessage struct {
	Type      string   `json:"type"`
	Root      string   `json:"root,omitempty"`
	Term      string   `json:"term,omitempty"`
	Direction int      `json:"direction,omitempty"`
	ID        string   `json:"id,omitempty"`
	X         float64  `json:"x,omitempty"`
	Y         float64  `json:"y,omitempty"`
	Exclude   bool     `json:"exclude,omitempty"`
	Packages  []string `json:"packages,omitempty"`
}

// Outgoing frames. Every frame carries a type tag for the client switch.

type rootsFrame struct {
	Type               string                  `json:"type"` // "roots"
	Roots              []string                `json:"roots"`
	UnusedChains       []graph.UnusedChainInfo `json:"unusedChains"`
	ThirdPartyPackages []graph.PackageInfo     `json:"thirdPartyPackages"`
	SelectedPackages   []string                `json:"selectedPackages"`
}

type snapshotFrame struct {
	Type          string              `json:"type"` // "snapshot"
	Root          string              `json:"root"`
	Nodes         []*graph.Node       `json:"nodes"`
	Edges         []graph.Edge        `json:"edges"`
	ChainSummary  *graph.ChainSummary `json:"chainSummary,omitempty"`
	IsUnusedChain bool                `json:"isUnusedChain"`
}

type positionsFrame struct {
	Type      string         `json:"type"` // "positions"
	Positions []layout.Point `json:"positions"`
}

type highlightFrame struct {
	Type      string            `json:"type"` // "highlight"
	ID        string            `json:"id"`
	Transform *search.Transform `json:"transform,omitempty"`
}

type panelFrame struct {
	Type  string            `json:"type"` // "panel"
	Panel *detail.PanelView `json:"panel"`
}

type searchFrame struct {
	Type    string   `json:"type"` // "search"
	Term    string   `json:"term"`
	Matches []string `json:"matches"`
	Index   int      `json:"index"`
}

type filtersFrame struct {
	Type              string   `json:"type"` // "filters"
	ExcludeAdditional bool     `json:"excludeAdditional"`
	ExcludeThirdParty bool     `json:"excludeThirdParty"`
	SelectedPackages  []string `json:"selectedPackages"`
}

type clearedFrame struct {
	Type  string                `json:"type"` // "cleared"
	Cause controller.ClearCause `json:"cause"`
}

type statusFrame struct {
	Type   string `json:"type"` // "status"
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}
