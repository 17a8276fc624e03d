package graph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload indicates a provider response missing required fields.
var ErrMalformedPayload = errors.New("malformed provider payload")

// snapshotPayload mirrors the provider's graph-data wire format. Presence
// of the nodes and edges arrays is checked separately before decoding, so
// "absent array" (malformed) and "empty array" (valid) stay distinct.
type snapshotPayload struct {
	Nodes              []*Node       `json:"nodes"`
	Edges              []Edge        `json:"edges"`
	Roots              []string      `json:"roots"`
	SelectedRoot       string        `json:"selectedRoot"`
	ChainSummary       *ChainSummary `json:"chainSummary"`
	IsUnusedChain      bool          `json:"isUnusedChain"`
	ThirdPartyPackages []PackageInfo `json:"thirdPartyPackages"`
}

// DecodeSnapshot validates and normalizes a graph-data response body.
// It fails with ErrMalformedPayload when the nodes or edges arrays are
// absent, and synthesizes missing-node placeholders for edge endpoints the
// provider referenced but did not define.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var probe struct {
		Nodes *json.RawMessage `json:"nodes"`
		Edges *json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if probe.Nodes == nil || probe.Edges == nil {
		return nil, fmt.Errorf("%w: missing nodes or edges array", ErrMalformedPayload)
	}

	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	snap := &Snapshot{
		Nodes:              payload.Nodes,
		Edges:              payload.Edges,
		Roots:              payload.Roots,
		SelectedRoot:       payload.SelectedRoot,
		ChainSummary:       payload.ChainSummary,
		IsUnusedChain:      payload.IsUnusedChain,
		ThirdPartyPackages: payload.ThirdPartyPackages,
		index:              make(map[string]*Node, len(payload.Nodes)),
	}

	for _, n := range snap.Nodes {
		if n == nil || n.ID == "" {
			return nil, fmt.Errorf("%w: node without id", ErrMalformedPayload)
		}
		if n.Label == "" {
			n.Label = n.ID
		}
		snap.index[n.ID] = n
	}

	// Edge endpoints must resolve; providers mark unresolvable beans with
	// missing=true, but tolerate ones that reference them without defining
	// them by synthesizing the placeholder here.
	for _, e := range snap.Edges {
		if e.Source == "" || e.Target == "" {
			return nil, fmt.Errorf("%w: edge without endpoints", ErrMalformedPayload)
		}
		for _, id := range []string{e.Source, e.Target} {
			if snap.index[id] != nil {
				continue
			}
			placeholder := &Node{
				ID:      id,
				Label:   id,
				Missing: true,
				Metadata: Metadata{
					Type:  "External or undefined bean",
					Scope: "unknown",
				},
			}
			snap.index[id] = placeholder
			snap.Nodes = append(snap.Nodes, placeholder)
		}
	}

	return snap, nil
}

// UnmarshalJSON accepts the package entry shapes seen in the wild: a plain
// string, or an object keyed by "package", "name", or "id", with bean counts
// under "beanCount", "count", or "beans". Everything is normalized to the
// canonical PackageInfo before it enters the core.
func (p *PackageInfo) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.ID = s
		p.BeanCount = 0
		return nil
	}

	var obj struct {
		Package   string `json:"package"`
		Name      string `json:"name"`
		ID        string `json:"id"`
		BeanCount int    `json:"beanCount"`
		Count     int    `json:"count"`
		Beans     int    `json:"beans"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: package entry: %v", ErrMalformedPayload, err)
	}

	switch {
	case obj.Package != "":
		p.ID = obj.Package
	case obj.Name != "":
		p.ID = obj.Name
	default:
		p.ID = obj.ID
	}
	if p.ID == "" {
		return fmt.Errorf("%w: package entry without identifier", ErrMalformedPayload)
	}

	switch {
	case obj.BeanCount != 0:
		p.BeanCount = obj.BeanCount
	case obj.Count != 0:
		p.BeanCount = obj.Count
	default:
		p.BeanCount = obj.Beans
	}
	return nil
}
