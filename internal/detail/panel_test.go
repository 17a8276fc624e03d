package detail

import (
	"errors"
	"testing"

	"github.com/gaoych/bean-analyze/internal/graph"
)

func testSnapshot(t *testing.T) *graph.Snapshot {
	t.Helper()
	snap, err := graph.DecodeSnapshot([]byte(`{
		"nodes": [
			{
				"id": "orderService",
				"dependencies": ["orderDao", "auditClient"],
				"dependents": [],
				"isRoot": true,
				"dependentCount": 0,
				"metadata": {
					"type": "com.example.OrderService",
					"scope": "singleton",
					"source": "annotation",
					"categories": ["service"]
				}
			},
			{"id": "orderDao", "dependents": ["orderService"], "dependentCount": 1}
		],
		"edges": [{"source": "orderService", "target": "orderDao"}]
	}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	return snap
}

func TestSelectProjectsMetadata(t *testing.T) {
	p := NewPanel()
	p.Rebind(testSnapshot(t))

	view, err := p.Select("orderService")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if view.Type != "com.example.OrderService" || view.Scope != "singleton" {
		t.Errorf("metadata projection wrong: %+v", view)
	}
	if !view.IsRoot {
		t.Error("IsRoot lost in projection")
	}
	if p.Selected() != "orderService" {
		t.Errorf("Selected = %q", p.Selected())
	}
}

func TestRelationLinksTagInView(t *testing.T) {
	p := NewPanel()
	p.Rebind(testSnapshot(t))

	view, err := p.Select("orderService")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(view.Dependencies) != 2 {
		t.Fatalf("Dependencies = %+v", view.Dependencies)
	}
	if !view.Dependencies[0].InView {
		t.Error("orderDao should be navigable")
	}
	// auditClient is declared as a dependency but has no node in the
	// loaded subgraph; the link renders inert instead of crashing.
	if view.Dependencies[1].InView {
		t.Error("auditClient should be tagged out of view")
	}
}

func TestSelectOutsideViewKeepsSelection(t *testing.T) {
	p := NewPanel()
	p.Rebind(testSnapshot(t))

	if _, err := p.Select("orderService"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	_, err := p.Select("somewhereElse")
	if !errors.Is(err, ErrNotInView) {
		t.Fatalf("err = %v, want ErrNotInView", err)
	}
	if p.Selected() != "orderService" {
		t.Errorf("Selected = %q, want unchanged orderService", p.Selected())
	}
}

func TestRebindDropsSelection(t *testing.T) {
	p := NewPanel()
	p.Rebind(testSnapshot(t))
	if _, err := p.Select("orderDao"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	p.Rebind(testSnapshot(t))
	if p.Selected() != "" {
		t.Errorf("Selected = %q after rebind, want empty", p.Selected())
	}

	// No snapshot bound at all is also a not-in-view condition.
	p.Rebind(nil)
	if _, err := p.Select("orderDao"); !errors.Is(err, ErrNotInView) {
		t.Errorf("err = %v, want ErrNotInView", err)
	}
}
