package controller

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gaoych/bean-analyze/internal/graph"
	"github.com/gaoych/bean-analyze/internal/provider"
)

type fakeProvider struct {
	rootsFn func(provider.Filters) (*provider.RootList, error)
	snapFn  func(provider.Query) (*graph.Snapshot, error)

	listCalls []provider.Filters
	loadCalls []provider.Query
}

func (f *fakeProvider) ListRoots(_ context.Context, fl provider.Filters) (*provider.RootList, error) {
	f.listCalls = append(f.listCalls, fl)
	if f.rootsFn == nil {
		return &provider.RootList{}, nil
	}
	return f.rootsFn(fl)
}

func (f *fakeProvider) LoadSnapshot(_ context.Context, q provider.Query) (*graph.Snapshot, error) {
	f.loadCalls = append(f.loadCalls, q)
	if f.snapFn == nil {
		return snapshotFor(q.Root), nil
	}
	return f.snapFn(q)
}

// snapshotFor builds a minimal two-node snapshot named after the root.
func snapshotFor(root string) *graph.Snapshot {
	if root == "" {
		root = "all"
	}
	body := fmt.Sprintf(`{
		"nodes": [{"id": %q, "dependencies": ["leaf"]}, {"id": "leaf"}],
		"edges": [{"source": %q, "target": "leaf"}],
		"selectedRoot": %q
	}`, root, root, root)
	snap, err := graph.DecodeSnapshot([]byte(body))
	if err != nil {
		panic(err)
	}
	return snap
}

type eventLog struct {
	events []Event
}

func (l *eventLog) record(ev Event) { l.events = append(l.events, ev) }

func (l *eventLog) lastCleared() (ViewCleared, bool) {
	for i := len(l.events) - 1; i >= 0; i-- {
		if vc, ok := l.events[i].(ViewCleared); ok {
			return vc, true
		}
	}
	return ViewCleared{}, false
}

func (l *eventLog) notices() []Notice {
	var out []Notice
	for _, ev := range l.events {
		if n, ok := ev.(Notice); ok {
			out = append(out, n)
		}
	}
	return out
}

func newTestController(fp *fakeProvider) (*Controller, *eventLog) {
	bus := NewBus()
	log := &eventLog{}
	bus.Subscribe(log.record)
	return New(fp, bus), log
}

func rootList(roots ...string) *provider.RootList {
	return &provider.RootList{Roots: roots}
}

func TestSelectRootEmptySelection(t *testing.T) {
	fp := &fakeProvider{}
	c, _ := newTestController(fp)

	if err := c.SelectRoot(context.Background(), ""); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
	// Rejected synchronously, before any network call.
	if len(fp.loadCalls) != 0 {
		t.Errorf("provider called %d times, want 0", len(fp.loadCalls))
	}
}

func TestFilterTogglePreservesSurvivingRoot(t *testing.T) {
	fp := &fakeProvider{rootsFn: func(provider.Filters) (*provider.RootList, error) {
		return rootList("A", "B"), nil
	}}
	c, _ := newTestController(fp)
	ctx := context.Background()

	if err := c.SelectRoot(ctx, "A"); err != nil {
		t.Fatalf("SelectRoot: %v", err)
	}
	if err := c.SetExcludeAdditional(ctx, true); err != nil {
		t.Fatalf("SetExcludeAdditional: %v", err)
	}

	if c.CurrentRoot() != "A" {
		t.Errorf("CurrentRoot = %q, want A (no unnecessary ejection)", c.CurrentRoot())
	}
	// The reload carried the new filter state.
	last := fp.loadCalls[len(fp.loadCalls)-1]
	if !last.Filters.ExcludeAdditional || last.Root != "A" {
		t.Errorf("reload query = %+v", last)
	}
}

func TestFilterToggleClearsFilteredOutRoot(t *testing.T) {
	fp := &fakeProvider{rootsFn: func(fl provider.Filters) (*provider.RootList, error) {
		if fl.ExcludeAdditional {
			return rootList("B"), nil
		}
		return rootList("A", "B"), nil
	}}
	c, log := newTestController(fp)
	ctx := context.Background()

	if err := c.SelectRoot(ctx, "A"); err != nil {
		t.Fatalf("SelectRoot: %v", err)
	}
	if err := c.SetExcludeAdditional(ctx, true); err != nil {
		t.Fatalf("SetExcludeAdditional: %v", err)
	}

	if c.CurrentRoot() != "" || c.Snapshot() != nil || c.HasView() {
		t.Errorf("view not cleared: root=%q hasView=%v", c.CurrentRoot(), c.HasView())
	}
	vc, ok := log.lastCleared()
	if !ok || vc.Cause != ClearRootFilteredOut {
		t.Errorf("ViewCleared = %+v (ok=%v), want cause root-filtered-out", vc, ok)
	}
}

func TestFilterToggleReloadsUnionView(t *testing.T) {
	fp := &fakeProvider{rootsFn: func(provider.Filters) (*provider.RootList, error) {
		return rootList("A"), nil
	}}
	c, _ := newTestController(fp)
	ctx := context.Background()

	if err := c.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if err := c.SetExcludeAdditional(ctx, true); err != nil {
		t.Fatalf("SetExcludeAdditional: %v", err)
	}

	if !c.HasView() || c.CurrentRoot() != "" {
		t.Errorf("union view not reloaded: hasView=%v root=%q", c.HasView(), c.CurrentRoot())
	}
	last := fp.loadCalls[len(fp.loadCalls)-1]
	if last.Root != "" || !last.Filters.ExcludeAdditional {
		t.Errorf("reload query = %+v, want union view under new filters", last)
	}
}

func TestFilterToggleNothingLoaded(t *testing.T) {
	fp := &fakeProvider{rootsFn: func(provider.Filters) (*provider.RootList, error) {
		return rootList("A"), nil
	}}
	c, log := newTestController(fp)

	if err := c.SetExcludeAdditional(context.Background(), true); err != nil {
		t.Fatalf("SetExcludeAdditional: %v", err)
	}
	vc, ok := log.lastCleared()
	if !ok || vc.Cause != ClearNothingSelected {
		t.Errorf("ViewCleared = %+v (ok=%v), want cause nothing-selected", vc, ok)
	}
	if len(fp.loadCalls) != 0 {
		t.Errorf("no load should happen, got %d", len(fp.loadCalls))
	}
}

func TestListingFailureAbortsReconciliation(t *testing.T) {
	listErr := errors.New("listing down")
	fail := false
	fp := &fakeProvider{rootsFn: func(provider.Filters) (*provider.RootList, error) {
		if fail {
			return nil, listErr
		}
		return rootList("A"), nil
	}}
	c, log := newTestController(fp)
	ctx := context.Background()

	if err := c.SelectRoot(ctx, "A"); err != nil {
		t.Fatalf("SelectRoot: %v", err)
	}
	before := c.Snapshot()

	fail = true
	err := c.SetExcludeAdditional(ctx, true)
	if !errors.Is(err, listErr) {
		t.Fatalf("err = %v, want listing error", err)
	}

	// A transient listing failure must not clear a working view.
	if c.CurrentRoot() != "A" || c.Snapshot() != before || !c.HasView() {
		t.Errorf("prior state disturbed: root=%q hasView=%v", c.CurrentRoot(), c.HasView())
	}
	if _, cleared := log.lastCleared(); cleared {
		t.Error("view was cleared on a listing failure")
	}
	notices := log.notices()
	if len(notices) == 0 || notices[len(notices)-1].Code != NoticeListFailed {
		t.Errorf("notices = %+v, want roots.refresh-failed", notices)
	}
}

func TestThirdPartyAutoFill(t *testing.T) {
	fp := &fakeProvider{rootsFn: func(provider.Filters) (*provider.RootList, error) {
		return &provider.RootList{
			Roots: []string{"A"},
			ThirdPartyPackages: []graph.PackageInfo{
				{ID: "pkg1", BeanCount: 3},
				{ID: "pkg2", BeanCount: 1},
			},
		}, nil
	}}
	c, _ := newTestController(fp)
	ctx := context.Background()

	if err := c.RefreshRoots(ctx); err != nil {
		t.Fatalf("RefreshRoots: %v", err)
	}
	if err := c.SetExcludeThirdParty(ctx, true); err != nil {
		t.Fatalf("SetExcludeThirdParty: %v", err)
	}

	got := c.Filters().ThirdPartyPackages
	if len(got) != 2 || got[0] != "pkg1" || got[1] != "pkg2" {
		t.Errorf("ThirdPartyPackages = %v, want [pkg1 pkg2] (all, not empty)", got)
	}
	// The reconciliation listing already carried the auto-filled selection.
	lastList := fp.listCalls[len(fp.listCalls)-1]
	if len(lastList.ThirdPartyPackages) != 2 {
		t.Errorf("listing filters = %+v, want explicit package list", lastList)
	}
}

func TestThirdPartyAutoFillTracksFreshListing(t *testing.T) {
	pkgs := []graph.PackageInfo{{ID: "pkg1"}, {ID: "pkg2"}}
	fp := &fakeProvider{rootsFn: func(provider.Filters) (*provider.RootList, error) {
		return &provider.RootList{Roots: []string{"A"}, ThirdPartyPackages: pkgs}, nil
	}}
	c, _ := newTestController(fp)
	ctx := context.Background()

	if err := c.RefreshRoots(ctx); err != nil {
		t.Fatalf("RefreshRoots: %v", err)
	}
	if err := c.SetExcludeThirdParty(ctx, true); err != nil {
		t.Fatalf("SetExcludeThirdParty: %v", err)
	}

	// A package first discovered under the active filter joins the
	// automatic selection on the next reconciliation.
	pkgs = append(pkgs, graph.PackageInfo{ID: "pkg3"})
	if err := c.SetExcludeAdditional(ctx, true); err != nil {
		t.Fatalf("SetExcludeAdditional: %v", err)
	}
	if got := c.SelectedPackages(); len(got) != 3 || got[2] != "pkg3" {
		t.Errorf("SelectedPackages = %v, want pkg3 included", got)
	}
}

func TestExplicitPackageSelectionIsKept(t *testing.T) {
	pkgs := []graph.PackageInfo{{ID: "pkg1"}, {ID: "pkg2"}}
	fp := &fakeProvider{rootsFn: func(provider.Filters) (*provider.RootList, error) {
		return &provider.RootList{Roots: []string{"A"}, ThirdPartyPackages: pkgs}, nil
	}}
	c, _ := newTestController(fp)
	ctx := context.Background()

	if err := c.SetExcludeThirdParty(ctx, true); err != nil {
		t.Fatalf("SetExcludeThirdParty: %v", err)
	}
	if err := c.SetThirdPartyPackages(ctx, []string{"pkg1"}); err != nil {
		t.Fatalf("SetThirdPartyPackages: %v", err)
	}

	pkgs = append(pkgs, graph.PackageInfo{ID: "pkg3"})
	if err := c.SetExcludeAdditional(ctx, true); err != nil {
		t.Fatalf("SetExcludeAdditional: %v", err)
	}
	if got := c.SelectedPackages(); len(got) != 1 || got[0] != "pkg1" {
		t.Errorf("SelectedPackages = %v, want hand-picked [pkg1]", got)
	}

	// Clearing the explicit selection falls back to all packages.
	if err := c.SetThirdPartyPackages(ctx, nil); err != nil {
		t.Fatalf("SetThirdPartyPackages(nil): %v", err)
	}
	if got := c.SelectedPackages(); len(got) != 3 {
		t.Errorf("SelectedPackages = %v, want all known packages", got)
	}
}

func TestOutOfOrderLoads(t *testing.T) {
	fp := &fakeProvider{}
	c, _ := newTestController(fp)

	loadA := c.StartLoad("A")
	loadB := c.StartLoad("B")

	// B resolves first and becomes authoritative.
	if err := c.CompleteLoad(loadB, snapshotFor("B"), nil); err != nil {
		t.Fatalf("CompleteLoad(B): %v", err)
	}
	// A arrives late and must be discarded silently.
	if err := c.CompleteLoad(loadA, snapshotFor("A"), nil); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("late CompleteLoad(A): err = %v, want ErrStaleResponse", err)
	}

	if c.CurrentRoot() != "B" {
		t.Errorf("CurrentRoot = %q, want B (later-initiated request wins)", c.CurrentRoot())
	}
	if !c.Snapshot().Contains("B") {
		t.Error("displayed snapshot is not B's")
	}
}

func TestFailedLoadKeepsPreviousSnapshot(t *testing.T) {
	loadErr := errors.New("boom")
	fp := &fakeProvider{snapFn: func(q provider.Query) (*graph.Snapshot, error) {
		if q.Root == "B" {
			return nil, loadErr
		}
		return snapshotFor(q.Root), nil
	}}
	c, log := newTestController(fp)
	ctx := context.Background()

	if err := c.SelectRoot(ctx, "A"); err != nil {
		t.Fatalf("SelectRoot(A): %v", err)
	}
	before := c.Snapshot()

	if err := c.SelectRoot(ctx, "B"); !errors.Is(err, loadErr) {
		t.Fatalf("SelectRoot(B): err = %v, want load error", err)
	}
	if c.Snapshot() != before || c.CurrentRoot() != "A" {
		t.Error("previous snapshot not left on screen after failed load")
	}
	notices := log.notices()
	if len(notices) == 0 || notices[len(notices)-1].Code != NoticeLoadFailed {
		t.Errorf("notices = %+v, want graph.load-failed", notices)
	}
}

func TestLateLoadCannotResurrectClearedView(t *testing.T) {
	fp := &fakeProvider{}
	c, _ := newTestController(fp)

	l := c.StartLoad("A")
	c.ClearView(ClearRootFilteredOut)

	if err := c.CompleteLoad(l, snapshotFor("A"), nil); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("err = %v, want ErrStaleResponse", err)
	}
	if c.HasView() || c.Snapshot() != nil {
		t.Error("cleared view was resurrected by a late load")
	}
}

func TestRoundTripSameIDSet(t *testing.T) {
	fp := &fakeProvider{snapFn: func(q provider.Query) (*graph.Snapshot, error) {
		// Fresh decode per call, as a cacheless provider would behave.
		return snapshotFor(q.Root), nil
	}}
	c, _ := newTestController(fp)
	ctx := context.Background()

	if err := c.SelectRoot(ctx, "R"); err != nil {
		t.Fatalf("first load: %v", err)
	}
	first := idSet(c.Snapshot())

	if err := c.SelectRoot(ctx, "R"); err != nil {
		t.Fatalf("second load: %v", err)
	}
	second := idSet(c.Snapshot())

	if len(first) != len(second) {
		t.Fatalf("id sets differ: %v vs %v", first, second)
	}
	for id := range first {
		if !second[id] {
			t.Errorf("id %q missing from second load", id)
		}
	}
}

func idSet(s *graph.Snapshot) map[string]bool {
	set := make(map[string]bool)
	for _, id := range s.NodeIDs() {
		set[id] = true
	}
	return set
}
