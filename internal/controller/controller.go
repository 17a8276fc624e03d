package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gaoych/bean-analyze/internal/graph"
	"github.com/gaoych/bean-analyze/internal/provider"
)

var (
	// ErrStaleResponse marks a load superseded by a newer request. It is
	// never user-visible; callers discard it silently.
	ErrStaleResponse = errors.New("stale response superseded by a newer request")

	// ErrEmptySelection is returned synchronously, before any network
	// call, when an action requires a root and none is selected.
	ErrEmptySelection = errors.New("no root selected")
)

// GraphProvider is the slice of the provider client the controller needs.
type GraphProvider interface {
	ListRoots(ctx context.Context, f provider.Filters) (*provider.RootList, error)
	LoadSnapshot(ctx context.Context, q provider.Query) (*graph.Snapshot, error)
}

// Load identifies one in-flight snapshot request. Only the most recently
// started load may complete into displayed state.
type Load struct {
	Seq   uint64
	Root  string // empty = union view across all roots
	Query provider.Query
}

// Controller owns the filter selection and the current root, reconciles
// filter changes against the previously selected root, and guards snapshot
// loads against out-of-order completion. It is written for a single
// goroutine of control: every method must be called from the session loop
// that owns the controller.
type Controller struct {
	provider GraphProvider
	bus      *Bus

	excludeAdditional bool
	excludeThirdParty bool
	selectedPackages  []string
	packagesPicked    bool // user made an explicit sub-selection

	roots        []string
	unusedChains []graph.UnusedChainInfo
	packages     []graph.PackageInfo

	currentRoot string
	hasView     bool
	snapshot    *graph.Snapshot

	loadSeq uint64
}

// New creates a controller publishing on the given bus.
func New(p GraphProvider, bus *Bus) *Controller {
	return &Controller{provider: p, bus: bus}
}

// Filters returns the filter state as provider query parameters. When the
// third-party filter is on, the explicit package list is always populated:
// an empty selection would mean "exclude none", which is never what the
// toggle means.
func (c *Controller) Filters() provider.Filters {
	f := provider.Filters{
		ExcludeAdditional: c.excludeAdditional,
		ExcludeThirdParty: c.excludeThirdParty,
	}
	if c.excludeThirdParty {
		f.ThirdPartyPackages = append([]string(nil), c.selectedPackages...)
	}
	return f
}

// CurrentRoot returns the selected root, empty when the union view or no
// view is showing.
func (c *Controller) CurrentRoot() string { return c.currentRoot }

// HasView reports whether a snapshot is currently displayed.
func (c *Controller) HasView() bool { return c.hasView }

// Snapshot returns the displayed snapshot, nil when the view is blank.
func (c *Controller) Snapshot() *graph.Snapshot { return c.snapshot }

// Roots returns the root list from the latest listing.
func (c *Controller) Roots() []string { return c.roots }

// UnusedChains returns the unused-chain list from the latest listing.
func (c *Controller) UnusedChains() []graph.UnusedChainInfo { return c.unusedChains }

// ThirdPartyPackages returns the known third-party packages.
func (c *Controller) ThirdPartyPackages() []graph.PackageInfo { return c.packages }

// SelectedPackages returns the active third-party package sub-selection.
func (c *Controller) SelectedPackages() []string { return c.selectedPackages }

// RefreshRoots fetches the roots listing under the current filters and
// publishes it. Used at startup and by explicit refresh actions;
// reconciliation has its own listing step.
func (c *Controller) RefreshRoots(ctx context.Context) error {
	list, err := c.provider.ListRoots(ctx, c.Filters())
	if err != nil {
		c.bus.Publish(Notice{Code: NoticeListFailed, Err: err})
		return err
	}
	c.applyRootList(list)
	return nil
}

func (c *Controller) applyRootList(list *provider.RootList) {
	c.roots = list.Roots
	c.unusedChains = list.UnusedChains
	c.packages = list.ThirdPartyPackages

	// Re-derive the automatic "all packages" selection from the freshest
	// listing, so packages first discovered under the active filter are
	// excluded by default. A hand-picked selection is left alone.
	if c.excludeThirdParty && !c.packagesPicked {
		c.selectedPackages = packageIDs(c.packages)
	}

	c.bus.Publish(RootsUpdated{
		Roots:              c.roots,
		UnusedChains:       c.unusedChains,
		ThirdPartyPackages: c.packages,
	})
}

// SelectRoot loads the subgraph of the given root. An empty root is
// rejected before any network call; use LoadAll for the union view.
func (c *Controller) SelectRoot(ctx context.Context, root string) error {
	if root == "" {
		return ErrEmptySelection
	}
	l := c.StartLoad(root)
	snap, err := c.provider.LoadSnapshot(ctx, l.Query)
	return c.CompleteLoad(l, snap, err)
}

// LoadAll loads the union graph across all roots.
func (c *Controller) LoadAll(ctx context.Context) error {
	l := c.StartLoad("")
	snap, err := c.provider.LoadSnapshot(ctx, l.Query)
	return c.CompleteLoad(l, snap, err)
}

// StartLoad registers a new in-flight load and returns its descriptor.
// Starting a load supersedes every earlier outstanding one.
func (c *Controller) StartLoad(root string) Load {
	c.loadSeq++
	return Load{
		Seq:   c.loadSeq,
		Root:  root,
		Query: provider.Query{Root: root, Filters: c.Filters()},
	}
}

// FetchLoad performs the provider request for a load. It touches no
// controller state, so it may run on any goroutine while the owning loop
// keeps processing events; the result is handed back via CompleteLoad.
func (c *Controller) FetchLoad(ctx context.Context, l Load) (*graph.Snapshot, error) {
	return c.provider.LoadSnapshot(ctx, l.Query)
}

// CompleteLoad resolves an in-flight load. A load that is no longer the
// most recently started one is discarded as stale regardless of outcome. A
// failed authoritative load keeps the previous snapshot displayed and
// surfaces a notice.
func (c *Controller) CompleteLoad(l Load, snap *graph.Snapshot, err error) error {
	if l.Seq != c.loadSeq {
		return ErrStaleResponse
	}
	if err != nil {
		c.bus.Publish(Notice{Code: NoticeLoadFailed, Err: err})
		return fmt.Errorf("loading graph for %q: %w", l.Root, err)
	}

	c.snapshot = snap
	c.currentRoot = l.Root
	c.hasView = true
	c.bus.Publish(SnapshotLoaded{Root: l.Root, Snapshot: snap})
	return nil
}

// SetExcludeAdditional toggles the additional-bean filter and reconciles.
func (c *Controller) SetExcludeAdditional(ctx context.Context, exclude bool) error {
	if c.excludeAdditional == exclude {
		return nil
	}
	c.excludeAdditional = exclude
	return c.filterChanged(ctx)
}

// SetExcludeThirdParty toggles the third-party filter and reconciles.
// Enabling it with no sub-selection made yet populates the selection with
// every known package id.
func (c *Controller) SetExcludeThirdParty(ctx context.Context, exclude bool) error {
	if c.excludeThirdParty == exclude {
		return nil
	}
	c.excludeThirdParty = exclude
	if exclude && !c.packagesPicked {
		c.selectedPackages = packageIDs(c.packages)
	}
	return c.filterChanged(ctx)
}

// SetThirdPartyPackages replaces the third-party sub-selection and
// reconciles. An empty explicit selection is not "exclude none": it drops
// back to the automatic all-packages selection.
func (c *Controller) SetThirdPartyPackages(ctx context.Context, pkgs []string) error {
	if len(pkgs) == 0 {
		c.packagesPicked = false
		c.selectedPackages = packageIDs(c.packages)
	} else {
		c.packagesPicked = true
		c.selectedPackages = append([]string(nil), pkgs...)
	}
	return c.filterChanged(ctx)
}

func (c *Controller) filterChanged(ctx context.Context) error {
	c.bus.Publish(FilterChanged{Filters: c.Filters()})
	return c.Reconcile(ctx)
}

// Reconcile re-fetches the root list under the current filters and decides
// what the view becomes: the previous root is reselected when it survived
// the filter change, the union view is reloaded when it was showing, and
// otherwise the view is cleared. A failed listing aborts the whole
// reconciliation and leaves prior state untouched.
func (c *Controller) Reconcile(ctx context.Context) error {
	previousRoot := c.currentRoot
	hadUnrootedView := c.currentRoot == "" && c.hasView

	list, err := c.provider.ListRoots(ctx, c.Filters())
	if err != nil {
		c.bus.Publish(Notice{Code: NoticeListFailed, Err: err})
		return fmt.Errorf("refreshing roots: %w", err)
	}
	c.applyRootList(list)

	switch {
	case previousRoot != "" && containsString(c.roots, previousRoot):
		// Common case: a filter toggle must not eject the user from a
		// view that survives the filter.
		return c.SelectRoot(ctx, previousRoot)
	case previousRoot == "" && hadUnrootedView:
		return c.LoadAll(ctx)
	case previousRoot != "":
		c.ClearView(ClearRootFilteredOut)
		return nil
	default:
		c.ClearView(ClearNothingSelected)
		return nil
	}
}

// ClearView blanks the rendered graph and the selection. Outstanding loads
// are invalidated so a late response cannot resurrect the cleared view.
func (c *Controller) ClearView(cause ClearCause) {
	c.loadSeq++
	c.snapshot = nil
	c.currentRoot = ""
	c.hasView = false
	c.bus.Publish(ViewCleared{Cause: cause})
}

func packageIDs(pkgs []graph.PackageInfo) []string {
	ids := make([]string, len(pkgs))
	for i, p := range pkgs {
		ids[i] = p.ID
	}
	return ids
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
