package controller

import (
	"github.com/gaoych/bean-analyze/internal/graph"
	"github.com/gaoych/bean-analyze/internal/provider"
)

// ClearCause distinguishes why the view was blanked, so the presentation
// layer can message appropriately.
type ClearCause string

const (
	// ClearRootFilteredOut: the selected root no longer exists under the
	// new filters.
	ClearRootFilteredOut ClearCause = "root-filtered-out"
	// ClearNothingSelected: no root was selected and no view was showing.
	ClearNothingSelected ClearCause = "nothing-selected"
)

// Notice codes published alongside errors. Wording is the presentation
// layer's concern.
const (
	NoticeListFailed = "roots.refresh-failed"
	NoticeLoadFailed = "graph.load-failed"
)

// Event is a typed notification published synchronously after a state
// transition. Handlers run in subscription order on the publishing
// goroutine.
type Event any

// FilterChanged is published after any filter mutation, before
// reconciliation runs.
type FilterChanged struct {
	Filters provider.Filters
}

// RootsUpdated carries a refreshed roots listing.
type RootsUpdated struct {
	Roots              []string
	UnusedChains       []graph.UnusedChainInfo
	ThirdPartyPackages []graph.PackageInfo
}

// SnapshotLoaded announces a newly displayed snapshot. Subscribers that
// reset per-snapshot state (the search navigator) must be registered before
// the renderer, so the reset happens before the first redraw.
type SnapshotLoaded struct {
	Root     string
	Snapshot *graph.Snapshot
}

// ViewCleared announces that the rendered graph was blanked.
type ViewCleared struct {
	Cause ClearCause
}

// Notice is a non-fatal status report.
type Notice struct {
	Code string
	Err  error
}

// Bus is a synchronous in-process event dispatcher.
type Bus struct {
	handlers []func(Event)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(fn func(Event)) {
	b.handlers = append(b.handlers, fn)
}

// Publish delivers the event to every handler, in subscription order.
func (b *Bus) Publish(ev Event) {
	for _, fn := range b.handlers {
		fn(ev)
	}
}
