package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gaoych/bean-analyze/internal/config"
	"github.com/gaoych/bean-analyze/internal/controller"
	"github.com/gaoych/bean-analyze/internal/detail"
	"github.com/gaoych/bean-analyze/internal/graph"
	"github.com/gaoych/bean-analyze/internal/layout"
	"github.com/gaoych/bean-analyze/internal/search"
)

// frameWriter is the outbound half of a connection. *websocket.Conn
// satisfies it; tests substitute a recorder.
type frameWriter interface {
	WriteJSON(v any) error
}

// loadDone is the completion of an asynchronous snapshot fetch, posted back
// into the session loop.
type loadDone struct {
	load controller.Load
	snap *graph.Snapshot
	err  error
}

// Session owns one client's view state: controller, navigator, panel, and
// layout engine. Core logic runs on a single goroutine (the Run loop);
// provider fetches for root selection run in helper goroutines and post
// loadDone completions back into the loop, where the controller's sequence
// guard decides whether they are still authoritative.
type Session struct {
	id     string
	cfg    *config.Config
	camera search.Camera

	provider controller.GraphProvider

	ctrl   *controller.Controller
	nav    *search.Navigator
	panel  *detail.Panel
	engine *layout.Engine

	w      frameWriter
	events chan any
	done   chan struct{}
	ctx    context.Context
}

// NewSession wires a controller stack for one connection.
func NewSession(id string, cfg *config.Config, p controller.GraphProvider, w frameWriter) *Session {
	s := &Session{
		id:       id,
		cfg:      cfg,
		provider: p,
		camera:   search.Camera{Width: cfg.Layout.Width, Height: cfg.Layout.Height},
		w:        w,
		events:   make(chan any, 64),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}

	bus := controller.NewBus()
	// The session handler rebinding navigator and panel is the only
	// subscriber, so per-snapshot resets always precede the frames the
	// renderer draws from.
	bus.Subscribe(s.onControllerEvent)
	s.ctrl = controller.New(p, bus)
	s.nav = search.NewNavigator(s)
	s.panel = detail.NewPanel()
	return s
}

// Post feeds a raw client message into the session loop. It reports false
// once the loop has exited.
func (s *Session) Post(msg []byte) bool {
	buf := append([]byte(nil), msg...)
	select {
	case s.events <- buf:
		return true
	case <-s.done:
		return false
	}
}

// Run drives the session until the context is canceled. All state access
// happens here.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	s.ctx = ctx

	// Populate the root selector before the first user action.
	_ = s.ctrl.RefreshRoots(ctx)

	ticker := time.NewTicker(time.Duration(s.cfg.TickIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.engine != nil {
				s.engine.Stop()
			}
			return
		case ev := <-s.events:
			s.dispatch(ev)
		case <-ticker.C:
			if s.engine != nil {
				s.engine.Step()
			}
		}
	}
}

func (s *Session) dispatch(ev any) {
	switch m := ev.(type) {
	case []byte:
		s.handleClient(m)
	case loadDone:
		s.applyLoad(m)
	}
}

func (s *Session) handleClient(raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.send(statusFrame{Type: "status", Code: StatusBadMessage, Detail: err.Error()})
		return
	}

	switch msg.Type {
	case "selectRoot":
		s.selectRoot(msg.Root)
	case "refreshRoots":
		// A manual refresh means the backend graph may have changed, so
		// cached snapshots are no longer trustworthy.
		if inv, ok := s.provider.(interface{ InvalidateCache() }); ok {
			inv.InvalidateCache()
		}
		_ = s.ctrl.RefreshRoots(s.ctx)
	case "excludeAdditional":
		_ = s.ctrl.SetExcludeAdditional(s.ctx, msg.Exclude)
	case "excludeThirdParty":
		_ = s.ctrl.SetExcludeThirdParty(s.ctx, msg.Exclude)
	case "selectPackages":
		_ = s.ctrl.SetThirdPartyPackages(s.ctx, msg.Packages)
	case "searchTerm":
		s.nav.SetTerm(msg.Term)
		s.sendSearchState()
	case "searchStep":
		dir := 1
		if msg.Direction < 0 {
			dir = -1
		}
		s.nav.Step(dir)
		s.sendSearchState()
	case "nodeClick", "panelNav":
		s.selectNode(msg.ID)
	case "dragStart", "dragMove":
		if s.engine != nil {
			s.engine.Pin(msg.ID, msg.X, msg.Y)
		}
	case "dragEnd":
		if s.engine != nil {
			s.engine.Release(msg.ID)
		}
	default:
		s.send(statusFrame{Type: "status", Code: StatusBadMessage, Detail: "unknown message type: " + msg.Type})
	}
}

// selectRoot starts an asynchronous snapshot load. "all" loads the union
// view; an empty root is rejected before any network traffic.
func (s *Session) selectRoot(root string) {
	if root == "" {
		s.send(statusFrame{Type: "status", Code: StatusEmptySelection})
		return
	}
	if root == "all" {
		root = ""
	}

	l := s.ctrl.StartLoad(root)
	go func() {
		snap, err := s.ctrl.FetchLoad(s.ctx, l)
		select {
		case s.events <- loadDone{load: l, snap: snap, err: err}:
		case <-s.done:
		}
	}()
}

func (s *Session) applyLoad(m loadDone) {
	// Stale responses are discarded silently; failures have already
	// published a notice on the bus.
	_ = s.ctrl.CompleteLoad(m.load, m.snap, m.err)
}

// selectNode handles node clicks and panel cross-links the same way: an
// in-view node becomes the panel selection and is highlighted and
// centered, anything else reports not-in-view and changes nothing.
func (s *Session) selectNode(id string) {
	view, err := s.panel.Select(id)
	if err != nil {
		s.send(statusFrame{Type: "status", Code: StatusNotInView, Detail: id})
		return
	}
	s.send(panelFrame{Type: "panel", Panel: view})
	s.nav.Highlight(id)
}

func (s *Session) sendSearchState() {
	s.send(searchFrame{
		Type:    "search",
		Term:    s.nav.Term(),
		Matches: s.nav.Matches(),
		Index:   s.nav.Index(),
	})
}

func (s *Session) onControllerEvent(ev controller.Event) {
	switch e := ev.(type) {
	case controller.RootsUpdated:
		s.send(rootsFrame{
			Type:               "roots",
			Roots:              e.Roots,
			UnusedChains:       e.UnusedChains,
			ThirdPartyPackages: e.ThirdPartyPackages,
			SelectedPackages:   s.ctrl.SelectedPackages(),
		})
	case controller.FilterChanged:
		s.send(filtersFrame{
			Type:              "filters",
			ExcludeAdditional: e.Filters.ExcludeAdditional,
			ExcludeThirdParty: e.Filters.ExcludeThirdParty,
			SelectedPackages:  e.Filters.ThirdPartyPackages,
		})
	case controller.SnapshotLoaded:
		s.replaceEngine(e.Snapshot)
		// Search and panel state from the old snapshot is reset before
		// the renderer hears about the new one.
		s.nav.Rebind(e.Snapshot)
		s.panel.Rebind(e.Snapshot)
		s.send(snapshotFrame{
			Type:          "snapshot",
			Root:          e.Root,
			Nodes:         e.Snapshot.Nodes,
			Edges:         e.Snapshot.Edges,
			ChainSummary:  e.Snapshot.ChainSummary,
			IsUnusedChain: e.Snapshot.IsUnusedChain,
		})
		s.sendSearchState()
	case controller.ViewCleared:
		if s.engine != nil {
			s.engine.Stop()
			s.engine = nil
		}
		s.nav.Rebind(nil)
		s.panel.Rebind(nil)
		s.send(clearedFrame{Type: "cleared", Cause: e.Cause})
	case controller.Notice:
		frame := statusFrame{Type: "status", Code: e.Code}
		if e.Err != nil {
			frame.Detail = e.Err.Error()
		}
		s.send(frame)
	}
}

// replaceEngine stops any running simulation before a new one starts; pins
// and velocities never survive a snapshot change.
func (s *Session) replaceEngine(snap *graph.Snapshot) {
	if s.engine != nil {
		s.engine.Stop()
	}
	s.engine = layout.New(s.cfg.Layout, snap)
	s.engine.OnTick = func(pts []layout.Point) {
		s.send(positionsFrame{Type: "positions", Positions: pts})
	}
}

// search.Sink implementation.

// HighlightNode sends the highlight decoration, with the centering
// transform when requested and the node has a live position.
func (s *Session) HighlightNode(id string, center bool) {
	frame := highlightFrame{Type: "highlight", ID: id}
	if center && s.engine != nil {
		if p, ok := s.engine.Position(id); ok {
			tr := s.camera.CenterOn(p)
			frame.Transform = &tr
		}
	}
	s.send(frame)
}

// ClearHighlight removes all highlight decoration without panning.
func (s *Session) ClearHighlight() {
	s.send(highlightFrame{Type: "highlight", ID: ""})
}

// Status forwards a navigator status code.
func (s *Session) Status(code string) {
	s.send(statusFrame{Type: "status", Code: code})
}

func (s *Session) send(v any) {
	if err := s.w.WriteJSON(v); err != nil {
		log.Printf("server: session %s write: %v", s.id, err)
	}
}
