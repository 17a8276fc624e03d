package search

import (
	"strings"

	"github.com/gaoych/bean-analyze/internal/graph"
)

// NoMatch is the search index value when no matches exist.
const NoMatch = -1

// Status codes surfaced to the presentation layer. Wording is the caller's
// concern.
const (
	StatusNoMatches         = "search.no-matches"
	StatusNothingToNavigate = "search.nothing-to-navigate"
)

// Sink receives the navigator's side effects. The session wires it to the
// rendering surface.
type Sink interface {
	// HighlightNode marks one node highlighted, panning the viewport onto
	// it when center is set.
	HighlightNode(id string, center bool)
	// ClearHighlight removes all highlight decoration without panning.
	ClearHighlight()
	// Status reports a non-error condition code.
	Status(code string)
}

// Navigator drives the incremental, cyclic search protocol over the node
// set of the active snapshot.
type Navigator struct {
	sink Sink

	ids         []string
	term        string
	matches     []string
	index       int
	highlighted string
}

// NewNavigator creates a navigator with no snapshot bound.
func NewNavigator(sink Sink) *Navigator {
	return &Navigator{sink: sink, index: NoMatch}
}

// Rebind points the navigator at a new snapshot. Match state from the old
// snapshot is meaningless against new node identities, so it is reset; a
// surviving term is recomputed against the new node set without panning.
func (n *Navigator) Rebind(snap *graph.Snapshot) {
	if snap == nil {
		n.ids = nil
	} else {
		n.ids = snap.NodeIDs()
	}
	n.matches = nil
	n.index = NoMatch
	n.highlighted = ""
	n.sink.ClearHighlight()

	if n.term != "" {
		n.recompute()
	}
}

// SetTerm recomputes the match set for a case-insensitive substring match
// against node ids, in snapshot iteration order. An empty term clears all
// matches and any highlight. The first match, when one exists, is
// highlighted and centered.
func (n *Navigator) SetTerm(term string) {
	n.term = term
	if term == "" {
		n.matches = nil
		n.index = NoMatch
		n.Highlight("")
		return
	}

	n.recompute()
	if n.index == NoMatch {
		n.Highlight("")
		n.sink.Status(StatusNoMatches)
		return
	}
	n.HighlightCurrent()
}

func (n *Navigator) recompute() {
	needle := strings.ToLower(n.term)
	n.matches = nil
	for _, id := range n.ids {
		if strings.Contains(strings.ToLower(id), needle) {
			n.matches = append(n.matches, id)
		}
	}
	if len(n.matches) == 0 {
		n.index = NoMatch
	} else {
		n.index = 0
	}
}

// Step advances the match cursor cyclically by direction (+1 or -1) and
// highlights and centers the resulting match. With zero matches it reports
// "nothing to navigate" and changes nothing.
func (n *Navigator) Step(direction int) bool {
	count := len(n.matches)
	if count == 0 {
		n.sink.Status(StatusNothingToNavigate)
		return false
	}
	n.index = ((n.index+direction)%count + count) % count
	n.HighlightCurrent()
	return true
}

// HighlightCurrent re-applies highlight and centering on the match under
// the cursor.
func (n *Navigator) HighlightCurrent() {
	if n.index == NoMatch {
		return
	}
	n.highlighted = n.matches[n.index]
	n.sink.HighlightNode(n.highlighted, true)
}

// Highlight marks at most one node as highlighted; the previous highlight
// is implicitly cleared. An empty id clears all decoration without panning.
func (n *Navigator) Highlight(id string) {
	n.highlighted = id
	if id == "" {
		n.sink.ClearHighlight()
		return
	}
	n.sink.HighlightNode(id, true)
}

// Term returns the active search term.
func (n *Navigator) Term() string { return n.term }

// Matches returns the ordered match set.
func (n *Navigator) Matches() []string { return n.matches }

// Index returns the cursor into Matches, or NoMatch.
func (n *Navigator) Index() int { return n.index }

// Highlighted returns the currently highlighted node id, if any.
func (n *Navigator) Highlighted() string { return n.highlighted }
