package extract

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TableLocator selects the calendar table inside a parsed document.
// Params: document root node.
// Returns: calendar table node or ErrCalendarNotFound.
//
// The locator is the only place that knows how the calendar is identified,
// so a selector-based strategy can replace the positional one without
// touching diff or state logic.
type TableLocator interface {
	Locate(doc *html.Node) (*html.Node, error)
}

// PositionalTableLocator identifies the calendar as the N-th table in
// document order. This mirrors the source page's current layout and is
// known to be fragile against markup reordering.
// Params: 1-based table index.
// Returns: positional locate strategy.
type PositionalTableLocator struct {
	Index int
}

// Locate returns the configured table by document position.
// Params: document root node.
// Returns: table node, or ErrCalendarNotFound when the page has fewer tables.
func (l PositionalTableLocator) Locate(doc *html.Node) (*html.Node, error) {
	tables := findAll(doc, atom.Table)
	if l.Index < 1 || len(tables) < l.Index {
		return nil, fmt.Errorf("%w: want table %d, page has %d", ErrCalendarNotFound, l.Index, len(tables))
	}
	return tables[l.Index-1], nil
}
