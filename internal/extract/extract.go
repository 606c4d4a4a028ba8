// Package extract turns the reservation page markup into a canonical
// per-day availability snapshot.
//
// The pipeline: raw HTML → parse → locate calendar table → walk day-link
// cells → read availability markers. Everything below the table lookup
// degrades per cell: a day that fails to parse is left at the seeded
// default instead of failing the whole extraction.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"seatwatch/internal/domain"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrCalendarNotFound indicates the page structure no longer carries the
// expected calendar table.
var ErrCalendarNotFound = errors.New("calendar table not found")

// Options controls extraction behavior.
// Params: markup contract knobs with gaps filled by defaults.
// Returns: extractor construction settings.
type Options struct {
	// DateParam is the query parameter carrying the day date ("ynj").
	DateParam string
	// Locator selects the calendar table inside the document.
	Locator TableLocator
	// MinDayLinks triggers a warning when the page enumerates fewer
	// day links; 0 disables the check.
	MinDayLinks int
	// Logger receives per-cell skip lines; nil discards them.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.DateParam == "" {
		o.DateParam = "ynj"
	}
	if o.Locator == nil {
		o.Locator = PositionalTableLocator{Index: 3}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Extractor parses calendar markup for one fixed month.
// Params: watched month and markup contract options.
// Returns: pure markup-to-snapshot converter.
type Extractor struct {
	month domain.Month
	opts  Options
}

// New creates an extractor for one month.
// Params: watched month and options (zero value usable).
// Returns: initialized extractor.
func New(month domain.Month, opts Options) *Extractor {
	opts.defaults()
	return &Extractor{month: month, opts: opts}
}

// Extract converts raw page markup into a total day-status snapshot.
// Params: raw HTML document body.
// Returns: snapshot covering every day of the month, or ErrCalendarNotFound
// when the structural contract is broken. A page with zero recognized
// markers yields a valid all-full snapshot.
func (e *Extractor) Extract(markup []byte) (domain.StatusMap, error) {
	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	table, err := e.opts.Locator.Locate(doc)
	if err != nil {
		return nil, err
	}

	snapshot := domain.NewStatusMap(e.month)
	dayLinks := 0
	for _, cell := range findAll(table, atom.Td) {
		anchor := findFirst(cell, atom.A)
		if anchor == nil {
			continue
		}
		day, ok := e.dayFromHref(getAttr(anchor, "href"))
		if !ok {
			continue
		}
		dayLinks++
		if _, exists := snapshot[day]; !exists {
			e.opts.Logger.Debug("day link outside month domain", "day", day)
			continue
		}
		if status, found := markerStatus(anchor); found {
			snapshot[day] = status
		}
	}

	if e.opts.MinDayLinks > 0 && dayLinks < e.opts.MinDayLinks {
		// Likely a markup regression rather than genuine unavailability.
		e.opts.Logger.Warn("page enumerates fewer day links than expected",
			"found", dayLinks, "expected_at_least", e.opts.MinDayLinks)
	}

	return snapshot, nil
}

// dayFromHref extracts the day-of-month from one day-link URL.
// Params: raw href attribute value.
// Returns: parsed day and true, or false for non-day or malformed links.
func (e *Extractor) dayFromHref(href string) (int, bool) {
	if strings.TrimSpace(href) == "" {
		return 0, false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		e.opts.Logger.Debug("skipping cell with unparseable href", "href", href)
		return 0, false
	}
	value := parsed.Query().Get(e.opts.DateParam)
	if value == "" {
		return 0, false
	}

	// Date value looks like "2026-2-5"; the day is the last segment.
	segments := strings.Split(value, "-")
	day, err := strconv.Atoi(segments[len(segments)-1])
	if err != nil || day < 1 || day > 31 {
		e.opts.Logger.Debug("skipping cell with malformed date parameter",
			"param", e.opts.DateParam, "value", value)
		return 0, false
	}
	return day, true
}

// markerStatus reads the availability marker inside one day link.
// Params: anchor node of the day link.
// Returns: marker status and true, or false when no marker is present.
// A link without a recognized marker is not evidence of availability.
func markerStatus(anchor *html.Node) (domain.Status, bool) {
	marker := findFirst(anchor, atom.Em)
	if marker == nil {
		return domain.DefaultStatus, false
	}
	text := collectText(marker)
	switch {
	case strings.Contains(text, domain.GlyphOpen):
		return domain.StatusOpen, true
	case strings.Contains(text, domain.GlyphLimited):
		return domain.StatusLimited, true
	default:
		return domain.DefaultStatus, false
	}
}

// findAll collects element nodes of one tag in document order.
// Params: subtree root and element atom.
// Returns: matching nodes from a pre-order walk.
func findAll(root *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// findFirst returns the first element of one tag in document order.
// Params: subtree root and element atom.
// Returns: first matching node or nil.
func findFirst(root *html.Node, tag atom.Atom) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// getAttr returns one attribute value from an element node.
// Params: element node and attribute key.
// Returns: attribute value or empty string.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// collectText extracts all text from a node subtree.
// Params: subtree root.
// Returns: concatenated trimmed text content.
func collectText(n *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return builder.String()
}
