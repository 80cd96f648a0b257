// Package scrape extracts river notices from gov.uk guidance pages.
//
// The pages hold several loosely structured HTML tables. Reconcile keeps the
// tables whose header matches an expected shape, attaches the first link of
// each row, and merges the rows into one normalized table with derived
// fields. Preset options describe the two pages the service reads.
package scrape

import (
	"fmt"
	"html"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
)

// Column names used by the presets.
const (
	ColumnWhen       = "When"
	ColumnWhere      = "Where"
	ColumnHappening  = "What's happening"
	ColumnReach      = "Reach"
	ColumnConditions = "Current conditions"
	ColumnFrom       = "From"
	ColumnTo         = "To"
)

// Split derives two fields from one column.
type Split struct {
	Column    string
	Separator string
	Into      [2]string
}

// EventFormat builds the display field from a text column and the row link.
type EventFormat struct {
	Column string
	// UnlinkedSeparator joins the text before the first colon to the rest
	// when the row has no link.
	UnlinkedSeparator string
}

// Options parameterize Reconcile.
type Options struct {
	// Shapes lists the accepted header sequences. Matching is exact after
	// whitespace and apostrophe normalization.
	Shapes [][]string
	// Rename, when set, replaces the header of every table with the same
	// number of columns and keeps it. Shapes is not consulted. A table without
	// a th header row gives up its first row as the header.
	Rename []string

	Split       *Split
	LocalColumn string
	LocalPlaces []string
	Event       *EventFormat
}

// MergedRow is one row of an accepted table plus derived fields.
type MergedRow struct {
	Fields map[string]string
	Link   string
	Local  string
	Event  string
}

// Get returns the named field, or "" when absent.
func (r MergedRow) Get(column string) string {
	return r.Fields[column]
}

// ClosuresOptions reads the restrictions and closures page.
func ClosuresOptions() Options {
	return Options{
		Shapes:      [][]string{{ColumnWhen, ColumnWhere, ColumnHappening}},
		LocalColumn: ColumnWhere,
		LocalPlaces: domain.LocalPlaces,
		Event:       &EventFormat{Column: ColumnHappening, UnlinkedSeparator: " "},
	}
}

// ConditionsOptions reads the current river conditions page.
func ConditionsOptions() Options {
	return Options{
		Rename: []string{ColumnReach, ColumnConditions},
		Split: &Split{
			Column:    ColumnReach,
			Separator: " to ",
			Into:      [2]string{ColumnFrom, ColumnTo},
		},
		LocalColumn: ColumnFrom,
		LocalPlaces: domain.LocalPlaces,
	}
}

// table is an HTML table reduced to text with one link slot per row.
// headless tables have no th-only row; their first row may serve as header.
type table struct {
	header     []string
	headless   bool
	rows       [][]string
	links      []string
	linkCounts []int
}

// promoteFirstRow uses the first body row as the header.
func (t table) promoteFirstRow() table {
	t.header = normalizeAll(t.rows[0])
	t.links = t.links[t.linkCounts[0]:]
	t.rows = t.rows[1:]
	t.linkCounts = t.linkCounts[1:]
	t.headless = false
	return t
}

// Reconcile parses r and merges the accepted tables. A page without matching
// tables yields an empty, non-nil result.
func Reconcile(r io.Reader, opts Options) ([]MergedRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	merged := []MergedRow{}
	for _, t := range parseTables(doc) {
		if t.headless {
			if opts.Rename == nil {
				continue
			}
			t = t.promoteFirstRow()
		}
		header, ok := accept(t.header, opts)
		if !ok {
			continue
		}

		// Positional alignment is only trusted when every row has exactly one link.
		links := t.links
		if len(links) != len(t.rows) {
			links = make([]string, len(t.rows))
		}

		for i, cells := range t.rows {
			merged = append(merged, buildRow(header, cells, links[i], opts))
		}
	}
	return merged, nil
}

func accept(header []string, opts Options) ([]string, bool) {
	if opts.Rename != nil {
		if len(header) != len(opts.Rename) {
			return nil, false
		}
		return opts.Rename, true
	}
	for _, shape := range opts.Shapes {
		if slices.Equal(header, normalizeAll(shape)) {
			return header, true
		}
	}
	return nil, false
}

func buildRow(header, cells []string, link string, opts Options) MergedRow {
	row := MergedRow{Fields: make(map[string]string, len(header)+2), Link: link}
	for i, name := range header {
		if i < len(cells) {
			row.Fields[name] = cells[i]
		} else {
			row.Fields[name] = ""
		}
	}

	if s := opts.Split; s != nil {
		before, after := splitFirst(row.Fields[s.Column], s.Separator)
		row.Fields[s.Into[0]] = before
		row.Fields[s.Into[1]] = after
	}
	if opts.LocalColumn != "" {
		row.Local = domain.LocalFlag(row.Fields[opts.LocalColumn], opts.LocalPlaces)
	}
	if e := opts.Event; e != nil {
		row.Event = formatEvent(row.Fields[e.Column], link, e.UnlinkedSeparator)
	}
	return row
}

// splitFirst splits s at the first sep. Without sep the whole value is
// returned first.
func splitFirst(s, sep string) (string, string) {
	if sep == "" {
		return s, ""
	}
	before, after, found := strings.Cut(s, sep)
	if !found {
		return s, ""
	}
	return before, after
}

// formatEvent wraps the text before the first colon in an anchor to link.
// The remainder, colon included, follows. Text and link are HTML-escaped.
// Without a colon an unlinked event is the text alone.
func formatEvent(text, link, unlinkedSep string) string {
	before, rest := text, ""
	if i := strings.IndexByte(text, ':'); i >= 0 {
		before, rest = text[:i], text[i:]
	}
	before, rest = html.EscapeString(before), html.EscapeString(rest)
	if link != "" {
		return "<a href='" + html.EscapeString(link) + "' target='_blank'>" + before + "</a>" + rest
	}
	if rest == "" {
		return before
	}
	return before + unlinkedSep + rest
}

func parseTables(doc *goquery.Document) []table {
	var tables []table
	doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		var t table
		s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			// Rows of nested tables belong to those tables.
			if !tr.Closest("table").IsSelection(s) {
				return
			}
			th := tr.ChildrenFiltered("th")
			td := tr.ChildrenFiltered("td")
			if t.header == nil && th.Length() > 0 && td.Length() == 0 {
				t.header = normalizeAll(cellTexts(th))
				return
			}
			if td.Length() == 0 {
				return
			}
			t.rows = append(t.rows, cellTexts(tr.ChildrenFiltered("th, td")))
			n := 0
			td.Each(func(_ int, cell *goquery.Selection) {
				if href, ok := cell.Find("a").First().Attr("href"); ok {
					t.links = append(t.links, href)
					n++
				}
			})
			t.linkCounts = append(t.linkCounts, n)
		})
		switch {
		case t.header != nil:
			tables = append(tables, t)
		case len(t.rows) > 0:
			t.headless = true
			tables = append(tables, t)
		}
	})
	return tables
}

func cellTexts(cells *goquery.Selection) []string {
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, collapseSpace(c.Text()))
	})
	return out
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalize folds typographic apostrophes in header text so that page edits
// switching between ' and ’ do not drop a table.
func normalize(s string) string {
	return collapseSpace(apostrophes.Replace(s))
}

func normalizeAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = normalize(s)
	}
	return out
}
