package html

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// excludedTableClasses mark layout tables that are not data.
var excludedTableClasses = []string{"infobox", "navbox", "vertical-navbox", "sidebar"}

// extractTables collects data tables: wikitables first, then any other
// table that is not an infobox, navigation box or sidebar.
func (n *Normaliser) extractTables(root *goquery.Selection) []domain.Table {
	var candidates []*goquery.Selection
	seen := make(map[*html.Node]bool)
	add := func(t *goquery.Selection) {
		node := t.Get(0)
		if seen[node] {
			return
		}
		seen[node] = true
		candidates = append(candidates, t)
	}

	root.Find("table.wikitable").Each(func(_ int, t *goquery.Selection) { add(t) })
	root.Find("table").Each(func(_ int, t *goquery.Selection) {
		if isLayoutTable(t) {
			return
		}
		add(t)
	})

	tables := []domain.Table{}
	for i, t := range candidates {
		if table, ok := n.extractTable(t, i+1); ok {
			tables = append(tables, table)
		}
	}
	return tables
}

func isLayoutTable(t *goquery.Selection) bool {
	for _, class := range excludedTableClasses {
		if t.HasClass(class) {
			return true
		}
	}
	return t.ParentsFiltered("table.infobox, table.sidebar").Length() > 0
}

// extractTable reads one table. Tables without data rows are skipped.
func (n *Normaliser) extractTable(t *goquery.Selection, number int) (domain.Table, bool) {
	title := textOf(t.ChildrenFiltered("caption").First())
	if title == "" {
		title = fmt.Sprintf("Table %d", number)
	}

	ownRows := t.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.Closest("table").IsSelection(t)
	})

	headers := cellTexts(t.Find("thead th"))
	if len(headers) == 0 {
		headers = cellTexts(ownRows.First().ChildrenFiltered("th"))
	}

	var rows [][]string
	ownRows.Each(func(i int, row *goquery.Selection) {
		if i == 0 && len(headers) > 0 {
			return
		}
		cells := cellTexts(row.ChildrenFiltered("td, th"))
		if allEmpty(cells) {
			return
		}
		rows = append(rows, cells)
	})
	if len(rows) == 0 {
		return domain.Table{}, false
	}

	rowCount := len(rows)
	truncated := rowCount > n.maxTableRows
	if truncated {
		rows = rows[:n.maxTableRows]
	}
	if headers == nil {
		headers = []string{}
	}

	return domain.Table{
		ID:        fmt.Sprintf("table_%d", number),
		Title:     title,
		Headers:   headers,
		Rows:      rows,
		RowCount:  rowCount,
		Truncated: truncated,
	}, true
}

func cellTexts(cells *goquery.Selection) []string {
	var out []string
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, textOf(c))
	})
	return out
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
