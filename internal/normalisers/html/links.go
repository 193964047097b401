package html

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// extractSeeAlso reads the first list following the "See also" heading.
// Links into non-article namespaces (those containing ':') are skipped.
func (n *Normaliser) extractSeeAlso(root *goquery.Selection) []domain.Link {
	links := []domain.Link{}

	var heading *goquery.Selection
	root.Find("h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.EqualFold(textOf(h), "see also") {
			heading = h
			return false
		}
		return true
	})
	if heading == nil {
		return links
	}

	// Current markup wraps headings in <div class="mw-heading">.
	start := heading
	if heading.Parent().HasClass("mw-heading") {
		start = heading.Parent()
	}

	var list *goquery.Selection
	for sib := start.Next(); sib.Length() > 0; sib = sib.Next() {
		if isHeadingBlock(sib) {
			break
		}
		if goquery.NodeName(sib) == "ul" {
			list = sib
			break
		}
		if ul := sib.Find("ul").First(); ul.Length() > 0 {
			list = ul
			break
		}
	}
	if list == nil {
		return links
	}

	list.Find("li a[href^='/wiki/']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		title := textOf(a)
		if strings.Contains(href, ":") || title == "" {
			return
		}
		links = append(links, domain.Link{Title: title, URL: n.linkBase + href})
	})
	return links
}

func isHeadingBlock(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "h2", "h3":
		return true
	}
	return s.HasClass("mw-heading")
}
