package html

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

const (
	// minParagraphLen is the length a paragraph must exceed to count as prose.
	minParagraphLen = 30

	// minLeadParagraphLen is the length the lead paragraph must exceed.
	minLeadParagraphLen = 50
)

// boilerplateHeadings never become sections.
var boilerplateHeadings = map[string]bool{
	"see also":        true,
	"references":      true,
	"external links":  true,
	"notes":           true,
	"further reading": true,
	"bibliography":    true,
	"sources":         true,
	"footnotes":       true,
	"contents":        true,
	"navigation menu": true,
}

type heading struct {
	title string
	level int
}

// collectParagraphs returns the text of every substantive paragraph in
// document order.
func collectParagraphs(root *goquery.Selection) []string {
	var paragraphs []string
	root.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := textOf(p)
		if utf8.RuneCountInString(text) > minParagraphLen {
			paragraphs = append(paragraphs, text)
		}
	})
	return paragraphs
}

// buildSections spreads paragraphs evenly over the non-boilerplate h2/h3
// headings in document order. Headings do not map 1:1 onto paragraphs in
// the rendered markup, so the split is positional: each heading takes
// max(1, paragraphs/headings) paragraphs and the remainder joins the last
// emitted section. Without headings everything goes into one "Content"
// section.
func buildSections(root *goquery.Selection, paragraphs []string) []domain.Section {
	sections := []domain.Section{}
	if len(paragraphs) == 0 {
		return sections
	}

	headings := collectHeadings(root)
	if len(headings) == 0 {
		return append(sections, newSection(0, heading{title: "Content", level: 2}, paragraphs))
	}

	per := max(1, len(paragraphs)/len(headings))
	next := 0
	for _, h := range headings {
		if next >= len(paragraphs) {
			break
		}
		end := min(next+per, len(paragraphs))
		sections = append(sections, newSection(len(sections), h, paragraphs[next:end]))
		next = end
	}

	if next < len(paragraphs) {
		last := &sections[len(sections)-1]
		content := last.Content + "\n\n" + strings.Join(paragraphs[next:], "\n\n")
		last.Content = content
		last.WordCount = domain.CountWords(content)
	}
	return sections
}

func collectHeadings(root *goquery.Selection) []heading {
	var headings []heading
	root.Find("h2, h3").Each(func(_ int, h *goquery.Selection) {
		title := textOf(h)
		if title == "" || boilerplateHeadings[strings.ToLower(title)] {
			return
		}
		level := 2
		if goquery.NodeName(h) == "h3" {
			level = 3
		}
		headings = append(headings, heading{title: title, level: level})
	})
	return headings
}

func newSection(index int, h heading, paragraphs []string) domain.Section {
	content := strings.Join(paragraphs, "\n\n")
	return domain.Section{
		ID:        fmt.Sprintf("section_%d", index),
		Title:     h.title,
		Level:     h.level,
		Content:   content,
		WordCount: domain.CountWords(content),
	}
}

// firstParagraph returns the first direct paragraph child of the content
// root long enough to stand in for a summary.
func firstParagraph(root *goquery.Selection) string {
	var lead string
	root.ChildrenFiltered("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := textOf(p)
		if utf8.RuneCountInString(text) > minLeadParagraphLen {
			lead = text
			return false
		}
		return true
	})
	return lead
}
