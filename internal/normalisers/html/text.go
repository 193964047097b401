package html

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelectors are removed before any extraction.
var noiseSelectors = strings.Join([]string{
	"script", "style", "noscript",
	".mw-editsection",
	".reference", "sup.reference",
	".noprint", ".mw-empty-elt",
	"#coordinates",
	".sistersitebox",
	".navbox", ".vertical-navbox",
	".authority-control",
	".mbox-small", ".ambox", ".tmbox", ".ombox",
	".hatnote",
}, ", ")

func sanitize(s *goquery.Selection) {
	s.Find(noiseSelectors).Remove()
}

// blockElements separate their text from surrounding text.
var blockElements = map[string]bool{
	"address": true, "blockquote": true, "caption": true, "dd": true, "div": true,
	"dl": true, "dt": true, "figcaption": true, "figure": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "li": true,
	"ol": true, "p": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

// textOf returns the visible text of s with whitespace collapsed. Line
// breaks and block boundaries become single spaces.
func textOf(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		writeText(&b, n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteByte(' ')
			return
		}
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte(' ')
	}
}
