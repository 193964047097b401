package html

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

// extractInfobox reads the first infobox panel. Rows need both a header and
// a data cell. A panel with no usable rows yields nil.
func extractInfobox(root *goquery.Selection) *domain.Infobox {
	box := root.Find("table.infobox").First()
	if box.Length() == 0 {
		return nil
	}

	var fields []domain.InfoboxField
	box.Find("tr").Each(func(_ int, row *goquery.Selection) {
		key := textOf(row.ChildrenFiltered("th").First())
		value := textOf(row.ChildrenFiltered("td").First())
		if key == "" || value == "" {
			return
		}
		fields = append(fields, domain.InfoboxField{Key: key, Value: value})
	})
	if len(fields) == 0 {
		return nil
	}

	return &domain.Infobox{Type: infoboxType(box), Fields: fields}
}

// infoboxType derives a label from the first class that is not a generic marker.
func infoboxType(box *goquery.Selection) string {
	class, _ := box.Attr("class")
	for _, c := range strings.Fields(class) {
		if c == "infobox" || c == "vcard" {
			continue
		}
		return "Infobox " + c
	}
	return ""
}

// alternateNameKeys match infobox keys that carry other names.
var alternateNameKeys = []string{
	"native name", "other names", "also known as", "birth name", "born",
	"chinese", "japanese", "korean", "sanskrit", "transliteration", "romanization",
}

const maxAlternateNameLen = 100

// alternateNames splits matching infobox values on commas and semicolons,
// dropping long fragments and duplicates. Order follows the infobox.
func alternateNames(box *domain.Infobox) []string {
	names := []string{}
	if box == nil {
		return names
	}

	seen := make(map[string]bool)
	for _, f := range box.Fields {
		if !isAlternateNameKey(f.Key) {
			continue
		}
		parts := strings.FieldsFunc(f.Value, func(r rune) bool { return r == ',' || r == ';' })
		for _, part := range parts {
			name := strings.TrimSpace(part)
			if name == "" || utf8.RuneCountInString(name) >= maxAlternateNameLen || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func isAlternateNameKey(key string) bool {
	k := strings.ToLower(key)
	for _, candidate := range alternateNameKeys {
		if strings.Contains(k, candidate) {
			return true
		}
	}
	return false
}
