// Package prompts embeds the default LLM prompt templates.
//
// Templates are plain text files using Go fmt verbs. The argument order for
// each template is documented on the matching name in the driven package.
package prompts

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed defaults/*.txt
var defaults embed.FS

// Default returns the embedded template for name.
func Default(name string) (string, bool) {
	data, err := fs.ReadFile(defaults, "defaults/"+name+".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Names returns the names of all embedded templates, sorted.
func Names() []string {
	entries, err := fs.ReadDir(defaults, "defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(names)
	return names
}
