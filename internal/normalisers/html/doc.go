// Package html provides the Normaliser for encyclopedia article markup.
//
// It removes non-content nodes (scripts, edit links, citation markers,
// navigation boxes, maintenance banners) and then extracts the infobox,
// data tables, sections, "See also" links, lead paragraph and alternate
// names from what remains. Output is deterministic for a given input.
package html
