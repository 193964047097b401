// Package domain defines the core business entities for Lexica.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Article markup as returned by the encyclopedia API
//   - ParsedDocument: Structured view of an article (infobox, tables, sections)
//   - EnrichmentResult: LLM-derived summary, classification, facts and context
//   - Extraction: The immutable artifact produced for one article
//   - SearchSession: Paged discovery results with cost accounting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
