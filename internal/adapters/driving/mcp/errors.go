// Package mcp provides an MCP (Model Context Protocol) server adapter for Lexica.
// It lets AI assistants extract, preview and discover encyclopedia articles
// and read the extraction archive.
package mcp

import "errors"

// ErrMissingExtractionService is returned when the extraction service is not provided.
var ErrMissingExtractionService = errors.New("mcp: extraction service is required")

// errDiscoveryUnavailable is returned by discovery tools when no discovery
// service is configured.
var errDiscoveryUnavailable = errors.New("discovery is not available")
