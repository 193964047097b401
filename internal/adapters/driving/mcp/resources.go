package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Lexica resources.
	uriScheme = "lexica://"

	// extractionsURI lists the archive.
	extractionsURI = uriScheme + "extractions"

	// resourceListLimit caps the archive listing.
	resourceListLimit = 100
)

// registerResources registers the archive resources with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         extractionsURI,
		Name:        "extractions",
		Description: "Saved extractions, newest first",
		MIMEType:    "application/json",
	}, s.handleExtractionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: extractionsURI + "/{id}",
		Name:        "extraction",
		Description: "A saved extraction as a complete JSON record",
		MIMEType:    "application/json",
	}, s.handleExtractionResource)
}

// handleExtractionsResource returns the archive listing.
func (s *Server) handleExtractionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Archive == nil {
		return jsonResource(req.Params.URI, []domain.ExtractionSummary{})
	}

	summaries, err := s.ports.Archive.List(ctx, resourceListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}

	type extractionInfo struct {
		URI         string `json:"uri"`
		Title       string `json:"title"`
		Type        string `json:"type"`
		AIEnhanced  bool   `json:"ai_enhanced"`
		ExtractedAt string `json:"extracted_at"`
	}

	infos := make([]extractionInfo, len(summaries))
	for i, sum := range summaries {
		infos[i] = extractionInfo{
			URI:         extractionsURI + "/" + sum.ID,
			Title:       sum.Title,
			Type:        sum.Type.String(),
			AIEnhanced:  sum.AIEnhanced,
			ExtractedAt: sum.ExtractedAt.Format(time.RFC3339),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleExtractionResource returns one saved extraction.
func (s *Server) handleExtractionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Archive == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractExtractionID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	extraction, err := s.ports.Archive.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return jsonResource(req.Params.URI, extraction)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractExtractionID extracts the ID from a URI like lexica://extractions/{id}.
func extractExtractionID(uri string) string {
	const prefix = extractionsURI + "/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
