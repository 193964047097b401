package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

func TestExtractExtractionID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid extraction URI",
			uri:      "lexica://extractions/ext-123",
			expected: "ext-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://extractions/ext-123",
			expected: "",
		},
		{
			name:     "listing URI",
			uri:      "lexica://extractions",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "lexica://extractions/ext-123/raw",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractExtractionID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleExtractionsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil archive returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}})
		require.NoError(t, err)

		result, err := server.handleExtractionsResource(ctx, makeReadResourceRequest("lexica://extractions"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns summaries", func(t *testing.T) {
		archive := &mockArchiveService{summaries: []domain.ExtractionSummary{{
			ID:          "ext-1",
			Title:       "Rome",
			SourceURL:   "https://en.wikipedia.org/wiki/Rome",
			Type:        domain.ArticleTypePlace,
			AIEnhanced:  true,
			ExtractedAt: time.Date(2025, 1, 21, 10, 30, 0, 0, time.UTC),
		}}}
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}, Archive: archive})
		require.NoError(t, err)

		result, err := server.handleExtractionsResource(ctx, makeReadResourceRequest("lexica://extractions"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"uri": "lexica://extractions/ext-1"`)
		assert.Contains(t, text, `"title": "Rome"`)
		assert.Contains(t, text, `"type": "place"`)
		assert.Contains(t, text, `"extracted_at": "2025-01-21T10:30:00Z"`)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		archive := &mockArchiveService{err: errors.New("database error")}
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}, Archive: archive})
		require.NoError(t, err)

		_, err = server.handleExtractionsResource(ctx, makeReadResourceRequest("lexica://extractions"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing extractions")
	})
}

func TestServer_handleExtractionResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil archive returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}})
		require.NoError(t, err)

		_, err = server.handleExtractionResource(ctx, makeReadResourceRequest("lexica://extractions/extraction-1"))

		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}, Archive: &mockArchiveService{}})
		require.NoError(t, err)

		_, err = server.handleExtractionResource(ctx, makeReadResourceRequest("lexica://invalid/uri"))

		require.Error(t, err)
	})

	t.Run("missing extraction returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}, Archive: &mockArchiveService{}})
		require.NoError(t, err)

		_, err = server.handleExtractionResource(ctx, makeReadResourceRequest("lexica://extractions/nope"))

		require.Error(t, err)
		assert.NotContains(t, err.Error(), "getting extraction")
	})

	t.Run("returns extraction JSON", func(t *testing.T) {
		archive := &mockArchiveService{}
		require.NoError(t, archive.Save(ctx, testExtraction()))
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}, Archive: archive})
		require.NoError(t, err)

		result, err := server.handleExtractionResource(ctx, makeReadResourceRequest("lexica://extractions/extraction-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"id": "extraction-1"`)
		assert.Contains(t, result.Contents[0].Text, `"summary": "Rome is the capital of Italy."`)
		assert.Equal(t, "lexica://extractions/extraction-1", result.Contents[0].URI)
	})

	t.Run("returns error on storage failure", func(t *testing.T) {
		archive := &mockArchiveService{err: errors.New("disk error")}
		server, err := NewServer(&Ports{Extraction: &mockExtractionService{}, Archive: archive})
		require.NoError(t, err)

		_, err = server.handleExtractionResource(ctx, makeReadResourceRequest("lexica://extractions/extraction-1"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting extraction")
	})
}

func TestServer_ReadResourceOverSession(t *testing.T) {
	ctx := context.Background()
	archive := &mockArchiveService{}
	require.NoError(t, archive.Save(ctx, testExtraction()))
	server, err := NewServer(&Ports{Extraction: &mockExtractionService{}, Archive: archive})
	require.NoError(t, err)

	session := connect(ctx, t, server)
	result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "lexica://extractions/extraction-1"})

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"title": "Rome"`)
}
