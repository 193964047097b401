package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

func TestPreviewCmd_PrintsPreview(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.extraction.preview = &domain.ArticlePreview{
		Title:        "Rome",
		Extract:      "Rome is the capital city of Italy.",
		Categories:   []string{"Capitals in Europe", "Populated places"},
		ThumbnailURL: "https://upload.wikimedia.org/rome.jpg",
		PageURL:      "https://en.wikipedia.org/wiki/Rome",
	}

	stdout, _, err := execute(t, "preview", "Rome")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Rome is the capital city of Italy.")
	assert.Contains(t, stdout, "Categories: Capitals in Europe, Populated places")
	assert.Contains(t, stdout, "URL: https://en.wikipedia.org/wiki/Rome")
	assert.Contains(t, stdout, "Thumbnail: https://upload.wikimedia.org/rome.jpg")
}

func TestPreviewCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.extraction.err = domain.ErrNotFound

	_, _, err := execute(t, "preview", "Nowhere")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestEstimateCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.extraction.estimate = domain.TokenEstimate{InputTokens: 1_000_000, OutputTokens: 100_000}

	stdout, _, err := execute(t, "estimate", "https://en.wikipedia.org/wiki/Ada_Lovelace")

	require.NoError(t, err)
	require.Len(t, ts.extraction.gotRefs, 1)
	assert.Equal(t, "Ada Lovelace", ts.extraction.gotRefs[0].Title)
	assert.Contains(t, stdout, "Ada Lovelace\n")
	assert.Contains(t, stdout, "Input tokens:  ~1000000")
	assert.Contains(t, stdout, "Cost:          ~$4.5000")
}

func TestEstimateCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.extraction.estimate = domain.TokenEstimate{InputTokens: 1_000_000, OutputTokens: 100_000}

	stdout, _, err := execute(t, "estimate", "--json", "Rome")

	require.NoError(t, err)
	var out struct {
		Estimate domain.TokenEstimate `json:"estimate"`
		Cost     float64              `json:"estimated_cost_usd"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 1_000_000, out.Estimate.InputTokens)
	assert.InDelta(t, 4.5, out.Cost, 1e-9)
}

func TestEstimateCmd_InvalidArticle(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "estimate", "https://example.com/page")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
