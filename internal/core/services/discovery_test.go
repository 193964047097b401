package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

func newTestDiscovery(client *mockMessagesClient, enc *mockEncyclopedia) (*DiscoveryService, *[]time.Duration) {
	completion, _ := newTestCompletion(client)
	svc := NewDiscoveryService(DiscoveryConfig{
		Completer:    completion,
		Encyclopedia: enc,
		Settings: domain.DiscoverySettings{
			BatchSize:           50,
			MaxTokens:           8192,
			ValidationBatchSize: 2,
			ValidationPause:     100 * time.Millisecond,
		},
	})
	var pauses []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return ctx.Err()
	}
	var n atomic.Int32
	svc.newID = func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
	return svc, &pauses
}

func articlesJSON(titles ...string) string {
	parts := make([]string, len(titles))
	for i, t := range titles {
		parts[i] = fmt.Sprintf(`{"title": %q, "description": "about %s"}`, t, t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func titlesOf(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Title
	}
	return out
}

func TestDiscover_ValidatesInBatchesAndKeepsOrder(t *testing.T) {
	reply := `{"estimatedTotal": 120, "reasoning": "broad", "articles": ` +
		articlesJSON("Ancient Rome", "Roman Empire", "Fake Page", "Julius Caesar", "Augustus") + `}`
	client := &mockMessagesClient{script: []scriptedReply{
		{text: reply, usage: domain.TokenUsage{InputTokens: 400, OutputTokens: 900}},
	}}
	enc := &mockEncyclopedia{missing: map[string]bool{"Fake Page": true}}
	svc, pauses := newTestDiscovery(client, enc)

	batch, err := svc.Discover(context.Background(), "  ancient rome ")

	require.NoError(t, err)
	assert.Equal(t, []string{"Ancient Rome", "Roman Empire", "Julius Caesar", "Augustus"}, titlesOf(batch.Candidates))
	assert.Equal(t, 120, batch.EstimatedTotal)
	assert.True(t, batch.HasMore)
	assert.Equal(t, domain.TokenUsage{InputTokens: 400, OutputTokens: 900}, batch.Usage)
	assert.Len(t, enc.checkedTitles(), 5)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, *pauses)

	first := batch.Candidates[0]
	assert.Equal(t, "https://en.wikipedia.org/wiki/Ancient_Rome", first.URL)
	assert.Equal(t, "about Ancient Rome", first.Description)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Selected)

	require.Len(t, client.requests, 1)
	assert.Equal(t, 8192, client.requests[0].MaxTokens)
	assert.Contains(t, client.requests[0].Prompt, "Find Wikipedia articles about: ancient rome")
	assert.Contains(t, client.requests[0].Prompt, "list the 50 most relevant")
	assert.Contains(t, client.requests[0].System, "Respond with valid JSON only")
}

func TestDiscover_ValidationFailsOpen(t *testing.T) {
	defer goleak.VerifyNone(t)

	reply := `{"estimatedTotal": 3, "articles": ` + articlesJSON("Flaky", "Missing", "Fine") + `}`
	client := &mockMessagesClient{script: []scriptedReply{{text: reply}}}
	enc := &mockEncyclopedia{
		missing:   map[string]bool{"Missing": true},
		existsErr: map[string]error{"Flaky": errors.New("connection reset")},
	}
	svc, _ := newTestDiscovery(client, enc)

	batch, err := svc.Discover(context.Background(), "topic")

	require.NoError(t, err)
	assert.Equal(t, []string{"Flaky", "Fine"}, titlesOf(batch.Candidates))
}

func TestDiscover_RecoversTruncatedResponse(t *testing.T) {
	reply := `{"estimatedTotal": 80, "articles": [` +
		`{"title": "Ancient Rome", "description": "Roman civilization"}, ` +
		`{"title": "Roman Republic", "description": "509-27 BC"}, ` +
		`{"title": "Roman Empire", "description": "Roman ci`
	client := &mockMessagesClient{script: []scriptedReply{{text: reply}}}
	svc, _ := newTestDiscovery(client, &mockEncyclopedia{})

	batch, err := svc.Discover(context.Background(), "rome")

	require.NoError(t, err)
	assert.Equal(t, []string{"Ancient Rome", "Roman Republic"}, titlesOf(batch.Candidates))
	assert.Equal(t, 80, batch.EstimatedTotal)
}

func TestDiscover_EmptyQuery(t *testing.T) {
	client := &mockMessagesClient{}
	svc, _ := newTestDiscovery(client, &mockEncyclopedia{})

	_, err := svc.Discover(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, client.calls())
}

func TestDiscover_CompletionErrorSurfaces(t *testing.T) {
	client := &mockMessagesClient{script: []scriptedReply{statusReply(401)}}
	enc := &mockEncyclopedia{}
	svc, _ := newTestDiscovery(client, enc)

	_, err := svc.Discover(context.Background(), "rome")

	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	assert.Empty(t, enc.checkedTitles())
}

func TestDiscover_CancelledDuringValidation(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reply := `{"estimatedTotal": 4, "articles": ` + articlesJSON("A", "B", "C", "D") + `}`
	client := &mockMessagesClient{script: []scriptedReply{{text: reply}}}
	enc := &mockEncyclopedia{existsHook: func(title string) {
		if title == "B" {
			cancel()
		}
	}}
	svc, _ := newTestDiscovery(client, enc)

	_, err := svc.Discover(ctx, "letters")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, enc.checkedTitles(), "C")
	assert.NotContains(t, enc.checkedTitles(), "D")
}

func TestContinueDiscovery_FiltersLoadedTitles(t *testing.T) {
	reply := `{"articles": ` + articlesJSON("ancient rome", "Colosseum", "Pantheon, Rome", "colosseum") + `, "hasMore": false}`
	client := &mockMessagesClient{script: []scriptedReply{{text: reply}}}
	enc := &mockEncyclopedia{}
	svc, _ := newTestDiscovery(client, enc)

	batch, err := svc.ContinueDiscovery(context.Background(), "rome", []string{"Ancient Rome", "Roman Empire"}, 1)

	require.NoError(t, err)
	assert.Equal(t, []string{"Colosseum", "Pantheon, Rome"}, titlesOf(batch.Candidates))
	assert.ElementsMatch(t, []string{"Colosseum", "Pantheon, Rome"}, enc.checkedTitles())
	assert.Zero(t, batch.EstimatedTotal)
	assert.False(t, batch.HasMore)

	prompt := client.requests[0].Prompt
	assert.Contains(t, prompt, "This is batch 2.")
	assert.Contains(t, prompt, "Ancient Rome\nRoman Empire")
}

func TestContinueDiscovery_CapsExcludedTitles(t *testing.T) {
	loaded := make([]string, 60)
	for i := range loaded {
		loaded[i] = fmt.Sprintf("Loaded %02d", i)
	}
	client := &mockMessagesClient{script: []scriptedReply{{text: `{"articles": [], "hasMore": false}`}}}
	svc, _ := newTestDiscovery(client, &mockEncyclopedia{})

	batch, err := svc.ContinueDiscovery(context.Background(), "rome", loaded, 3)

	require.NoError(t, err)
	assert.Empty(t, batch.Candidates)
	prompt := client.requests[0].Prompt
	assert.Contains(t, prompt, "Loaded 49")
	assert.NotContains(t, prompt, "Loaded 50")
}

func TestParseDiscoveryResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		tier     RecoveryTier
		titles   []string
		estimate int
		hasMore  bool
	}{
		{
			name:     "clean",
			input:    `{"estimatedTotal": 10, "articles": [{"title": "A", "description": "a"}]}`,
			tier:     TierClean,
			titles:   []string{"A"},
			estimate: 10,
			hasMore:  true,
		},
		{
			name:     "markdown fence and preamble",
			input:    "```json\nHere you go: {\"estimatedTotal\": 0, \"articles\": [{\"title\": \"A\", \"description\": \"a\"}]}\n```",
			tier:     TierClean,
			titles:   []string{"A"},
			estimate: 0,
			hasMore:  false,
		},
		{
			name:     "explicit hasMore wins",
			input:    `{"estimatedTotal": 10, "hasMore": false, "articles": [{"title": "A", "description": "a"}]}`,
			tier:     TierClean,
			titles:   []string{"A"},
			estimate: 10,
			hasMore:  false,
		},
		{
			name:     "truncated inside title",
			input:    `{"estimatedTotal": 5, "articles": [{"title": "A", "description": "a"}, {"title": "B, with \"quotes\"", "description": "b"}, {"tit`,
			tier:     TierRepaired,
			titles:   []string{"A", `B, with "quotes"`},
			estimate: 5,
			hasMore:  true,
		},
		{
			name:     "truncated after comma",
			input:    `{"estimatedTotal": 5, "articles": [{"title": "A", "description": "a"},`,
			tier:     TierRepaired,
			titles:   []string{"A"},
			estimate: 5,
			hasMore:  true,
		},
		{
			name:     "regex fallback",
			input:    `{"articles": [{"title": "A", "description": "a"} {"title": "B", "description": "b"}]}`,
			tier:     TierRegex,
			titles:   []string{"A", "B"},
			estimate: 2,
			hasMore:  true,
		},
		{
			name:     "truncated right after an object keeps the estimate",
			input:    `{"estimatedTotal": 40, "articles": [{"title": "A", "description": "a"}, {"title": "B", "description": "b"}`,
			tier:     TierRegex,
			titles:   []string{"A", "B"},
			estimate: 40,
			hasMore:  true,
		},
		{
			name:  "no object",
			input: "I could not find any articles.",
			tier:  TierFailed,
		},
		{
			name:  "unrecoverable",
			input: `{"estimatedTotal": "lots" "articles"}`,
			tier:  TierFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tier := ParseDiscoveryResponse(tt.input)
			assert.Equal(t, tt.tier, tier)
			titles := make([]string, 0, len(got.Articles))
			for _, a := range got.Articles {
				titles = append(titles, a.Title)
			}
			if tt.titles == nil {
				assert.Empty(t, titles)
				return
			}
			assert.Equal(t, tt.titles, titles)
			assert.Equal(t, tt.estimate, got.EstimatedTotal)
			assert.Equal(t, tt.hasMore, got.HasMore)
		})
	}
}

func TestRepairTruncatedJSON(t *testing.T) {
	assert.Equal(t,
		`{"a": [{"title": "x]{", "description": "y"}]}`,
		repairTruncatedJSON(`{"a": [{"title": "x]{", "description": "y"}, {"title": "z`))
}
