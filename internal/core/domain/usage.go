package domain

import (
	"math"
	"sync"
	"time"
)

// TokenUsage is an exact token count reported by the LLM API.
// Estimates use TokenEstimate and never mix with TokenUsage totals.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add returns the saturating sum of u and o. Negative counts are ignored.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  addTokens(u.InputTokens, o.InputTokens),
		OutputTokens: addTokens(u.OutputTokens, o.OutputTokens),
	}
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return addTokens(u.InputTokens, u.OutputTokens)
}

// IsZero reports whether no tokens were used.
func (u TokenUsage) IsZero() bool {
	return u.InputTokens <= 0 && u.OutputTokens <= 0
}

// Cost returns the dollar cost under the given pricing.
func (u TokenUsage) Cost(p Pricing) float64 {
	return p.cost(u.InputTokens, u.OutputTokens)
}

// TokenEstimate is a pre-flight approximation of token usage.
type TokenEstimate struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Cost returns the estimated dollar cost under the given pricing.
func (e TokenEstimate) Cost(p Pricing) float64 {
	return p.cost(e.InputTokens, e.OutputTokens)
}

// Pricing is the per-million-token price of an LLM model.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing is the list price of the default model.
var DefaultPricing = Pricing{InputPerMillion: 3.0, OutputPerMillion: 15.0}

func (p Pricing) cost(in, out int) float64 {
	c := float64(max(in, 0))/1_000_000*p.InputPerMillion +
		float64(max(out, 0))/1_000_000*p.OutputPerMillion
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return 0
	}
	return c
}

// Estimation constants for a full extraction.
const (
	charsPerToken           = 4
	inputTokensPerWord      = 1.3
	outputTokensPerWord     = 0.15
	promptOverheadTokens    = 2000
	maxEstimatableWordCount = 50_000_000
)

// EstimateExtraction approximates the tokens an AI extraction of an article
// with the given word count will consume.
func EstimateExtraction(wordCount int) TokenEstimate {
	wc := float64(min(max(wordCount, 0), maxEstimatableWordCount))
	return TokenEstimate{
		InputTokens:  int(math.Round(wc*inputTokensPerWord)) + promptOverheadTokens,
		OutputTokens: int(math.Round(wc * outputTokensPerWord)),
	}
}

// EstimateTokens approximates the token count of text at four characters
// per token.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	return (n + charsPerToken - 1) / charsPerToken
}

func addTokens(a, b int) int {
	a, b = max(a, 0), max(b, 0)
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// CostEntry is one recorded LLM operation.
type CostEntry struct {
	Label string     `json:"label"`
	Usage TokenUsage `json:"usage"`
	At    time.Time  `json:"at"`
}

// CostTracker accumulates LLM usage for a session. It is append-only and
// safe for concurrent use.
type CostTracker struct {
	mu      sync.Mutex
	entries []CostEntry
}

// NewCostTracker creates an empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{}
}

// Record appends an entry and returns it.
func (t *CostTracker) Record(label string, usage TokenUsage, at time.Time) CostEntry {
	entry := CostEntry{Label: label, Usage: usage, At: at}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
	return entry
}

// Entries returns a copy of all recorded entries.
func (t *CostTracker) Entries() []CostEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CostEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Total returns the summed usage of every entry.
func (t *CostTracker) Total() TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total TokenUsage
	for _, e := range t.entries {
		total = total.Add(e.Usage)
	}
	return total
}

// Cost returns the summed cost of every entry.
func (t *CostTracker) Cost(p Pricing) float64 {
	return t.Total().Cost(p)
}
