package domain

import (
	"fmt"
	"strings"
	"time"
)

// SearchCandidate is an unvalidated article suggestion from the LLM.
type SearchCandidate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SearchResult is a candidate confirmed to exist in the encyclopedia.
// Selected is the only field that changes after creation.
type SearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Selected    bool   `json:"selected"`
}

// SearchBatch is the outcome of one discovery call.
type SearchBatch struct {
	// Candidates are the validated results, in batch order.
	Candidates []SearchResult `json:"candidates"`

	// EstimatedTotal is the LLM's estimate of all relevant articles.
	// Continuation batches leave it zero.
	EstimatedTotal int `json:"estimated_total"`

	// HasMore is the LLM's signal that further batches would yield results.
	HasMore bool `json:"has_more"`

	// Usage is the exact token usage of the call.
	Usage TokenUsage `json:"usage"`
}

// SearchSession is a paged discovery session.
//
// LoadedCount always equals len(Results). IsFullyLoaded becomes true once a
// continuation yields no new results or LoadedCount reaches the estimate.
type SearchSession struct {
	Query               string         `json:"query"`
	Timestamp           time.Time      `json:"timestamp"`
	Results             []SearchResult `json:"results"`
	EstimatedTotalCount int            `json:"estimated_total_count"`
	LoadedCount         int            `json:"loaded_count"`
	IsFullyLoaded       bool           `json:"is_fully_loaded"`
	Costs               *CostTracker   `json:"-"`

	continuations int
}

// NewSearchSession starts a session from the initial discovery batch.
func NewSearchSession(query string, batch SearchBatch, now time.Time) *SearchSession {
	s := &SearchSession{
		Query:     query,
		Timestamp: now,
		Results:   append([]SearchResult(nil), batch.Candidates...),
		Costs:     NewCostTracker(),
	}
	s.LoadedCount = len(s.Results)
	s.EstimatedTotalCount = max(batch.EstimatedTotal, s.LoadedCount)
	s.IsFullyLoaded = s.LoadedCount >= batch.EstimatedTotal || batch.EstimatedTotal <= 0
	s.Costs.Record("Initial search", batch.Usage, now)
	return s
}

// ApplyContinuation appends new results from a continuation batch,
// skipping titles already loaded, and returns how many were added.
func (s *SearchSession) ApplyContinuation(batch SearchBatch, now time.Time) int {
	seen := make(map[string]bool, len(s.Results))
	for _, r := range s.Results {
		seen[strings.ToLower(r.Title)] = true
	}

	added := 0
	for _, r := range batch.Candidates {
		key := strings.ToLower(r.Title)
		if seen[key] {
			continue
		}
		seen[key] = true
		s.Results = append(s.Results, r)
		added++
	}

	s.continuations++
	s.LoadedCount = len(s.Results)
	s.EstimatedTotalCount = max(s.EstimatedTotalCount, s.LoadedCount)
	if added == 0 || s.LoadedCount >= s.EstimatedTotalCount {
		s.IsFullyLoaded = true
	}
	s.Costs.Record(fmt.Sprintf("Load more (×%d)", s.continuations), batch.Usage, now)
	return added
}

// NextBatchNumber returns the continuation batch index for the given
// page size.
func (s *SearchSession) NextBatchNumber(batchSize int) int {
	if batchSize <= 0 {
		return 0
	}
	return s.LoadedCount / batchSize
}

// LoadedTitles returns the titles of all loaded results.
func (s *SearchSession) LoadedTitles() []string {
	titles := make([]string, len(s.Results))
	for i, r := range s.Results {
		titles[i] = r.Title
	}
	return titles
}

// Toggle flips the selection of the result with the given ID and reports
// whether it was found.
func (s *SearchSession) Toggle(id string) bool {
	for i := range s.Results {
		if s.Results[i].ID == id {
			s.Results[i].Selected = !s.Results[i].Selected
			return true
		}
	}
	return false
}

// SetAllSelected selects or deselects every result.
func (s *SearchSession) SetAllSelected(selected bool) {
	for i := range s.Results {
		s.Results[i].Selected = selected
	}
}

// Selected returns the selected results in order.
func (s *SearchSession) Selected() []SearchResult {
	var out []SearchResult
	for _, r := range s.Results {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}
