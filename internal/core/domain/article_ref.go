package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultArticleHost is the host used for bare titles.
const DefaultArticleHost = "en.wikipedia.org"

// MaxBatchSize is the largest number of articles accepted in one batch.
const MaxBatchSize = 200

// ArticleRef identifies one encyclopedia article.
type ArticleRef struct {
	// Title is the human-readable page title (spaces, not underscores).
	Title string `json:"title"`

	// URL is the canonical desktop article URL.
	URL string `json:"url"`
}

// ParseArticleRef accepts an article URL (desktop or mobile, with or without
// scheme) or a bare title and returns its canonical reference.
func ParseArticleRef(input string) (ArticleRef, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return ArticleRef{}, &ValidationError{Reason: ValidationEmptyInput, Input: input}
	}

	if !looksLikeURL(s) {
		title := normalizeTitle(s)
		if title == "" {
			return ArticleRef{}, &ValidationError{Reason: ValidationEmptyInput, Input: input}
		}
		return ArticleRef{Title: title, URL: ArticleURL(DefaultArticleHost, title)}, nil
	}

	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ArticleRef{}, &ValidationError{Reason: ValidationNotEncyclopediaURL, Input: s}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ArticleRef{}, &ValidationError{Reason: ValidationNotEncyclopediaURL, Input: s}
	}

	host := strings.ToLower(u.Hostname())
	if host != "wikipedia.org" && !strings.HasSuffix(host, ".wikipedia.org") {
		return ArticleRef{}, &ValidationError{Reason: ValidationNotEncyclopediaURL, Input: s}
	}
	host = strings.Replace(host, ".m.wikipedia.org", ".wikipedia.org", 1)
	if host == "wikipedia.org" || host == "www.wikipedia.org" {
		host = DefaultArticleHost
	}

	rest, ok := strings.CutPrefix(u.Path, "/wiki/")
	if !ok {
		return ArticleRef{}, &ValidationError{Reason: ValidationInvalidPath, Input: s}
	}
	title := normalizeTitle(rest)
	if title == "" {
		return ArticleRef{}, &ValidationError{Reason: ValidationInvalidPath, Input: s}
	}

	return ArticleRef{Title: title, URL: ArticleURL(host, title)}, nil
}

// ParseArticleRefs parses newline-separated input, skipping blank lines and
// duplicates. Invalid lines are returned as errors alongside the valid refs.
func ParseArticleRefs(text string) ([]ArticleRef, []error) {
	var (
		refs []ArticleRef
		errs []error
		seen = make(map[string]bool)
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ref, err := ParseArticleRef(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[ref.URL] {
			continue
		}
		seen[ref.URL] = true
		refs = append(refs, ref)
	}
	return refs, errs
}

// CheckBatchSize rejects batches larger than MaxBatchSize.
func CheckBatchSize(n int) error {
	if n > MaxBatchSize {
		return &ValidationError{Reason: ValidationBatchTooLarge, Input: strconv.Itoa(n), Limit: MaxBatchSize}
	}
	return nil
}

// looksLikeURL separates URLs from titles such as "St. Louis" or "AC/DC".
func looksLikeURL(s string) bool {
	if strings.Contains(s, "://") {
		return true
	}
	first, _, hasSlash := strings.Cut(s, "/")
	return hasSlash && strings.Contains(first, ".") && !strings.Contains(first, " ")
}

func normalizeTitle(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// ArticleURL builds the canonical https URL of title on host.
func ArticleURL(host, title string) string {
	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path:   "/wiki/" + strings.ReplaceAll(title, " ", "_"),
	}
	return u.String()
}
