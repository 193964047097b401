// Package wikipedia fetches articles, previews and existence checks from the
// MediaWiki action API.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
	"github.com/custodia-labs/lexica-cli/internal/core/ports/driven"
	"github.com/custodia-labs/lexica-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.EncyclopediaClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL        = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent      = "Lexica/1.0 (https://github.com/custodia-labs/lexica-cli)"
	DefaultTimeout        = 30 * time.Second
	DefaultPreviewTimeout = 10 * time.Second
)

// Config holds configuration for the Wikipedia client.
type Config struct {
	// BaseURL is the api.php endpoint (default: English Wikipedia).
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds document fetches and existence checks (default: 30s).
	Timeout time.Duration

	// PreviewTimeout bounds preview fetches (default: 10s).
	PreviewTimeout time.Duration

	// Limiter paces requests when set.
	Limiter *rate.Limiter

	// HTTPClient performs requests (default: http.DefaultClient).
	HTTPClient *http.Client

	// Logger receives request logs. Nil disables logging.
	Logger logger.Logger
}

// Client talks to the MediaWiki action API.
type Client struct {
	client         *http.Client
	baseURL        string
	userAgent      string
	timeout        time.Duration
	previewTimeout time.Duration
	limiter        *rate.Limiter
	log            logger.Logger
}

// NewClient creates a new Wikipedia client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PreviewTimeout <= 0 {
		cfg.PreviewTimeout = DefaultPreviewTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{
		client:         cfg.HTTPClient,
		baseURL:        cfg.BaseURL,
		userAgent:      cfg.UserAgent,
		timeout:        cfg.Timeout,
		previewTimeout: cfg.PreviewTimeout,
		limiter:        cfg.Limiter,
		log:            logger.OrNop(cfg.Logger),
	}
}

// parseResponse is the action=parse response format.
type parseResponse struct {
	Parse *struct {
		Title        string `json:"title"`
		PageID       int    `json:"pageid"`
		DisplayTitle string `json:"displaytitle"`
		Text         struct {
			Content string `json:"*"`
		} `json:"text"`
		Categories []struct {
			Name string `json:"*"`
		} `json:"categories"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

// queryResponse is the action=query (formatversion=2) response format.
type queryResponse struct {
	Query *struct {
		Pages []queryPage `json:"pages"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

type queryPage struct {
	Title      string `json:"title"`
	Missing    bool   `json:"missing"`
	Invalid    bool   `json:"invalid"`
	Extract    string `json:"extract"`
	FullURL    string `json:"fullurl"`
	Categories []struct {
		Title string `json:"title"`
	} `json:"categories"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// FetchDocument retrieves the rendered markup of an article.
func (c *Client) FetchDocument(ctx context.Context, title string) (*domain.RawDocument, error) {
	start := time.Now()
	c.log.Info("fetching article", logger.String("title", title))

	params := url.Values{
		"action":             {"parse"},
		"format":             {"json"},
		"page":               {title},
		"prop":               {"text|categories|displaytitle|sections"},
		"disableeditsection": {"true"},
		"redirects":          {"true"},
		"origin":             {"*"},
	}

	body, err := c.get(ctx, title, params, c.timeout)
	if err != nil {
		return nil, err
	}

	var resp parseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchInvalidResponse, Title: title, Err: err}
	}
	if resp.Error != nil {
		return nil, apiErrorToFetch(title, resp.Error)
	}
	if resp.Parse == nil {
		return nil, &domain.FetchError{Kind: domain.FetchInvalidResponse, Title: title, Err: errors.New("response has no parse result")}
	}

	p := resp.Parse
	categories := make([]string, 0, len(p.Categories))
	for _, cat := range p.Categories {
		categories = append(categories, strings.ReplaceAll(cat.Name, "_", " "))
	}

	doc := &domain.RawDocument{
		Title:        p.Title,
		DisplayTitle: p.DisplayTitle,
		PageID:       p.PageID,
		Markup:       p.Text.Content,
		Categories:   categories,
		WordCount:    domain.CountWords(tagPattern.ReplaceAllString(p.Text.Content, " ")),
	}

	c.log.Info("fetched article",
		logger.String("title", doc.Title),
		logger.Int("word_count", doc.WordCount),
		logger.Duration("duration", time.Since(start)),
	)
	return doc, nil
}

// FetchPreview retrieves the intro extract, categories and thumbnail of an
// article without fetching its body.
func (c *Client) FetchPreview(ctx context.Context, title string) (*domain.ArticlePreview, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"titles":        {title},
		"prop":          {"extracts|categories|pageimages|info"},
		"exintro":       {"true"},
		"explaintext":   {"true"},
		"exsentences":   {"4"},
		"cllimit":       {"10"},
		"clshow":        {"!hidden"},
		"piprop":        {"thumbnail"},
		"pithumbsize":   {"200"},
		"inprop":        {"url"},
		"redirects":     {"true"},
		"origin":        {"*"},
	}

	page, err := c.queryPage(ctx, title, params, c.previewTimeout)
	if err != nil {
		return nil, err
	}
	if page.Missing || page.Invalid {
		return nil, &domain.FetchError{Kind: domain.FetchNotFound, Title: title}
	}

	preview := &domain.ArticlePreview{
		Title:      page.Title,
		Extract:    page.Extract,
		Categories: make([]string, 0, len(page.Categories)),
		PageURL:    page.FullURL,
	}
	if preview.Title == "" {
		preview.Title = title
	}
	for _, cat := range page.Categories {
		preview.Categories = append(preview.Categories, strings.TrimPrefix(cat.Title, "Category:"))
	}
	if page.Thumbnail != nil {
		preview.ThumbnailURL = page.Thumbnail.Source
	}
	if preview.PageURL == "" {
		preview.PageURL = domain.ArticleURL(domain.DefaultArticleHost, title)
	}
	return preview, nil
}

// PageExists reports whether an article exists. Only an explicit "missing"
// or "invalid" marker yields false; every other failure is returned as an
// error.
func (c *Client) PageExists(ctx context.Context, title string) (bool, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"titles":        {title},
		"redirects":     {"true"},
	}

	page, err := c.queryPage(ctx, title, params, c.timeout)
	if err != nil {
		return false, err
	}
	return !page.Missing && !page.Invalid, nil
}

func (c *Client) queryPage(ctx context.Context, title string, params url.Values, timeout time.Duration) (*queryPage, error) {
	body, err := c.get(ctx, title, params, timeout)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchInvalidResponse, Title: title, Err: err}
	}
	if resp.Error != nil {
		return nil, apiErrorToFetch(title, resp.Error)
	}
	if resp.Query == nil || len(resp.Query.Pages) == 0 {
		return nil, &domain.FetchError{Kind: domain.FetchInvalidResponse, Title: title, Err: errors.New("response has no pages")}
	}
	return &resp.Query.Pages[0], nil
}

// get performs one GET request and maps transport and status failures to
// FetchError.
func (c *Client) get(ctx context.Context, title string, params url.Values, timeout time.Duration) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.FetchError{Kind: domain.FetchNetwork, Title: title, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, Title: title, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &domain.TimeoutError{Op: fmt.Sprintf("fetch %q", title), After: timeout, Err: err}
		}
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, Title: title, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchNetwork, Title: title, Err: err}
	}

	c.log.Debug("source response",
		logger.String("title", title),
		logger.String("action", params.Get("action")),
		logger.Int("status", resp.StatusCode),
	)

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &domain.FetchError{Kind: domain.FetchRateLimited, Title: title, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return nil, &domain.FetchError{Kind: domain.FetchServerError, Title: title, StatusCode: resp.StatusCode}
	default:
		return nil, &domain.FetchError{Kind: domain.FetchUnexpectedStatus, Title: title, StatusCode: resp.StatusCode}
	}
}

func apiErrorToFetch(title string, e *apiError) error {
	err := fmt.Errorf("%s: %s", e.Code, e.Info)
	if e.Code == "missingtitle" {
		return &domain.FetchError{Kind: domain.FetchNotFound, Title: title, Err: err}
	}
	return &domain.FetchError{Kind: domain.FetchInvalidResponse, Title: title, Err: err}
}
