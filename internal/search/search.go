package search

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const (
	DefaultURL        = "https://html.duckduckgo.com/html/"
	DefaultMaxResults = 10

	resultPrefix = "- "
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
}

// Tried in order inside each result block; the first non-empty text wins.
var snippetSelectors = []string{
	".result__extras",
	".result__url",
	".result__snippet",
	".result__body",
	".result__title a",
	".result__a",
}

type Config struct {
	URL        string
	MaxResults int
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client scrapes the DuckDuckGo HTML endpoint and turns hits into prompt
// context for a model.
type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	cfg.Logger = cfg.Logger.With().Str("component", "search").Logger()
	return &Client{cfg: cfg}
}

// Search returns up to MaxResults snippets, each prefixed with "- ".
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search request: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return extractSnippets(doc, c.cfg.MaxResults), nil
}

func extractSnippets(doc *goquery.Document, limit int) []string {
	var out []string
	doc.Find("div.result, div.web-result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := firstText(s); text != "" {
			out = append(out, resultPrefix+text)
		}
		return len(out) < limit
	})
	return out
}

func firstText(s *goquery.Selection) string {
	for _, sel := range snippetSelectors {
		text := strings.Join(strings.Fields(s.Find(sel).First().Text()), " ")
		if text != "" {
			return text
		}
	}
	return ""
}

// Augment rewrites text into a search-grounded prompt when it looks like a
// lookup. Any search failure leaves text as it was.
func (c *Client) Augment(ctx context.Context, text string) string {
	if !ShouldSearch(text) {
		return text
	}
	snippets, err := c.Search(ctx, text)
	if err != nil {
		c.cfg.Logger.Warn().Err(err).Msg("web search failed, sending raw prompt")
		return text
	}
	if len(snippets) == 0 {
		c.cfg.Logger.Warn().Msg("web search returned no snippets, sending raw prompt")
		return text
	}
	c.cfg.Logger.Debug().Int("snippets", len(snippets)).Msg("prompt augmented with search results")
	return BuildPrompt(snippets, text)
}

func BuildPrompt(snippets []string, question string) string {
	return fmt.Sprintf(
		"these are the following search results i got:\n\"\"\"\n%s\n\"\"\"\n\n Answer the my original question getting directly to the point within 100 to 600 words: %s",
		strings.Join(snippets, "\n"),
		question,
	)
}
