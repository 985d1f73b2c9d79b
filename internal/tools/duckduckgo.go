package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	duckDuckGoLiteURL = "https://lite.duckduckgo.com/lite/"
	userAgent         = "Mozilla/5.0 (compatible; research-agent/0.1)"
	noSearchResult    = "No good DuckDuckGo Search Result was found"
)

type DuckDuckGoConfig struct {
	MaxResults int
	Endpoint   string
	Client     *http.Client
}

// DuckDuckGo searches the web through the DuckDuckGo lite HTML interface.
type DuckDuckGo struct {
	endpoint   string
	maxResults int
	client     *http.Client
}

type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = duckDuckGoLiteURL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &DuckDuckGo{endpoint: endpoint, maxResults: maxResults, client: client}
}

func (d *DuckDuckGo) Name() string { return "search" }

func (d *DuckDuckGo) Description() string {
	return "Search the web for the latest information on the given topic"
}

func (d *DuckDuckGo) Run(ctx context.Context, input string) (string, error) {
	query, err := checkInput(input)
	if err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("duckduckgo search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("duckduckgo search failed: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("duckduckgo parse: %w", err)
	}
	results := d.parseResults(doc)
	if len(results) == 0 {
		return noSearchResult, nil
	}
	lines := make([]string, 0, len(results))
	for _, result := range results {
		line := result.Title
		if result.Snippet != "" {
			line += ": " + result.Snippet
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", line, result.URL))
	}
	return strings.Join(lines, "\n"), nil
}

// parseResults pairs each result link with the snippet row that follows it.
func (d *DuckDuckGo) parseResults(doc *goquery.Document) []searchResult {
	var snippets []string
	doc.Find("td.result-snippet").Each(func(_ int, s *goquery.Selection) {
		snippets = append(snippets, strings.Join(strings.Fields(s.Text()), " "))
	})

	var results []searchResult
	doc.Find("a.result-link").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		title := strings.TrimSpace(s.Text())
		if href == "" || title == "" {
			return true
		}
		result := searchResult{Title: title, URL: resolveRedirect(href)}
		if i < len(snippets) {
			result.Snippet = snippets[i]
		}
		results = append(results, result)
		return len(results) < d.maxResults
	})
	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
