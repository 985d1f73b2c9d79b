package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const noWikipediaResult = "No good Wikipedia Search Result was found"

type WikipediaConfig struct {
	TopK     int
	MaxChars int
	Language string
	// BaseURL overrides https://<language>.wikipedia.org.
	BaseURL string
	Client  *http.Client
}

// Wikipedia looks up article summaries through the MediaWiki action API.
type Wikipedia struct {
	apiURL   string
	topK     int
	maxChars int
	client   *http.Client
}

func NewWikipedia(cfg WikipediaConfig) *Wikipedia {
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.wikipedia.org", language)
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 1
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Wikipedia{
		apiURL:   strings.TrimRight(baseURL, "/") + "/w/api.php",
		topK:     topK,
		maxChars: cfg.MaxChars,
		client:   client,
	}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Description() string {
	return "A wrapper around Wikipedia. Useful for when you need to answer general questions about " +
		"people, places, companies, facts, historical events, or other subjects. " +
		"Input should be a search query."
}

func (w *Wikipedia) Run(ctx context.Context, input string) (string, error) {
	query, err := checkInput(input)
	if err != nil {
		return "", err
	}
	titles, err := w.search(ctx, query)
	if err != nil {
		return "", err
	}
	var summaries []string
	for _, title := range titles {
		extract, err := w.extract(ctx, title)
		if err != nil {
			return "", err
		}
		if extract == "" {
			continue
		}
		summaries = append(summaries, fmt.Sprintf("Page: %s\nSummary: %s", title, extract))
	}
	if len(summaries) == 0 {
		return noWikipediaResult, nil
	}
	return truncate(strings.Join(summaries, "\n\n"), w.maxChars), nil
}

func (w *Wikipedia) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(w.topK))
	params.Set("srprop", "")

	var payload struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := w.get(ctx, params, &payload); err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(payload.Query.Search))
	for _, hit := range payload.Query.Search {
		if hit.Title != "" {
			titles = append(titles, hit.Title)
		}
	}
	return titles, nil
}

func (w *Wikipedia) extract(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("titles", title)

	var payload struct {
		Query struct {
			Pages []struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
				Missing bool   `json:"missing"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := w.get(ctx, params, &payload); err != nil {
		return "", err
	}
	for _, page := range payload.Query.Pages {
		if !page.Missing {
			return strings.TrimSpace(page.Extract), nil
		}
	}
	return "", nil
}

func (w *Wikipedia) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia request failed: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wikipedia decode: %w", err)
	}
	return nil
}
