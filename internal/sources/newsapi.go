package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"radar/internal/core"
)

const newsAPIEndpoint = "https://newsapi.org/v2/everything"

// NewsAPISource fetches articles from the newsapi.org "everything" endpoint.
type NewsAPISource struct {
	apiKey   string
	endpoint string
	pageSize int
	client   *http.Client
}

var _ Source = (*NewsAPISource)(nil)

// NewNewsAPISource creates a NewsAPI source. An empty endpoint uses the
// public API; tests point it at a local server.
func NewNewsAPISource(apiKey, endpoint string, pageSize int, timeout time.Duration) *NewsAPISource {
	if endpoint == "" {
		endpoint = newsAPIEndpoint
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &NewsAPISource{
		apiKey:   apiKey,
		endpoint: endpoint,
		pageSize: pageSize,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name identifies this source in logs and article records.
func (n *NewsAPISource) Name() string {
	return "newsapi"
}

// Fetch queries /v2/everything sorted by publication date, bounded below by
// the since cutoff.
func (n *NewsAPISource) Fetch(ctx context.Context, query string, since time.Time) ([]core.Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("from", since.UTC().Format(time.RFC3339))
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", strconv.Itoa(n.pageSize))

	req, err := http.NewRequestWithContext(ctx, "GET", n.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create NewsAPI request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute NewsAPI request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NewsAPI request failed with status: %d", resp.StatusCode)
	}

	var apiResponse struct {
		Status   string `json:"status"`
		Message  string `json:"message,omitempty"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse NewsAPI response: %w", err)
	}
	if apiResponse.Status != "" && apiResponse.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI error: %s", apiResponse.Message)
	}

	articles := make([]core.Article, 0, len(apiResponse.Articles))
	for _, a := range apiResponse.Articles {
		articles = append(articles, core.Article{
			SourceName:  n.Name(),
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: parseTime(a.PublishedAt),
			Snippet:     stripHTML(a.Description),
		})
	}
	return articles, nil
}
