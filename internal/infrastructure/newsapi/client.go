package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsDispatch/internal/config"
	"NewsDispatch/internal/domain"
	"NewsDispatch/internal/source"
)

const defaultEndpoint = "https://newsapi.org/v2/everything"

// Client queries the NewsAPI "everything" endpoint for the most recent
// articles matching the configured keyword-OR query and domain allow-list.
type Client struct {
	endpoint string
	apiKey   string
	query    string
	domains  []string
	pageSize int
	language string
	client   *http.Client
}

var _ source.Provider = (*Client)(nil)

// NewClient wires an HTTP client; pageSize defaults to 20.
func NewClient(cfg config.NewsAPIConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		query:    cfg.Query,
		domains:  cfg.Domains,
		pageSize: pageSize,
		language: cfg.Language,
		client:   client,
	}
}

// Name identifies the provider inside the registry.
func (c *Client) Name() string {
	return "newsapi"
}

// FetchLatest pulls one page of articles sorted by publish time descending.
// Publish instants are returned as the provider's raw strings; parsing them
// is the coordinator's job so one malformed date drops one item.
func (c *Client) FetchLatest(ctx context.Context) ([]domain.Article, error) {
	pageURL, err := c.buildURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsDispatch/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned %s", resp.Status)
	}

	var payload struct {
		Status   string `json:"status"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
			URL         string `json:"url"`
			URLToImage  string `json:"urlToImage"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	articles := make([]domain.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		articles = append(articles, domain.Article{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Source:      item.Source.Name,
			URL:         item.URL,
			ImageURL:    item.URLToImage,
			PublishedAt: item.PublishedAt,
		})
	}

	return articles, nil
}

func (c *Client) buildURL() (string, error) {
	parsed, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", c.endpoint, err)
	}

	query := parsed.Query()
	query.Set("q", c.query)
	if len(c.domains) > 0 {
		query.Set("domains", strings.Join(c.domains, ","))
	}
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	if c.language != "" {
		query.Set("language", c.language)
	}
	query.Set("apiKey", c.apiKey)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
