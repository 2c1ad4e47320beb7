package marketaux

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// Client is the Marketaux news provider binding.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Marketaux client with a configurable base URL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type newsResponse struct {
	Data []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		ImageURL    string `json:"image_url"`
		PublishedAt string `json:"published_at"`
		Source      string `json:"source"`
		Entities    []struct {
			SentimentScore *float64 `json:"sentiment_score"`
		} `json:"entities"`
	} `json:"data"`
}

// GetNews fetches the latest articles mentioning a symbol. An empty
// slice means no news, which is distinct from a fetch failure.
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]*models.NewsArticle, error) {
	params := url.Values{
		"symbols":         {strings.ToUpper(symbol)},
		"filter_entities": {"true"},
		"language":        {"en"},
		"limit":           {strconv.Itoa(limit)},
		"api_token":       {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/news/all?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build marketaux request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Unavailable("marketaux request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.RateLimited("news rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Unavailable(fmt.Sprintf("marketaux returned status %d", resp.StatusCode), nil)
	}

	var data newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.Unavailable("failed to decode marketaux response", err)
	}

	articles := make([]*models.NewsArticle, 0, len(data.Data))
	for _, item := range data.Data {
		article := &models.NewsArticle{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			ImageURL:    item.ImageURL,
			Source:      item.Source,
		}
		if t, err := time.Parse(time.RFC3339, item.PublishedAt); err == nil {
			article.PublishedAt = t
		}
		if len(item.Entities) > 0 {
			article.Sentiment = item.Entities[0].SentimentScore
		}
		articles = append(articles, article)
	}
	return articles, nil
}
