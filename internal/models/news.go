package models

import "time"

// NewsArticle is one news item for a symbol. Sentiment is nil when the
// provider has no entity sentiment for the article.
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source,omitempty"`
	Sentiment   *float64  `json:"sentiment,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
}
