package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/worachai/stock-tracker-bot/internal/errors"
	"github.com/worachai/stock-tracker-bot/internal/models"
)

// Client is the Finnhub quote provider binding.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Finnhub client. baseURL is configurable so tests
// can point it at a local server.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// GetQuote fetches a real-time price snapshot. A zero current price is
// how Finnhub reports an unknown symbol, so it surfaces as NotFound.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	sym := strings.ToUpper(symbol)

	var data quoteResponse
	if err := c.get(ctx, "/quote", url.Values{"symbol": {sym}}, &data); err != nil {
		return nil, err
	}

	if data.Current == 0 {
		return nil, apperrors.NotFound("no data found for symbol: %s", sym)
	}

	return &models.Quote{
		Symbol:        sym,
		CurrentPrice:  decimal.NewFromFloat(data.Current),
		Change:        decimal.NewFromFloat(data.Change),
		PercentChange: decimal.NewFromFloat(data.PercentChange),
		High:          decimal.NewFromFloat(data.High),
		Low:           decimal.NewFromFloat(data.Low),
		Open:          decimal.NewFromFloat(data.Open),
		PreviousClose: decimal.NewFromFloat(data.PreviousClose),
		Timestamp:     time.Unix(data.Timestamp, 0),
	}, nil
}

type profileResponse struct {
	Name            string `json:"name"`
	Ticker          string `json:"ticker"`
	Exchange        string `json:"exchange"`
	FinnhubIndustry string `json:"finnhubIndustry"`
	Currency        string `json:"currency"`
	WebURL          string `json:"weburl"`
}

// GetCompanyProfile fetches basic company information for a symbol.
func (c *Client) GetCompanyProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	sym := strings.ToUpper(symbol)

	var data profileResponse
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {sym}}, &data); err != nil {
		return nil, err
	}

	if data.Name == "" {
		return nil, apperrors.NotFound("no profile found for symbol: %s", sym)
	}

	return &models.CompanyProfile{
		Symbol:   sym,
		Name:     data.Name,
		Exchange: data.Exchange,
		Industry: data.FinnhubIndustry,
		Currency: data.Currency,
		WebURL:   data.WebURL,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build finnhub request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Unavailable("finnhub request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.RateLimited("finnhub rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Unavailable(fmt.Sprintf("finnhub returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Unavailable("failed to decode finnhub response", err)
	}
	return nil
}
