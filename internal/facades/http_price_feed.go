package facades

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const maxFeedBody = 1 << 20

// HTTPPriceFeed reads a price from a JSON HTTP endpoint, e.g. the ETH price in base currency.
type HTTPPriceFeed struct {
	client *http.Client
	url    string
	path   string // gjson path of the price, e.g. "data.price"
}

// NewHTTPPriceFeed creates a feed. client may be nil, in which case http.DefaultClient is used.
func NewHTTPPriceFeed(client *http.Client, url, path string) *HTTPPriceFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPriceFeed{client: client, url: url, path: path}
}

// Fetch calls the feed. Non-2xx responses are returned as *models.UpstreamError.
func (f *HTTPPriceFeed) Fetch(ctx context.Context, key string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Log.Errorw("price feed request failed", "key", key, "url", f.url, "error", err)
		return decimal.Zero, &models.UpstreamError{Source: f.url, StatusCode: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return decimal.Zero, &models.UpstreamError{Source: f.url, StatusCode: http.StatusBadGateway, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Log.Warnw("price feed returned an error status", "key", key, "status", resp.StatusCode)
		return decimal.Zero, &models.UpstreamError{Source: f.url, StatusCode: resp.StatusCode}
	}

	if !gjson.ValidBytes(body) {
		return decimal.Zero, fmt.Errorf("price feed %s: response is not JSON", f.url)
	}
	res := gjson.GetBytes(body, f.path)
	if !res.Exists() {
		return decimal.Zero, fmt.Errorf("price feed %s: no value at %q", f.url, f.path)
	}

	// numbers are parsed from their raw text to keep every digit
	raw := res.Raw
	if res.Type == gjson.String {
		raw = res.Str
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price feed %s: %q is not a number: %w", f.url, raw, err)
	}
	return price, nil
}
