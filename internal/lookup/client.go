// Package lookup consumes the external product database. The engine treats
// it as a black box: barcode in, ingredient and allergen text out.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/safebite/safebite/internal/common"
	"github.com/safebite/safebite/internal/model"
	"golang.org/x/time/rate"
)

// Client fetches products from an Open Food Facts compatible endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
}

// ClientConfig configures the lookup client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond bounds outbound calls; public product databases
	// throttle aggressively.
	RequestsPerSecond float64
	Burst             int
}

// NewClient creates a lookup client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://world.openfoodfacts.org"
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "safebite/1.0"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		baseURL:     baseURL,
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup fetches the product for a normalized barcode. A product the
// database doesn't know is common.ErrProductNotFound; transient failures are
// retried with backoff before being reported.
func (c *Client) Lookup(ctx context.Context, barcode string) (*model.Product, error) {
	var product *model.Product

	err := common.WithRetry(ctx, func() error {
		p, err := c.fetch(ctx, barcode)
		if err != nil {
			return err
		}
		product = p
		return nil
	}, common.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (c *Client) fetch(ctx context.Context, barcode string) (*model.Product, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err), Retryable: false}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrProductNotFound, barcode),
			Retryable: false,
		}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", common.ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", common.ErrLookupFailed, err)
	}

	var dto productResponse
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: malformed response: %v", common.ErrLookupFailed, err),
			Retryable: false,
		}
	}
	if dto.Status != 1 {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrProductNotFound, barcode),
			Retryable: false,
		}
	}

	return mapProduct(barcode, dto), nil
}
