// Package ratesource implements currency.RateSource against remote
// exchange-rate providers.
package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const maxResponseSize = 1 << 20

var (
	// ErrSourceUnavailable indicates the provider could not be reached
	ErrSourceUnavailable = errors.New("rate source: unavailable")
	// ErrSourceRequestFailed indicates the provider rejected the request
	ErrSourceRequestFailed = errors.New("rate source: request failed")
)

// Config configures an openexchangerates-compatible endpoint
type Config struct {
	BaseURL string
	AppID   string
	Timeout time.Duration
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("rate source: base URL is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("rate source: invalid base URL: %w", err)
	}
	return nil
}

// OpenExchangeRates queries GET {base}/latest.json?app_id=..&base=REF.
type OpenExchangeRates struct {
	config     Config
	httpClient *http.Client
}

// NewOpenExchangeRates creates a new client
func NewOpenExchangeRates(config Config) (*OpenExchangeRates, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenExchangeRates{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// latestResponse is the provider's payload. Error responses reuse the
// envelope with error set.
type latestResponse struct {
	Timestamp   int64                      `json:"timestamp"`
	Base        string                     `json:"base"`
	Rates       map[string]decimal.Decimal `json:"rates"`
	Error       bool                       `json:"error"`
	Status      int                        `json:"status"`
	Message     string                     `json:"message"`
	Description string                     `json:"description"`
}

// Name implements currency.RateSource
func (s *OpenExchangeRates) Name() string {
	return "openexchangerates"
}

// Latest implements currency.RateSource
func (s *OpenExchangeRates) Latest(ctx context.Context, base valueobject.Currency) (*currency.Quotes, error) {
	q := url.Values{}
	if s.config.AppID != "" {
		q.Set("app_id", s.config.AppID)
	}
	q.Set("base", base.String())
	endpoint := strings.TrimRight(s.config.BaseURL, "/") + "/latest.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("rate source: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("rate source: failed to read response: %w", err)
	}

	var payload latestResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%w: HTTP %d", ErrSourceRequestFailed, resp.StatusCode)
		}
		return nil, fmt.Errorf("rate source: failed to decode response: %w", err)
	}
	if resp.StatusCode >= 400 || payload.Error {
		return nil, fmt.Errorf("%w: HTTP %d %s: %s", ErrSourceRequestFailed, resp.StatusCode, payload.Message, payload.Description)
	}

	quotes := &currency.Quotes{
		Base:      valueobject.Currency(strings.ToUpper(payload.Base)),
		Timestamp: time.Unix(payload.Timestamp, 0).UTC(),
		Rates:     make(map[valueobject.Currency]decimal.Decimal, len(payload.Rates)),
	}
	for code, rate := range payload.Rates {
		if !rate.IsPositive() {
			continue
		}
		quotes.Rates[valueobject.Currency(strings.ToUpper(code))] = rate
	}
	return quotes, nil
}

var _ currency.RateSource = (*OpenExchangeRates)(nil)
