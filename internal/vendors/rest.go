package vendors

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/internal/transport"
	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
	"github.com/agentstation/stocksync/pkg/retry"
)

// restItem matches the vendor JSON payload.
type restItem struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	StockQuantity *int   `json:"stockQuantity"`
}

// RESTFetcher reads a JSON array of products from an HTTP endpoint,
// retrying transport failures and non-2xx answers.
type RESTFetcher struct {
	vendor string
	url    string
	client *transport.Client
	policy retry.Policy
	logger *zerolog.Logger
}

// RESTOption configures a RESTFetcher.
type RESTOption func(*RESTFetcher)

// WithClient sets the transport client.
func WithClient(c *transport.Client) RESTOption {
	return func(f *RESTFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithRetryPolicy overrides the default 3-attempt 1s/2s schedule.
func WithRetryPolicy(p retry.Policy) RESTOption {
	return func(f *RESTFetcher) {
		f.policy = p
	}
}

// WithRESTLogger sets the logger.
func WithRESTLogger(l *zerolog.Logger) RESTOption {
	return func(f *RESTFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewRESTFetcher creates a fetcher for the given vendor endpoint.
func NewRESTFetcher(vendor, url string, opts ...RESTOption) *RESTFetcher {
	f := &RESTFetcher{
		vendor: vendor,
		url:    url,
		policy: retry.Exponential(constants.RetryBackoff, constants.RetryMultiplier, constants.MaxRetryBackoff, constants.MaxRetries),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = transport.New()
	}
	if f.logger == nil {
		f.logger = logging.Default()
	}
	return f
}

// Vendor implements Fetcher.
func (f *RESTFetcher) Vendor() string { return f.vendor }

// Kind implements Fetcher.
func (f *RESTFetcher) Kind() Kind { return KindREST }

// URL returns the configured endpoint.
func (f *RESTFetcher) URL() string { return f.url }

// Deadline implements Bounded: every attempt may use the full request
// timeout, plus the waits in between.
func (f *RESTFetcher) Deadline() time.Duration {
	attempts := f.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(attempts)*f.client.Timeout() + f.policy.Budget()
}

// Fetch implements Fetcher.
func (f *RESTFetcher) Fetch(ctx context.Context) []inventory.VendorProduct {
	logger := f.logger.With().Str("vendor", f.vendor).Str("url", f.url).Logger()

	attempt := 0
	fetchOnce := func(ctx context.Context) ([]*restItem, error) {
		attempt++
		logger.Info().Int("attempt", attempt).Msg("Fetching vendor snapshot")
		var items []*restItem
		if _, err := f.client.GetJSON(ctx, f.vendor, f.url, &items); err != nil {
			if errors.IsTransient(err) {
				logger.Warn().Err(err).Int("attempt", attempt).Msg("Vendor fetch attempt failed")
			}
			return nil, err
		}
		return items, nil
	}

	items, stats, err := retry.Do(ctx, f.policy, fetchOnce, errors.IsTransient)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			logger.Error().Err(err).Msg("Vendor returned a malformed payload, returning empty")
		} else {
			logger.Error().Err(err).Int("attempts", stats.Attempts).Msg("Fetch failed, returning empty")
		}
		return []inventory.VendorProduct{}
	}

	products := make([]inventory.VendorProduct, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		products = append(products, inventory.VendorProduct{
			SKU:           it.SKU,
			Name:          it.Name,
			StockQuantity: it.StockQuantity,
			Vendor:        f.vendor,
		})
	}
	logger.Debug().Int("items", len(products)).Int("attempts", stats.Attempts).Msg("Fetched vendor snapshot")
	return products
}
