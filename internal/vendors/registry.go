package vendors

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/internal/config"
	"github.com/agentstation/stocksync/internal/transport"
	"github.com/agentstation/stocksync/pkg/logging"
	"github.com/agentstation/stocksync/pkg/retry"
)

// Spec describes one configured vendor, enabled or not.
type Spec struct {
	Name     string `json:"name"               yaml:"name"`
	Kind     Kind   `json:"kind"               yaml:"kind"`
	Location string `json:"location"           yaml:"location"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Enabled  bool   `json:"enabled"            yaml:"enabled"`
}

// Registry holds the fetchers built from configuration. Construction does
// no I/O; disabled vendors are never built.
type Registry struct {
	mu       sync.RWMutex
	specs    []Spec
	fetchers []Fetcher
}

// Option configures how a Registry builds its fetchers.
type Option func(*registryOptions)

type registryOptions struct {
	client *transport.Client
	policy *retry.Policy
	logger *zerolog.Logger
}

// WithTransport shares one transport client across all REST fetchers.
func WithTransport(c *transport.Client) Option {
	return func(o *registryOptions) { o.client = c }
}

// WithPolicy sets the retry policy for REST fetchers.
func WithPolicy(p retry.Policy) Option {
	return func(o *registryOptions) { o.policy = &p }
}

// WithLogger sets the logger handed to every fetcher.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *registryOptions) { o.logger = l }
}

// NewRegistry builds fetchers for every enabled vendor: REST vendors first,
// then CSV vendors, each in configured order. Duplicate names are kept.
func NewRegistry(cfg config.Vendors, opts ...Option) *Registry {
	o := &registryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}

	r := &Registry{}
	for _, rv := range cfg.REST {
		r.specs = append(r.specs, Spec{Name: rv.Name, Kind: KindREST, Location: rv.URL, Enabled: rv.IsEnabled()})
		if !rv.IsEnabled() {
			o.logger.Debug().Str("vendor", rv.Name).Msg("Vendor disabled, skipping")
			continue
		}
		restOpts := []RESTOption{WithClient(o.client), WithRESTLogger(o.logger)}
		if o.policy != nil {
			restOpts = append(restOpts, WithRetryPolicy(*o.policy))
		}
		r.fetchers = append(r.fetchers, NewRESTFetcher(rv.Name, rv.URL, restOpts...))
	}
	for _, cv := range cfg.CSV {
		r.specs = append(r.specs, Spec{Name: cv.Name, Kind: KindCSV, Location: cv.Path, Encoding: cv.Encoding, Enabled: cv.IsEnabled()})
		if !cv.IsEnabled() {
			o.logger.Debug().Str("vendor", cv.Name).Msg("Vendor disabled, skipping")
			continue
		}
		r.fetchers = append(r.fetchers, NewCSVFetcher(cv.Name, cv.Path, WithEncoding(cv.Encoding), WithCSVLogger(o.logger)))
	}
	return r
}

// Register appends a custom fetcher after the configured ones.
func (r *Registry) Register(f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers = append(r.fetchers, f)
	r.specs = append(r.specs, Spec{Name: f.Vendor(), Kind: f.Kind(), Enabled: true})
}

// Enabled returns the fetchers to run, in registry order.
func (r *Registry) Enabled() []Fetcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Fetcher, len(r.fetchers))
	copy(out, r.fetchers)
	return out
}

// Specs returns every configured vendor, including disabled ones.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Get returns the first enabled fetcher for vendor.
func (r *Registry) Get(vendor string) (Fetcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.fetchers {
		if f.Vendor() == vendor {
			return f, true
		}
	}
	return nil, false
}

// Len returns the number of enabled fetchers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fetchers)
}
