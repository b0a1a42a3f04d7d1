package pmcalc

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single page retrieval.
const DefaultTimeout = 30 * time.Second

// Extractor reads a unit price out of a retrieved page.
type Extractor interface {
	Extract(content []byte) (decimal.Decimal, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(content []byte) (decimal.Decimal, error)

func (f ExtractorFunc) Extract(content []byte) (decimal.Decimal, error) { return f(content) }

// PriceSource returns the current unit price published at url.
type PriceSource interface {
	FetchPrice(ctx context.Context, url string) (decimal.Decimal, error)
}

// PriceSourceFunc adapts a function to the PriceSource interface.
type PriceSourceFunc func(ctx context.Context, url string) (decimal.Decimal, error)

func (f PriceSourceFunc) FetchPrice(ctx context.Context, url string) (decimal.Decimal, error) {
	return f(ctx, url)
}

// HTTPSource is a PriceSource that downloads the page and hands it to an Extractor.
// It never retries and never caches. It is safe for concurrent use.
type HTTPSource struct {
	client    *http.Client
	extractor Extractor
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// SourceOption configures an HTTPSource.
type SourceOption func(*HTTPSource)

// WithHTTPClient replaces the underlying client. Its transport is kept, its
// timeout is reset to DefaultTimeout unless WithTimeout follows.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *HTTPSource) {
		c := *client
		c.Timeout = DefaultTimeout
		s.client = &c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) SourceOption {
	return func(s *HTTPSource) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithRateLimit paces requests to at most requestsPerSecond. Zero or less means unlimited.
func WithRateLimit(requestsPerSecond float64) SourceOption {
	return func(s *HTTPSource) {
		if requestsPerSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithSourceLogger sets the logger.
func WithSourceLogger(logger *zap.Logger) SourceOption {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// NewHTTPSource returns a source reading prices with extractor.
func NewHTTPSource(extractor Extractor, opts ...SourceOption) *HTTPSource {
	s := &HTTPSource{
		client:    &http.Client{Timeout: DefaultTimeout},
		extractor: extractor,
		limiter:   rate.NewLimiter(rate.Inf, 0),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPrice retrieves url once and extracts its price.
// Transport failures are *NetworkError, extraction failures are returned as the
// Extractor reported them.
func (s *HTTPSource) FetchPrice(ctx context.Context, url string) (decimal.Decimal, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return decimal.Zero, &NetworkError{URL: url, Err: err}
	}

	s.logger.Debug("fetching price page", zap.String("url", url))
	start := time.Now()
	body, err := wget(ctx, s.client, url)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("price page request failed", zap.String("url", url), zap.Duration("elapsed", elapsed), zap.Error(err))
		return decimal.Zero, err
	}

	price, err := s.extractor.Extract(body)
	if err != nil {
		s.logger.Warn("price extraction failed", zap.String("url", url), zap.Int("bytes", len(body)), zap.Error(err))
		return decimal.Zero, err
	}
	s.logger.Debug("price fetched", zap.String("url", url), zap.Stringer("price", price), zap.Duration("elapsed", elapsed))
	return price, nil
}

// WithExtractor returns a copy of s reading prices with x. Client, pacing and
// logger are shared with s.
func (s *HTTPSource) WithExtractor(x Extractor) *HTTPSource {
	c := *s
	c.extractor = x
	return &c
}
