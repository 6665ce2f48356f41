package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/flood-risk/internal/observability"
)

var (
	// ErrNoProviders is returned when a fetch is attempted without any provider.
	ErrNoProviders = errors.New("no weather providers configured")
	// ErrNoReadings is returned when every provider failed.
	ErrNoReadings = errors.New("no successful provider readings")
)

// Service orchestrates fetching from multiple providers and storing samples.
type Service struct {
	store     Store
	providers []Provider
	clock     clockwork.Clock
	maxAge    time.Duration
	metrics   *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used to stamp and age samples.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMaxAge sets how long a stored sample is served by Lookup before a new
// fetch. Zero disables reuse.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) { s.maxAge = d }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		providers: providers,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasProviders reports whether any provider is configured.
func (s *Service) HasProviders() bool {
	return len(s.providers) > 0
}

// FetchAndStore fetches data from all providers concurrently for the given
// location, aggregates successful readings, and stores a sample. When every
// provider fails the last good sample is kept.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	_, err := s.fetchAndStore(ctx, loc)
	return err
}

func (s *Service) fetchAndStore(ctx context.Context, loc Location) (Sample, error) {
	sample, err := s.fetch(ctx, loc)
	if err != nil {
		return Sample{}, err
	}
	s.store.SaveSample(loc, sample)
	return sample, nil
}

func (s *Service) fetch(ctx context.Context, loc Location) (Sample, error) {
	if len(s.providers) == 0 {
		return Sample{}, ErrNoProviders
	}

	// Indexed by provider so aggregation order does not depend on which
	// goroutine finishes first.
	results := make([]*ProviderReading, len(s.providers))

	var wg sync.WaitGroup
	for i, p := range s.providers {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			r, err := p.Fetch(ctx, loc)
			s.metrics.ObserveProviderFetch(p.Name(), err, time.Since(start))
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("ERROR: provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
				return
			}
			results[i] = &r
		}()
	}
	wg.Wait()

	readings := make([]ProviderReading, 0, len(results))
	for _, r := range results {
		if r != nil {
			readings = append(readings, *r)
		}
	}
	if len(readings) == 0 {
		return Sample{}, fmt.Errorf("%s: %w", loc.Key(), ErrNoReadings)
	}

	return AggregateReadings(loc, readings, s.clock.Now()), nil
}

// Lookup returns the current weather of a location and never fails. A stored
// sample younger than the configured max age is reused; otherwise providers
// are queried. If that fails the default sample is returned.
func (s *Service) Lookup(ctx context.Context, loc Location) Sample {
	if s.maxAge > 0 {
		if latest, err := s.store.GetLatest(loc); err == nil && s.clock.Since(latest.Timestamp) <= s.maxAge {
			s.metrics.ObserveWeatherLookup(observability.LookupCacheHit)
			return latest
		}
	}

	sample, err := s.fetchAndStore(ctx, loc)
	if err != nil {
		log.Printf("INFO: weather unavailable for %s, using defaults: %v", loc.Key(), err)
		s.metrics.ObserveWeatherLookup(observability.LookupDefault)
		return DefaultSample(loc, s.clock.Now())
	}

	s.metrics.ObserveWeatherLookup(observability.LookupFetched)
	return sample
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Sample, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Sample, error) {
	return s.store.GetRange(loc, from, to)
}
