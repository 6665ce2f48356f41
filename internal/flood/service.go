// Package flood combines the historical risk table with current weather to
// answer flood-risk questions about city districts.
package flood

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/flood-risk/internal/district"
	"github.com/i474232898/flood-risk/internal/observability"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/weather"
)

// ErrInvalidInput is returned for requests that can not be evaluated.
var ErrInvalidInput = errors.New("invalid input")

// maxConcurrentLookups bounds the weather lookups of one risk map.
const maxConcurrentLookups = 8

// WeatherLookup returns the current weather of a location. It never fails;
// when no live data is available it returns a default sample.
type WeatherLookup interface {
	Lookup(ctx context.Context, loc weather.Location) weather.Sample
}

// DistrictLocator places a district name in the catalogued district whose
// weather serves it. ok is false when the name can not be placed.
type DistrictLocator interface {
	Locate(name string) (d district.District, ok bool)
}

// Request is a user's prediction request.
type Request struct {
	District          string
	IsRaining         bool
	Drainage          int
	FloodsWhenRaining bool
}

// PredictionResult is the answer to a prediction request.
type PredictionResult struct {
	ID           string            `json:"id"`
	District     string            `json:"district"`
	Name         string            `json:"name"`
	BaseRisk     int               `json:"baseRisk"`
	Distribution risk.Distribution `json:"distribution"`
	InTable      bool              `json:"inTable"`
	Drainage     string            `json:"drainage"`
	Weather      weather.Sample    `json:"weather"`
	Assessment   risk.Assessment   `json:"assessment"`
	Contacts     []risk.Contact    `json:"contacts"`
	Social       []risk.Contact    `json:"social"`
	AssessedAt   time.Time         `json:"assessedAt"`
}

// MapEntry is the risk map classification of one district.
type MapEntry struct {
	District    string  `json:"district"`
	Name        string  `json:"name"`
	BaseRisk    int     `json:"baseRisk"`
	RainfallMmH float64 `json:"rainfallMmH"`
	Raining     bool    `json:"raining"`
	Risk        int     `json:"risk"`
	DisplayRisk int     `json:"displayRisk"`
	Color       string  `json:"color"`
}

// Service answers prediction and risk map requests.
type Service struct {
	table    *risk.Table
	weather  WeatherLookup
	resolver DistrictLocator
	clock    clockwork.Clock
	metrics  *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for assessment timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithResolver sets how district names are placed for weather lookups.
func WithResolver(r DistrictLocator) Option {
	return func(s *Service) { s.resolver = r }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service over a loaded risk table.
func NewService(table *risk.Table, lookup WeatherLookup, opts ...Option) *Service {
	s := &Service{
		table:    table,
		weather:  lookup,
		resolver: district.NewResolver(nil),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess evaluates the flood risk of a district for one user. Raining is
// what the user reports; rainfall intensity comes from the weather lookup.
func (s *Service) Assess(ctx context.Context, req Request) (PredictionResult, error) {
	key := district.Normalize(req.District)
	if key == "" {
		return PredictionResult{}, fmt.Errorf("%w: district is required", ErrInvalidInput)
	}

	baseRisk, dist, found := s.table.Lookup(key)
	sample := s.weather.Lookup(ctx, s.location(req.District))
	drainage := risk.ParseDrainage(req.Drainage)

	assessment := risk.Assess(risk.Input{
		BaseRisk:          baseRisk,
		RainfallMmH:       sample.RainfallMmH,
		IsRaining:         req.IsRaining,
		Drainage:          drainage,
		FloodsWhenRaining: req.FloodsWhenRaining,
	})
	s.metrics.ObserveAssessment(assessment.Risk, found)

	log.Printf("DEBUG: assessment for %s: base=%d rain=%.1fmm/h raining=%t drainage=%s floods=%t -> %d",
		key, baseRisk, sample.RainfallMmH, req.IsRaining, drainage, req.FloodsWhenRaining, assessment.Risk)

	return PredictionResult{
		ID:           uuid.NewString(),
		District:     key,
		Name:         district.DisplayName(req.District),
		BaseRisk:     baseRisk,
		Distribution: dist,
		InTable:      found,
		Drainage:     drainage.String(),
		Weather:      sample,
		Assessment:   assessment,
		Contacts:     risk.EmergencyContacts(),
		Social:       risk.SocialAccounts(),
		AssessedAt:   s.clock.Now().UTC(),
	}, nil
}

// RiskMap classifies each district for the map. An empty list means every
// catalogued district. Output follows the request order, with names that
// normalise to the same key reported once. Asking for more distinct
// districts than the catalogue holds is ErrInvalidInput.
func (s *Service) RiskMap(ctx context.Context, districts []string) ([]MapEntry, error) {
	start := time.Now()

	names, err := uniqueDistricts(districts)
	if err != nil {
		return nil, err
	}
	entries := make([]MapEntry, len(names))
	misses := make([]bool, len(names))

	sem := make(chan struct{}, maxConcurrentLookups)
	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var found bool
			entries[i], found = s.mapEntry(ctx, name)
			misses[i] = !found
		}()
	}
	wg.Wait()

	missCount := 0
	for _, m := range misses {
		if m {
			missCount++
		}
	}
	s.metrics.ObserveRiskMap(len(entries), missCount, time.Since(start))

	return entries, nil
}

func (s *Service) mapEntry(ctx context.Context, name string) (MapEntry, bool) {
	key := district.Normalize(name)
	baseRisk, _, found := s.table.Lookup(key)
	sample := s.weather.Lookup(ctx, s.location(name))

	assessment := risk.Assess(risk.Input{
		BaseRisk:    baseRisk,
		RainfallMmH: sample.RainfallMmH,
		IsRaining:   sample.IsRaining(),
		Drainage:    risk.DrainageFair,
	})

	return MapEntry{
		District:    key,
		Name:        district.DisplayName(name),
		BaseRisk:    baseRisk,
		RainfallMmH: sample.RainfallMmH,
		Raining:     sample.IsRaining(),
		Risk:        assessment.Risk,
		DisplayRisk: assessment.DisplayRisk,
		Color:       risk.Color(assessment.DisplayRisk),
	}, found
}

// location is the weather location serving a district name. Names that can
// not be placed share the city center location, so arbitrary input never
// creates new weather keys.
func (s *Service) location(name string) weather.Location {
	d, ok := s.resolver.Locate(name)
	if !ok {
		return weather.Location{
			District: district.CityCenterKey,
			Lat:      district.CityCenter.Lat,
			Lon:      district.CityCenter.Lon,
		}
	}
	return weather.Location{District: d.Key, Lat: d.Coordinates.Lat, Lon: d.Coordinates.Lon}
}

func uniqueDistricts(districts []string) ([]string, error) {
	all := district.All()
	if len(districts) == 0 {
		names := make([]string, 0, len(all))
		for _, d := range all {
			names = append(names, d.Name)
		}
		return names, nil
	}

	seen := make(map[string]struct{}, len(districts))
	names := make([]string, 0, len(districts))
	for _, d := range districts {
		key := district.Normalize(d)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		if len(seen) == len(all) {
			return nil, fmt.Errorf("%w: at most %d districts per map", ErrInvalidInput, len(all))
		}
		seen[key] = struct{}{}
		names = append(names, strings.TrimSpace(d))
	}
	return names, nil
}
