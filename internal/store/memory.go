package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/flood-risk/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// SampleHistory holds a time-ordered list of weather samples for a location.
type SampleHistory struct {
	Samples []weather.Sample
}

// MemoryStore is a concurrency-safe in-memory implementation of a weather store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*SampleHistory

	// retention configuration
	maxHistory int           // max number of samples per location
	maxAge     time.Duration // optional max age for samples
	clock      clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited; so is a maxAge <= 0.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]*SampleHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SaveSample appends a new sample for a location and enforces retention.
// The most recent sample always survives retention.
func (s *MemoryStore) SaveSample(loc weather.Location, sample weather.Sample) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SampleHistory{}
		s.data[key] = history
	}

	history.Samples = append(history.Samples, sample)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Samples) > s.maxHistory {
		over := len(history.Samples) - s.maxHistory
		history.Samples = history.Samples[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Samples)-1; i++ {
			if !history.Samples[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.Samples = history.Samples[i:]
		}
	}
}

// Len reports the number of locations with stored history.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// GetLatest returns the most recent sample for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Sample, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Samples) == 0 {
		return weather.Sample{}, ErrNotFound
	}
	return history.Samples[len(history.Samples)-1], nil
}

// GetRange returns all samples for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Sample, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Samples) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Sample
	for _, sample := range history.Samples {
		if !sample.Timestamp.Before(from) && !sample.Timestamp.After(to) {
			result = append(result, sample)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
