package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/flood-risk/internal/district"
	"github.com/i474232898/flood-risk/internal/observability"
	"github.com/i474232898/flood-risk/internal/weather"
)

const (
	defaultIntervalMinutes = 15
	fetchTimeout           = 30 * time.Second
)

// Refresher is the part of the weather service the scheduler drives.
type Refresher interface {
	HasProviders() bool
	FetchAndStore(ctx context.Context, loc weather.Location) error
}

// Scheduler periodically refreshes the weather samples of every district.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	locations []weather.Location
	interval  time.Duration
	metrics   *observability.Metrics
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, service Refresher, metrics *observability.Metrics) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		locations: locations,
		interval:  interval,
		metrics:   metrics,
	}
}

// DistrictLocations returns the query location of every catalogued district.
func DistrictLocations() []weather.Location {
	all := district.All()
	locs := make([]weather.Location, 0, len(all))
	for _, d := range all {
		locs = append(locs, weather.Location{District: d.Key, Lat: d.Coordinates.Lat, Lon: d.Coordinates.Lon})
	}
	return locs
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("INFO: scheduler: no locations configured; nothing to schedule")
		return nil
	}
	if !s.service.HasProviders() {
		log.Println("INFO: scheduler: no weather providers configured; refresh disabled")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = defaultIntervalMinutes
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(s.refreshAll)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) refreshAll() {
	log.Println("INFO: scheduler: running weather refresh job")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()

			if err := s.service.FetchAndStore(ctx, loc); err != nil {
				log.Printf("ERROR: scheduler: refresh failed for %s: %v", loc.Key(), err)
			}
		}()
	}
	wg.Wait()
	s.metrics.ObserveRefreshRun()
	log.Println("INFO: scheduler: completed weather refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
