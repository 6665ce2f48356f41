package district

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/kelvins/geocoder"
)

const (
	// CityCenterKey is the weather key shared by every name that can not be
	// placed in a catalogued district.
	CityCenterKey = "city_center"

	// MaxSnapKm is how far a geocoded point may be from a district's
	// coordinates and still be served by that district.
	MaxSnapKm = 10.0

	// maxResolverEntries bounds the geocoding cache; a full cache is reset.
	maxResolverEntries = 256

	earthRadiusKm = 6371.0
)

// GeocodeFunc resolves a district name to coordinates.
type GeocodeFunc func(name string) (Coordinates, error)

type resolution struct {
	district District
	ok       bool
}

// Resolver places any district name in a catalogued district. Catalogued
// names resolve directly; other names go through the optional geocoder and
// are snapped to the nearest district within MaxSnapKm. Successes and
// failures are both cached.
type Resolver struct {
	geocode GeocodeFunc

	mu    sync.Mutex
	cache map[string]resolution
}

// NewResolver creates a Resolver. geocode may be nil.
func NewResolver(geocode GeocodeFunc) *Resolver {
	return &Resolver{
		geocode: geocode,
		cache:   make(map[string]resolution),
	}
}

// GoogleGeocoder returns a GeocodeFunc backed by the Google Geocoding API.
// It returns nil when apiKey is empty.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey

	return func(name string) (Coordinates, error) {
		loc, err := geocoder.Geocoding(geocoder.Address{
			City:    name,
			State:   "Ciudad de México",
			Country: "México",
		})
		if err != nil {
			return Coordinates{}, fmt.Errorf("geocode %q: %w", name, err)
		}
		return Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
	}
}

// Locate returns the catalogued district serving name. ok is false when the
// name can not be placed; callers then use the city center.
func (r *Resolver) Locate(name string) (District, bool) {
	if d, ok := Lookup(name); ok {
		return d, true
	}

	key := Normalize(name)
	if r.geocode == nil || key == "" {
		return District{}, false
	}

	r.mu.Lock()
	res, cached := r.cache[key]
	r.mu.Unlock()
	if cached {
		return res.district, res.ok
	}

	res = r.resolve(name)

	r.mu.Lock()
	if len(r.cache) >= maxResolverEntries {
		r.cache = make(map[string]resolution)
	}
	r.cache[key] = res
	r.mu.Unlock()

	return res.district, res.ok
}

func (r *Resolver) resolve(name string) resolution {
	c, err := r.geocode(name)
	if err != nil {
		log.Printf("INFO: district: geocoding failed for %q, using city center: %v", name, err)
		return resolution{}
	}
	if c.Lat == 0 && c.Lon == 0 {
		log.Printf("INFO: district: geocoder returned no position for %q, using city center", name)
		return resolution{}
	}

	d, km := Nearest(c)
	if km > MaxSnapKm {
		log.Printf("INFO: district: %q is %.1f km from the nearest district, using city center", name, km)
		return resolution{}
	}
	return resolution{district: d, ok: true}
}

// Nearest returns the catalogued district closest to c and its distance in km.
func Nearest(c Coordinates) (District, float64) {
	best := catalogue[0]
	bestKm := distanceKm(c, best.Coordinates)
	for _, d := range catalogue[1:] {
		if km := distanceKm(c, d.Coordinates); km < bestKm {
			best, bestKm = d, km
		}
	}
	return best, bestKm
}

// distanceKm is the haversine great-circle distance.
func distanceKm(a, b Coordinates) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
