package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// UnknownDescription is reported when no provider produced a description.
const UnknownDescription = "unknown"

// Location is a district and the point its weather is queried at.
// District must be the normalized district key.
type Location struct {
	District string  `json:"district"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.District
}

// Sample is the normalized, aggregated weather view of a district.
type Sample struct {
	Location Location `json:"location"`

	// Timestamp is when the sample was produced by this service (UTC);
	// ObservedAt is the newest observation time reported by a provider.
	Timestamp  time.Time `json:"timestamp"`
	ObservedAt time.Time `json:"observedAt"`

	RainfallMmH float64   `json:"rainfallMmH"`
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	Description string    `json:"description"`
	WindSpeed   float64   `json:"windSpeedMs"`
	Condition   Condition `json:"condition"`

	// Providers contributing to this sample. Empty for default samples.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// DefaultSample is the zero-weather sample used whenever live data is
// unavailable.
func DefaultSample(loc Location, now time.Time) Sample {
	return Sample{
		Location:    loc,
		Timestamp:   now.UTC(),
		Description: UnknownDescription,
		Condition:   ConditionUnknown,
	}
}

// IsRaining reports whether the sample shows any precipitation.
func (s Sample) IsRaining() bool {
	return s.RainfallMmH > 0 || s.Condition == ConditionRain || s.Condition == ConditionStorm
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}
