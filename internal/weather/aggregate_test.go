package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = Location{District: "coyoacan", Lat: 19.3333, Lon: -99.1667}

func TestAggregateReadings_Empty(t *testing.T) {
	now := time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC)
	s := AggregateReadings(testLoc, nil, now)

	assert.Equal(t, DefaultSample(testLoc, now), s)
	assert.Equal(t, UnknownDescription, s.Description)
	assert.False(t, s.IsRaining())
}

func TestAggregateReadings_AveragesAndPicksMajority(t *testing.T) {
	now := time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC)
	obs := now.Add(-10 * time.Minute)

	readings := []ProviderReading{
		{ProviderName: "a", Timestamp: obs, TemperatureC: 20, HumidityPct: 80, WindSpeedMS: 2, RainfallMmH: 12, Description: "lluvia moderada", Condition: ConditionRain},
		{ProviderName: "b", Timestamp: obs.Add(5 * time.Minute), TemperatureC: 22, HumidityPct: 90, WindSpeedMS: 4, RainfallMmH: 18, Condition: ConditionRain},
		{ProviderName: "c", Timestamp: obs, TemperatureC: 24, HumidityPct: 70, WindSpeedMS: 3, RainfallMmH: 0, Description: "nublado", Condition: ConditionCloudy},
	}

	s := AggregateReadings(testLoc, readings, now)

	assert.InDelta(t, 22.0, s.Temperature, 1e-9)
	assert.InDelta(t, 80.0, s.Humidity, 1e-9)
	assert.InDelta(t, 3.0, s.WindSpeed, 1e-9)
	assert.InDelta(t, 10.0, s.RainfallMmH, 1e-9)
	assert.Equal(t, "lluvia moderada", s.Description)
	assert.Equal(t, ConditionRain, s.Condition)
	assert.Equal(t, now, s.Timestamp)
	assert.Equal(t, obs.Add(5*time.Minute), s.ObservedAt)
	require.Len(t, s.Providers, 3)
	assert.Equal(t, "b", s.Providers[1].ProviderName)
	assert.True(t, s.IsRaining())
}

func TestAggregateReadings_TieGoesToEarliestReading(t *testing.T) {
	now := time.Now().UTC()
	readings := []ProviderReading{
		{ProviderName: "a", Condition: ConditionCloudy},
		{ProviderName: "b", Condition: ConditionRain},
	}

	for i := 0; i < 20; i++ {
		s := AggregateReadings(testLoc, readings, now)
		assert.Equal(t, ConditionCloudy, s.Condition)
		assert.Equal(t, UnknownDescription, s.Description)
		assert.Equal(t, now, s.ObservedAt)
	}
}

func TestAggregateReadings_IgnoresNegativeRainfall(t *testing.T) {
	s := AggregateReadings(testLoc, []ProviderReading{{RainfallMmH: -3}, {RainfallMmH: 4}}, time.Now())
	assert.InDelta(t, 2.0, s.RainfallMmH, 1e-9)
}

func TestSampleIsRaining(t *testing.T) {
	assert.True(t, Sample{RainfallMmH: 0.2}.IsRaining())
	assert.True(t, Sample{Condition: ConditionStorm}.IsRaining())
	assert.False(t, Sample{Condition: ConditionCloudy}.IsRaining())
}
