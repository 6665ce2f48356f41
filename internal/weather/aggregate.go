package weather

import "time"

// AggregateReadings combines provider readings into a single Sample stamped
// with now. Numeric fields are averaged, the description comes from the first
// reading that has one, and the condition is the majority (earliest reading
// wins a tie).
func AggregateReadings(loc Location, readings []ProviderReading, now time.Time) Sample {
	if len(readings) == 0 {
		return DefaultSample(loc, now)
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumRain     float64
	)

	conditionCounts := make(map[Condition]int)
	providers := make([]ProviderContribution, 0, len(readings))
	description := ""
	var newestTS time.Time

	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMS
		if r.RainfallMmH > 0 {
			sumRain += r.RainfallMmH
		}

		conditionCounts[r.Condition]++

		if description == "" && r.Description != "" {
			description = r.Description
		}

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
		})
	}

	n := float64(len(readings))

	// Pick majority condition, scanning in reading order so ties are stable.
	bestCond := ConditionUnknown
	bestCount := 0
	for _, r := range readings {
		if count := conditionCounts[r.Condition]; count > bestCount {
			bestCount = count
			bestCond = r.Condition
		}
	}

	if description == "" {
		description = UnknownDescription
	}
	if newestTS.IsZero() {
		newestTS = now
	}

	return Sample{
		Location:    loc,
		Timestamp:   now.UTC(),
		ObservedAt:  newestTS.UTC(),
		RainfallMmH: sumRain / n,
		Temperature: sumTemp / n,
		Humidity:    sumHumidity / n,
		Description: description,
		WindSpeed:   sumWind / n,
		Condition:   bestCond,
		Providers:   providers,
	}
}
