package flood

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/flood-risk/internal/district"
	"github.com/i474232898/flood-risk/internal/observability"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/store"
	"github.com/i474232898/flood-risk/internal/weather"
)

type fakeLookup struct {
	rain map[string]float64

	mu   sync.Mutex
	locs []weather.Location
}

func (f *fakeLookup) Lookup(_ context.Context, loc weather.Location) weather.Sample {
	f.mu.Lock()
	f.locs = append(f.locs, loc)
	f.mu.Unlock()

	s := weather.DefaultSample(loc, time.Time{})
	s.RainfallMmH = f.rain[loc.District]
	if s.RainfallMmH > 0 {
		s.Condition = weather.ConditionRain
	}
	return s
}

func newTestService(t *testing.T, rain map[string]float64) (*Service, *fakeLookup, *clockwork.FakeClock) {
	t.Helper()
	table, err := risk.DefaultTable()
	require.NoError(t, err)

	lookup := &fakeLookup{rain: rain}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC))
	svc := NewService(table, lookup,
		WithClock(clock),
		WithMetrics(observability.NewMetricsForTesting()),
	)
	return svc, lookup, clock
}

func TestAssess_HeavyRainPoorDrainage(t *testing.T) {
	svc, lookup, clock := newTestService(t, map[string]float64{"iztapalapa": 35})

	res, err := svc.Assess(context.Background(), Request{
		District:          "IZTAPALAPA",
		IsRaining:         true,
		Drainage:          3,
		FloodsWhenRaining: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "iztapalapa", res.District)
	assert.Equal(t, "Iztapalapa", res.Name)
	assert.Equal(t, 4, res.BaseRisk)
	assert.True(t, res.InTable)
	assert.Equal(t, 5, res.Assessment.Risk)
	assert.Equal(t, 3, res.Assessment.DisplayRisk)
	assert.Equal(t, "poor", res.Drainage)
	assert.Equal(t, 35.0, res.Weather.RainfallMmH)
	assert.Equal(t, clock.Now(), res.AssessedAt)
	assert.NotEmpty(t, res.Contacts)
	assert.NotEmpty(t, res.Social)
	_, err = uuid.Parse(res.ID)
	assert.NoError(t, err)

	require.Len(t, lookup.locs, 1)
	d, _ := district.Lookup("Iztapalapa")
	assert.Equal(t, d.Coordinates.Lat, lookup.locs[0].Lat)
	assert.Equal(t, d.Coordinates.Lon, lookup.locs[0].Lon)
}

func TestAssess_NotRainingReportsBaseRisk(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]float64{"cuauhtemoc": 50})

	res, err := svc.Assess(context.Background(), Request{District: "Cuauhtémoc", IsRaining: false, Drainage: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.BaseRisk)
	assert.Equal(t, 3, res.Assessment.Risk)
	assert.Equal(t, 2, res.Assessment.DisplayRisk)
}

func TestAssess_LightRainGoodDrainageClampsAtOne(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	res, err := svc.Assess(context.Background(), Request{District: "cuajimalpa de morelos", IsRaining: true, Drainage: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.BaseRisk)
	assert.Equal(t, 1, res.Assessment.Risk)
	assert.Equal(t, 1, res.Assessment.DisplayRisk)
}

func TestAssess_UnknownDistrictUsesDefaults(t *testing.T) {
	svc, lookup, _ := newTestService(t, nil)

	res, err := svc.Assess(context.Background(), Request{District: "Atlantis", IsRaining: true, Drainage: 7})
	require.NoError(t, err)

	assert.False(t, res.InTable)
	assert.Equal(t, risk.DefaultBaseRisk, res.BaseRisk)
	assert.Equal(t, risk.UniformDistribution(), res.Distribution)
	assert.Equal(t, "Atlantis", res.Name)
	assert.Equal(t, "fair", res.Drainage)
	// Light rain only: 3 - 1.
	assert.Equal(t, 2, res.Assessment.Risk)

	require.Len(t, lookup.locs, 1)
	assert.Equal(t, district.CityCenterKey, lookup.locs[0].District)
	assert.Equal(t, district.CityCenter.Lat, lookup.locs[0].Lat)
	assert.Equal(t, district.CityCenter.Lon, lookup.locs[0].Lon)
}

func TestAssess_EmptyDistrict(t *testing.T) {
	svc, lookup, _ := newTestService(t, nil)

	_, err := svc.Assess(context.Background(), Request{District: "   ", IsRaining: true})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, lookup.locs)
}

func TestRiskMap_AllDistricts(t *testing.T) {
	svc, _, _ := newTestService(t, map[string]float64{
		"iztapalapa":            40,
		"cuajimalpa_de_morelos": 2,
	})

	entries, err := svc.RiskMap(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 16)

	all := district.All()
	byKey := make(map[string]MapEntry, len(entries))
	for i, e := range entries {
		assert.Equal(t, all[i].Key, e.District, "catalogue order")
		assert.Contains(t, []string{"green", "orange", "red"}, e.Color)
		assert.Equal(t, risk.Color(risk.ToDisplayScale(e.Risk)), e.Color)
		byKey[e.District] = e
	}

	iz := byKey["iztapalapa"]
	assert.True(t, iz.Raining)
	assert.Equal(t, 5, iz.Risk)
	assert.Equal(t, "red", iz.Color)

	cu := byKey["cuajimalpa_de_morelos"]
	assert.True(t, cu.Raining)
	assert.Equal(t, 1, cu.Risk)
	assert.Equal(t, "green", cu.Color)

	// No rain: the map shows the historical base risk.
	gam := byKey["gustavo_a_madero"]
	assert.False(t, gam.Raining)
	assert.Equal(t, gam.BaseRisk, gam.Risk)
	assert.Equal(t, "red", gam.Color)
}

func TestRiskMap_SelectedDistrictsDeduplicated(t *testing.T) {
	svc, lookup, _ := newTestService(t, nil)

	entries, err := svc.RiskMap(context.Background(), []string{"Tlalpan", "benito juarez", "TLALPAN", "", "Benito_Juárez"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "tlalpan", entries[0].District)
	assert.Equal(t, "benito_juarez", entries[1].District)
	assert.Equal(t, "Benito Juárez", entries[1].Name)
	assert.Len(t, lookup.locs, 2)
}

func TestRiskMap_UnknownDistrict(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	entries, err := svc.RiskMap(context.Background(), []string{"Atlantis"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, risk.DefaultBaseRisk, entries[0].BaseRisk)
	assert.Equal(t, "orange", entries[0].Color)
}

func TestRiskMap_TooManyDistricts(t *testing.T) {
	svc, lookup, _ := newTestService(t, nil)

	names := make([]string, 0, 40)
	for _, d := range district.All() {
		names = append(names, d.Name)
	}
	// Repeats collapse, so the full catalogue is still accepted.
	names = append(names, "TLALPAN", "tlalpan")
	entries, err := svc.RiskMap(context.Background(), names)
	require.NoError(t, err)
	assert.Len(t, entries, 16)

	lookup.locs = nil
	_, err = svc.RiskMap(context.Background(), append(names, "Atlantis"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, lookup.locs)
}

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Fetch(_ context.Context, _ weather.Location) (weather.ProviderReading, error) {
	p.calls.Add(1)
	return weather.ProviderReading{RainfallMmH: 3}, nil
}

func TestAssess_UncataloguedNamesShareCityCenterWeather(t *testing.T) {
	table, err := risk.DefaultTable()
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	memStore := store.NewMemoryStore(10, time.Hour, clock)
	provider := &countingProvider{}
	weatherSvc := weather.NewService(memStore, []weather.Provider{provider},
		weather.WithClock(clock),
		weather.WithMaxAge(10*time.Minute),
	)
	svc := NewService(table, weatherSvc, WithClock(clock))

	for i := 0; i < 200; i++ {
		res, err := svc.Assess(context.Background(), Request{District: fmt.Sprintf("fake-%d", i), IsRaining: true})
		require.NoError(t, err)
		assert.False(t, res.InTable)
		assert.Equal(t, district.CityCenterKey, res.Weather.Location.District)
	}

	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, 1, memStore.Len())
}

func TestAssess_GeocodedNameUsesNearestDistrictWeather(t *testing.T) {
	svc, lookup, _ := newTestService(t, nil)
	svc.resolver = district.NewResolver(func(string) (district.Coordinates, error) {
		return district.Coordinates{Lat: 19.4445, Lon: -99.1250}, nil
	})

	res, err := svc.Assess(context.Background(), Request{District: "Tepito", IsRaining: true})
	require.NoError(t, err)

	assert.Equal(t, "tepito", res.District)
	assert.False(t, res.InTable)
	require.Len(t, lookup.locs, 1)
	assert.Equal(t, "cuauhtemoc", lookup.locs[0].District)
}
