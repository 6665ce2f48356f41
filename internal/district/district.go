// Package district holds the catalogue of Mexico City districts (alcaldías)
// and the canonical form used to key them across the service.
package district

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Coordinates is a WGS84 point used for weather queries.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CityCenter is used for any district without known coordinates.
var CityCenter = Coordinates{Lat: 19.4326, Lon: -99.1332}

// District is a catalogued administrative subdivision of the city.
type District struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
}

var catalogue = []District{
	newDistrict("Azcapotzalco", 19.4833, -99.1833),
	newDistrict("Benito Juárez", 19.4000, -99.1500),
	newDistrict("Coyoacán", 19.3333, -99.1667),
	newDistrict("Cuajimalpa de Morelos", 19.3333, -99.2833),
	newDistrict("Cuauhtémoc", 19.4326, -99.1332),
	newDistrict("Gustavo A. Madero", 19.4833, -99.1000),
	newDistrict("Iztacalco", 19.4000, -99.0833),
	newDistrict("Iztapalapa", 19.3333, -99.0667),
	newDistrict("La Magdalena Contreras", 19.3000, -99.2000),
	newDistrict("Miguel Hidalgo", 19.4333, -99.2000),
	newDistrict("Milpa Alta", 19.2167, -99.0333),
	newDistrict("Tlalpan", 19.2667, -99.1333),
	newDistrict("Tláhuac", 19.2833, -98.9833),
	newDistrict("Venustiano Carranza", 19.4667, -99.0833),
	newDistrict("Xochimilco", 19.2500, -99.1000),
	newDistrict("Álvaro Obregón", 19.3833, -99.2167),
}

var byKey = func() map[string]District {
	m := make(map[string]District, len(catalogue))
	for _, d := range catalogue {
		m[d.Key] = d
	}
	return m
}()

func newDistrict(name string, lat, lon float64) District {
	return District{
		Key:         Normalize(name),
		Name:        name,
		Coordinates: Coordinates{Lat: lat, Lon: lon},
	}
}

// All returns the catalogue in its fixed order.
func All() []District {
	out := make([]District, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a catalogued district by any spelling of its name.
func Lookup(name string) (District, bool) {
	d, ok := byKey[Normalize(name)]
	return d, ok
}

// DisplayName returns the catalogue name for a district, or the trimmed input
// when the district is not catalogued.
func DisplayName(name string) string {
	if d, ok := Lookup(name); ok {
		return d.Name
	}
	return strings.TrimSpace(name)
}

// Normalize maps a district name to its canonical key: lower case, no
// diacritics, and runs of spaces or punctuation collapsed to "_".
//
//	"Benito Juárez", "Benito_Juarez", "BENITO  JUAREZ" -> "benito_juarez"
//	"Gustavo A. Madero", "Gustavo A Madero" -> "gustavo_a_madero"
func Normalize(name string) string {
	// transform.Chain is stateful, so it is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		s = strings.TrimSpace(name)
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
