package risk

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/i474232898/flood-risk/internal/district"
)

// Risk levels are integers on a 1 (lowest) to 5 (highest) scale.
const (
	MinLevel = 1
	MaxLevel = 5

	// DefaultBaseRisk is used for districts missing from the table.
	DefaultBaseRisk = 3
)

// defaultTableCSV is an illustrative table shaped like the historical one. Its
// probabilities are placeholders, not measured flood history; production
// deployments set RISK_TABLE_PATH to the real table.
//
//go:embed data/risk_table.csv
var defaultTableCSV []byte

// Distribution holds the historical probability of each risk level.
// Index 0 is level 1. Values are not required to sum to 1.
type Distribution [MaxLevel]float64

// UniformDistribution is the distribution assumed for unknown districts.
func UniformDistribution() Distribution {
	return Distribution{0.2, 0.2, 0.2, 0.2, 0.2}
}

// Probability returns the probability of level, or 0 outside 1..5.
func (d Distribution) Probability(level int) float64 {
	if level < MinLevel || level > MaxLevel {
		return 0
	}
	return d[level-1]
}

// BaseRisk returns the most probable level. Levels are scanned in ascending
// order and only a strictly greater probability replaces the current best,
// so ties resolve to the lowest level.
func (d Distribution) BaseRisk() int {
	best := DefaultBaseRisk
	maxProb := 0.0
	for level := MinLevel; level <= MaxLevel; level++ {
		if p := d.Probability(level); p > maxProb {
			maxProb = p
			best = level
		}
	}
	return best
}

// MarshalJSON encodes the distribution as {"1": p1, ..., "5": p5}.
func (d Distribution) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, MaxLevel)
	for level := MinLevel; level <= MaxLevel; level++ {
		m[strconv.Itoa(level)] = d.Probability(level)
	}
	return json.Marshal(m)
}

// Entry is one district row of the risk table.
type Entry struct {
	Key          string       `json:"key"`
	Name         string       `json:"name"`
	Distribution Distribution `json:"distribution"`
	MeanRisk     float64      `json:"meanRisk"`
	BaseRisk     int          `json:"baseRisk"`
}

// Table is an immutable lookup of historical risk per district, keyed by the
// normalized district name. It is safe for concurrent readers.
type Table struct {
	entries map[string]Entry
}

// DefaultTable parses the table embedded in the binary.
func DefaultTable() (*Table, error) {
	return ParseTable(bytes.NewReader(defaultTableCSV))
}

// LoadTable reads the table from a CSV file. An empty path selects the
// embedded table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open risk table: %w", err)
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("load risk table %s: %w", path, err)
	}
	return t, nil
}

var (
	districtHeaders = []string{"district", "alcaldia"}
	meanHeaders     = []string{"risk_mean", "riesgo_promedio"}
)

// ParseTable reads a risk table from CSV. Columns are matched by header:
// district|alcaldia, risk_N|riesgo_N for N in 1..5 and the optional
// risk_mean|riesgo_promedio. Missing level columns and empty cells read as 0.
func ParseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("risk table is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}

	districtCol, ok := findColumn(cols, districtHeaders...)
	if !ok {
		return nil, errors.New("risk table has no district column")
	}
	meanCol, hasMean := findColumn(cols, meanHeaders...)

	var levelCols [MaxLevel]int
	for level := MinLevel; level <= MaxLevel; level++ {
		idx, ok := findColumn(cols, fmt.Sprintf("risk_%d", level), fmt.Sprintf("riesgo_%d", level))
		if !ok {
			idx = -1
		}
		levelCols[level-1] = idx
	}

	t := &Table{entries: make(map[string]Entry)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		name := strings.TrimSpace(record[districtCol])
		key := district.Normalize(name)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty district name", line)
		}
		if _, dup := t.entries[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate district %q", line, name)
		}

		var dist Distribution
		for i, idx := range levelCols {
			if idx < 0 {
				continue
			}
			v, err := parseCell(record[idx])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, header[idx], err)
			}
			dist[i] = v
		}

		entry := Entry{
			Key:          key,
			Name:         district.DisplayName(strings.ReplaceAll(name, "_", " ")),
			Distribution: dist,
			BaseRisk:     dist.BaseRisk(),
		}
		if hasMean {
			mean, err := parseCell(record[meanCol])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, header[meanCol], err)
			}
			entry.MeanRisk = mean
		}
		t.entries[key] = entry
	}

	return t, nil
}

func findColumn(cols map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if idx, ok := cols[n]; ok {
			return idx, true
		}
	}
	return 0, false
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid probability %q", s)
	}
	return v, nil
}

// Lookup returns the base risk and distribution of a district. Unknown
// districts are not an error: they get DefaultBaseRisk and the uniform
// distribution, and found is false.
func (t *Table) Lookup(name string) (baseRisk int, dist Distribution, found bool) {
	e, ok := t.Entry(name)
	if !ok {
		log.Printf("INFO: risk table: district not found: %q; using default distribution", name)
		return DefaultBaseRisk, UniformDistribution(), false
	}
	return e.BaseRisk, e.Distribution, true
}

// Entry returns the raw table row for a district.
func (t *Table) Entry(name string) (Entry, bool) {
	e, ok := t.entries[district.Normalize(name)]
	return e, ok
}

// Entries returns all rows ordered by key.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len reports the number of districts in the table.
func (t *Table) Len() int {
	return len(t.entries)
}
