package risk

// Rainfall thresholds in mm/hour. Bands do not overlap: above heavy, above
// moderate, or light.
const (
	HeavyRainMmH    = 30.0
	ModerateRainMmH = 10.0
)

// Drainage is the user-reported state of street drainage near them.
type Drainage int

const (
	DrainageGood Drainage = 1
	DrainageFair Drainage = 2
	DrainagePoor Drainage = 3
)

// ParseDrainage maps the 1..3 survey answer to a Drainage. Anything else,
// including a missing answer, is treated as fair.
func ParseDrainage(v int) Drainage {
	switch d := Drainage(v); d {
	case DrainageGood, DrainageFair, DrainagePoor:
		return d
	default:
		return DrainageFair
	}
}

func (d Drainage) String() string {
	switch d {
	case DrainageGood:
		return "good"
	case DrainagePoor:
		return "poor"
	default:
		return "fair"
	}
}

// Input is everything the adjuster looks at.
type Input struct {
	BaseRisk          int
	RainfallMmH       float64
	IsRaining         bool
	Drainage          Drainage
	FloodsWhenRaining bool
}

// Assessment is the outcome of a single risk evaluation.
type Assessment struct {
	Risk            int      `json:"risk"`
	DisplayRisk     int      `json:"displayRisk"`
	Level           string   `json:"level"`
	Message         string   `json:"message"`
	Recommendations []string `json:"recommendations"`
}

// Assess adjusts the historical base risk for current conditions.
//
// When it is not raining the base risk is reported as is. Otherwise rainfall,
// drainage and self-reported flooding each move the level, and the sum is
// clamped to [MinLevel, MaxLevel] once, after every adjustment is applied.
// Assess is pure and total.
func Assess(in Input) Assessment {
	if !in.IsRaining {
		r := clamp(in.BaseRisk)
		return Assessment{
			Risk:            r,
			DisplayRisk:     ToDisplayScale(r),
			Level:           Label(ToDisplayScale(r)),
			Message:         noRainAdvice.message,
			Recommendations: noRainAdvice.recommendations(),
		}
	}

	r := in.BaseRisk
	r += rainfallAdjustment(in.RainfallMmH)
	r += drainageAdjustment(in.Drainage)
	if in.FloodsWhenRaining {
		r++
	}
	r = clamp(r)

	adv := adviceFor(r)
	return Assessment{
		Risk:            r,
		DisplayRisk:     ToDisplayScale(r),
		Level:           Label(ToDisplayScale(r)),
		Message:         adv.message,
		Recommendations: adv.recommendations(),
	}
}

func rainfallAdjustment(mmh float64) int {
	switch {
	case mmh > HeavyRainMmH:
		return 2
	case mmh > ModerateRainMmH:
		return 1
	default:
		return -1
	}
}

func drainageAdjustment(d Drainage) int {
	switch ParseDrainage(int(d)) {
	case DrainagePoor:
		return 1
	case DrainageGood:
		return -1
	default:
		return 0
	}
}

func clamp(r int) int {
	if r < MinLevel {
		return MinLevel
	}
	if r > MaxLevel {
		return MaxLevel
	}
	return r
}
