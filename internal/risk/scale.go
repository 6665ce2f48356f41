package risk

// Display levels compress the 1..5 scale to three levels for end users.
const (
	DisplayLow    = 1
	DisplayMedium = 2
	DisplayHigh   = 3
)

// ToDisplayScale maps a 1..5 risk to the 1..3 display scale.
func ToDisplayScale(risk int) int {
	switch {
	case risk <= 2:
		return DisplayLow
	case risk == 3:
		return DisplayMedium
	default:
		return DisplayHigh
	}
}

// Color is the map fill class for a display level.
func Color(display int) string {
	switch {
	case display <= DisplayLow:
		return "green"
	case display == DisplayMedium:
		return "orange"
	default:
		return "red"
	}
}

// Label names a display level.
func Label(display int) string {
	switch {
	case display <= DisplayLow:
		return "low"
	case display == DisplayMedium:
		return "medium"
	default:
		return "high"
	}
}
