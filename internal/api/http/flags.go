package httpapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/flood-risk/internal/risk"
)

// YesNo is a boolean answer that also accepts the survey spellings
// "si"/"sí"/"yes"/"no" as JSON strings.
type YesNo bool

func (y *YesNo) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case bool:
		*y = YesNo(v)
		return nil
	case float64:
		if v == 0 || v == 1 {
			*y = v == 1
			return nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "si", "sí", "yes", "true", "1":
			*y = true
			return nil
		case "no", "false", "0":
			*y = false
			return nil
		}
	}
	return fmt.Errorf("invalid yes/no value %s", string(b))
}

// DrainageAnswer is the 1..3 drainage survey answer. Numbers and numeric
// strings are accepted; any other value reads as fair.
type DrainageAnswer risk.Drainage

func (d *DrainageAnswer) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	n := 0
	switch v := raw.(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) <= float64(risk.DrainagePoor) {
			n = int(v)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			n = i
		}
	}
	*d = DrainageAnswer(risk.ParseDrainage(n))
	return nil
}
