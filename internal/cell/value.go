// Package cell coerces loosely typed spreadsheet cell values.
package cell

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Blank reports whether v carries no value. The literal "nan" counts as blank
// because older CSV snapshots wrote missing cells that way.
func Blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(x)
		return s == "" || strings.EqualFold(s, "nan")
	case float64:
		return math.IsNaN(x)
	case Date:
		return x.IsZero()
	}
	return false
}

// String renders a cell value as text. Integral floats drop the fraction.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return FormatTime(x)
	case Date:
		return x.Format()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Text is String with surrounding whitespace removed and blanks collapsed to "".
func Text(v any) string {
	if Blank(v) {
		return ""
	}
	return strings.TrimSpace(String(v))
}

// Float coerces v to a finite number. Strings may use a comma decimal
// separator with dots for thousands.
func Float(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseNumber(x)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int coerces v to an integer, rounding fractional values.
func Int(v any) (int, bool) {
	f, ok := Float(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if strings.Contains(s, ",") {
		alt := strings.ReplaceAll(s, ".", "")
		alt = strings.ReplaceAll(alt, ",", ".")
		if f, err := strconv.ParseFloat(alt, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
