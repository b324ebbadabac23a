package cell

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ISODate is the write-back layout for dates.
const ISODate = "2006-01-02"

var layouts = []string{
	ISODate,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"2006-01",
}

// Spreadsheet serial day numbers count from 1899-12-30. Only values in this
// window are taken as dates so small integers stay numbers.
const (
	minSerial = 10000
	maxSerial = 100000
)

var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseTime interprets v as a calendar time. Slash dates are day-first.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case Date:
		return x.Time, x.Valid
	case float64, float32, int, int64, json.Number:
		f, ok := Float(x)
		if !ok {
			return time.Time{}, false
		}
		return fromSerial(f)
	case string:
		return parseString(x)
	}
	return time.Time{}, false
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(f)
	}
	return time.Time{}, false
}

func fromSerial(f float64) (time.Time, bool) {
	if f < minSerial || f > maxSerial {
		return time.Time{}, false
	}
	days := int(f)
	frac := f - float64(days)
	t := serialEpoch.AddDate(0, 0, days).Add(time.Duration(frac * float64(24*time.Hour)))
	return t, true
}

// FormatTime renders midnight times as dates and anything else with seconds.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(ISODate)
	}
	return t.Format("2006-01-02 15:04:05")
}

// Truncate drops the clock part of t, keeping its calendar day.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date is a date-bearing cell: a parsed day, unparseable text kept verbatim,
// or nothing at all.
type Date struct {
	Time  time.Time
	Raw   string
	Valid bool
}

// NewDate builds a Date from a raw cell value.
func NewDate(v any) Date {
	if Blank(v) {
		return Date{}
	}
	if t, ok := ParseTime(v); ok {
		return Date{Time: Truncate(t), Raw: strings.TrimSpace(String(v)), Valid: true}
	}
	return Date{Raw: strings.TrimSpace(String(v))}
}

// DateOf wraps a known time.
func DateOf(t time.Time) Date {
	t = Truncate(t)
	return Date{Time: t, Raw: t.Format(ISODate), Valid: true}
}

// IsZero reports an absent date.
func (d Date) IsZero() bool {
	return !d.Valid && d.Raw == ""
}

// Format renders the write-back form: ISO for parsed dates, the original
// text for unparseable ones and "" when absent.
func (d Date) Format() string {
	if d.Valid {
		return d.Time.Format(ISODate)
	}
	return d.Raw
}

// Value returns the cell value a normalized row carries for d.
func (d Date) Value() any {
	switch {
	case d.Valid:
		return d.Time
	case d.Raw != "":
		return d.Raw
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*d = Date{}
		return nil
	}
	*d = NewDate(*raw)
	return nil
}
