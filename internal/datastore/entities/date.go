package entities

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateValue is a date-like field decoded from any of its historical representations.
type DateValue struct {
	Time  time.Time
	Valid bool
}

const dateOnlyLayout = "2006-01-02"

// ParseDateValue accepts a date-only or RFC3339 string, a time.Time, a
// {seconds,nanoseconds} or {_seconds,_nanoseconds} map, or a numeric epoch in seconds.
// Date-only strings denote midnight UTC of that day.
func ParseDateValue(v any) (DateValue, error) {
	switch val := v.(type) {
	case nil:
		return DateValue{}, nil
	case DateValue:
		return val, nil
	case time.Time:
		if val.IsZero() {
			return DateValue{}, nil
		}
		return DateValue{Time: val, Valid: true}, nil
	case *time.Time:
		if val == nil {
			return DateValue{}, nil
		}
		return ParseDateValue(*val)
	case string:
		return parseDateString(val)
	case map[string]any:
		return parseSecondsMap(val)
	default:
		if secs, ok := number(v); ok {
			return fromEpoch(secs, 0), nil
		}
		return DateValue{}, fmt.Errorf("unsupported date value of type %T", v)
	}
}

func parseDateString(s string) (DateValue, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateValue{}, nil
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return DateValue{Time: t, Valid: true}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateValue{Time: t, Valid: true}, nil
	}
	return DateValue{}, fmt.Errorf("unrecognized date string %q", s)
}

func parseSecondsMap(m map[string]any) (DateValue, error) {
	for _, prefix := range []string{"", "_"} {
		raw, ok := m[prefix+"seconds"]
		if !ok {
			continue
		}
		secs, ok := number(raw)
		if !ok {
			return DateValue{}, fmt.Errorf("seconds field has type %T", raw)
		}
		nanos, _ := number(m[prefix+"nanoseconds"])
		return fromEpoch(secs, nanos), nil
	}
	return DateValue{}, fmt.Errorf("map date value has no seconds field")
}

func fromEpoch(secs, nanos float64) DateValue {
	whole, frac := math.Modf(secs)
	t := time.Unix(int64(whole), int64(frac*1e9)+int64(nanos)).UTC()
	return DateValue{Time: t, Valid: true}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// IsZero reports whether no date was resolved.
func (d DateValue) IsZero() bool { return !d.Valid }

// CalendarDay returns the UTC calendar date as YYYY-MM-DD.
func (d DateValue) CalendarDay() string {
	return d.Time.UTC().Format(dateOnlyLayout)
}

// AtLocalNoon returns the UTC calendar date of d re-anchored to 12:00 in loc.
func (d DateValue) AtLocalNoon(loc *time.Location) time.Time {
	u := d.Time.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, loc)
}
