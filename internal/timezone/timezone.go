package timezone

import (
	"strings"
	"time"
)

var offsetFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-0700", // Without colon
	"2006-01-02T15:04:05Z",
}

// Flight APIs report segment times in the airport's local wall clock without
// an offset.
var localFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// LocationByName resolves an IANA zone or a "UTC+7" style fixed offset. UTC is
// returned for anything it cannot resolve.
func LocationByName(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	if upper := strings.ToUpper(name); strings.HasPrefix(upper, "UTC") && len(upper) > 3 {
		if d, err := time.ParseDuration(strings.TrimPrefix(upper[3:], "+") + "h"); err == nil {
			return time.FixedZone(upper, int(d.Seconds()))
		}
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.UTC
}

// ParseTimestamp accepts RFC 3339 timestamps and offset-less local times.
// Offset-less values are interpreted in tzName, or UTC when tzName is empty.
func ParseTimestamp(timeStr string, tzName string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)

	for _, format := range offsetFormats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t, nil
		}
	}

	loc := LocationByName(tzName)
	for _, format := range localFormats {
		if t, err := time.ParseInLocation(format, timeStr, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

// ParseISODuration reads the "PT2H35M" durations flight APIs attach to
// segments and slices, returning whole minutes.
func ParseISODuration(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "P") {
		return 0, false
	}
	s = s[1:]

	days := 0
	if i := strings.Index(s, "D"); i >= 0 {
		d, err := time.ParseDuration(s[:i] + "h")
		if err != nil {
			return 0, false
		}
		days = int(d.Hours())
		s = s[i+1:]
	}
	s = strings.TrimPrefix(s, "T")

	total := days * 24 * 60
	if s == "" {
		return total, true
	}
	d, err := time.ParseDuration(strings.ToLower(s))
	if err != nil {
		return 0, false
	}
	return total + int(d.Minutes()), true
}
