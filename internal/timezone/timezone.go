// Package timezone normalises class start times. Everything is stored in
// UTC; input without an offset is read as studio-local time and output is
// rendered in whichever zone the caller asks for.
package timezone

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimezone is returned for zone names the tz database does not know.
var ErrInvalidTimezone = errors.New("unknown timezone")

// Canonical is the storage zone.
var Canonical = time.UTC

// zonedLayouts are tried, in order, before the naive fallback. Z07:00
// accepts both "Z" and a numeric offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
}

// naiveLayouts are tried, in order, when the input has no offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// DateTime is a timestamp as submitted by a client. Zoned is false when the
// input carried no offset, in which case Time's wall clock is meaningful but
// its location is not. Set distinguishes an omitted value from an explicit
// zero instant.
type DateTime struct {
	Time  time.Time
	Zoned bool
	Set   bool
}

// Parse accepts an ISO-8601 date-time with or without an offset. Seconds
// and fractional seconds are optional; a space may replace the "T".
func Parse(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime{Time: t, Zoned: true, Set: true}, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return DateTime{Time: t, Set: true}, nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid date-time %q: expected YYYY-MM-DDTHH:MM[:SS][offset]", s)
}

// Zoned wraps an instant that already has a meaningful location.
func Zoned(t time.Time) DateTime {
	return DateTime{Time: t, Zoned: true, Set: true}
}

// Naive wraps a wall-clock value whose location must be ignored.
func Naive(t time.Time) DateTime {
	return DateTime{Time: t, Set: true}
}

// UnmarshalJSON parses a JSON string with Parse. null leaves the value unset.
func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = DateTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date-time must be a string")
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Converter applies the studio's default-zone policy.
type Converter struct {
	studio *time.Location
}

// NewConverter returns a Converter that localises naive input to studio.
// A nil studio location means naive input is already canonical.
func NewConverter(studio *time.Location) *Converter {
	if studio == nil {
		studio = Canonical
	}
	return &Converter{studio: studio}
}

// ToCanonical converts client input to the storage zone. Naive input is
// first localised to the studio zone.
func (c *Converter) ToCanonical(d DateTime) time.Time {
	if d.Zoned {
		return d.Time.In(Canonical)
	}
	return Localize(d.Time, c.studio).In(Canonical)
}

// Localize reinterprets t's wall clock as a time in loc.
func Localize(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// FromStore interprets a value read back from the naive timestamp column.
// A value tagged with the canonical zone (or carrying no zone at all, which
// pgx reports as UTC) is taken as-is; anything else is converted.
func FromStore(t time.Time) time.Time {
	return t.In(Canonical)
}

// Lookup resolves an IANA zone name. The empty string and "Local" are
// rejected so output never depends on the host's zone.
func Lookup(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// In renders a stored instant in loc.
func In(t time.Time, loc *time.Location) time.Time {
	return FromStore(t).In(loc)
}
