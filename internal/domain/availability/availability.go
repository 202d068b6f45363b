package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/domain/shared/daterange"
)

var ErrInvalidOccupiedDate = errors.New("availability: occupied range has an invalid date")

// IsRangeAvailable reports whether requested overlaps none of the occupied
// ranges. Ranges with a missing bound carry no dates to compare and never
// register as an overlap; ParseOccupiedRanges keeps such ranges out.
func IsRangeAvailable(requested daterange.DateRange, occupied []daterange.DateRange) bool {
	for _, r := range occupied {
		if r.IsZero() {
			continue
		}
		if requested.Overlaps(r) {
			return false
		}
	}
	return true
}

// RawRange is an occupied range as it arrives from a booking listing, with
// dates still in text form.
type RawRange struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

// ParseOccupiedRanges converts raw booking dates into ranges. Any unparseable
// date fails the whole batch so that a broken record cannot silently free
// its nights.
func ParseOccupiedRanges(raw []RawRange) ([]daterange.DateRange, error) {
	out := make([]daterange.DateRange, 0, len(raw))
	for i, r := range raw {
		from, err := ParseDate(r.CheckIn)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d check-in %q", ErrInvalidOccupiedDate, i, r.CheckIn)
		}
		to, err := ParseDate(r.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d check-out %q", ErrInvalidOccupiedDate, i, r.CheckOut)
		}
		out = append(out, daterange.Of(from, to))
	}
	return out, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("availability: empty date")
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
