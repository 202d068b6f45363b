package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrMissingDate  = errors.New("daterange: checkin and checkout are required")
)

// DateRange represents a half-open interval of calendar days [checkIn, checkOut).
// A stay checking in on CheckIn occupies the nights CheckIn .. CheckOut-1.
type DateRange struct {
	CheckIn  time.Time `json:"check_in" bson:"check_in"`
	CheckOut time.Time `json:"check_out" bson:"check_out"`
}

// New builds a day-normalised range and rejects empty or inverted stays.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Of builds a day-normalised range without validating it. Inverted and empty
// ranges are allowed and simply contain no nights.
func Of(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Day returns the calendar date of t, read in t's own location, as midnight
// UTC. Midnight may not exist in t's location when DST starts at 00:00, so
// dates are never rebuilt there.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrMissingDate
	}
	if !Day(dr.CheckOut).After(Day(dr.CheckIn)) {
		return ErrInvalidRange
	}
	return nil
}

// IsZero reports whether either bound is missing.
func (dr DateRange) IsZero() bool {
	return dr.CheckIn.IsZero() || dr.CheckOut.IsZero()
}

// Nights counts calendar days walked from CheckIn up to, not including, CheckOut.
func (dr DateRange) Nights() int {
	n := 0
	dr.EachNight(func(time.Time) { n++ })
	return n
}

// EachNight calls fn for every night of the stay in calendar order. Nights
// are UTC midnights, so every step is exactly one calendar day.
func (dr DateRange) EachNight(fn func(night time.Time)) {
	if dr.IsZero() {
		return
	}
	end := Day(dr.CheckOut)
	for current := Day(dr.CheckIn); current.Before(end); current = current.AddDate(0, 0, 1) {
		fn(current)
	}
}

// Overlaps applies the check-in/check-out overlap rule: the other stay is hit
// when this check-in lands inside it, this check-out lands inside it or on its
// last day boundary, or this range swallows it whole. Back-to-back stays
// (this check-in == other check-out) do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	rf, rt := Day(dr.CheckIn), Day(dr.CheckOut)
	of, ot := Day(other.CheckIn), Day(other.CheckOut)

	checkInInside := !rf.Before(of) && rf.Before(ot)
	checkOutInside := rt.After(of) && !rt.After(ot)
	swallows := !rf.After(of) && !rt.Before(ot)
	return checkInInside || checkOutInside || swallows
}

// String renders the range as ISO dates.
func (dr DateRange) String() string {
	return dr.CheckIn.Format(time.DateOnly) + ".." + dr.CheckOut.Format(time.DateOnly)
}
