package availability

import (
	"sort"

	"stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/daterange"
)

type BlockReason string

const (
	ReasonBooking BlockReason = "BOOKING"
)

type Block struct {
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
}

// Calendar is the read model the date picker highlights: every night taken
// by a confirmed booking of one listing.
type Calendar struct {
	ListingID listings.ListingID
	Blocks    []Block
}

func NewCalendar(id listings.ListingID) *Calendar {
	return &Calendar{ListingID: id}
}

// Occupy adds a booking block. Blocks are kept sorted by check-in.
func (c *Calendar) Occupy(r daterange.DateRange, reference string) {
	c.Blocks = append(c.Blocks, Block{Range: daterange.Of(r.CheckIn, r.CheckOut), Reason: ReasonBooking, Reference: reference})
	sort.SliceStable(c.Blocks, func(i, j int) bool {
		return c.Blocks[i].Range.CheckIn.Before(c.Blocks[j].Range.CheckIn)
	})
}

// Ranges lists the occupied ranges in check-in order.
func (c *Calendar) Ranges() []daterange.DateRange {
	out := make([]daterange.DateRange, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		out = append(out, b.Range)
	}
	return out
}

func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	return IsRangeAvailable(r, c.Ranges())
}

// Conflicts returns the blocks the requested range overlaps.
func (c *Calendar) Conflicts(r daterange.DateRange) []Block {
	var out []Block
	for _, b := range c.Blocks {
		if r.Overlaps(b.Range) {
			out = append(out, b)
		}
	}
	return out
}
