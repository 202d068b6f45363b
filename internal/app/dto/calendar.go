package dto

import "stayhub/internal/domain/availability"

type CalendarBlock struct {
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Reason    string `json:"reason"`
	BookingID string `json:"booking_id,omitempty"`
}

type Calendar struct {
	ListingID string          `json:"listing_id"`
	Blocks    []CalendarBlock `json:"blocks"`
}

// MapCalendar hides booking references unless the viewer may see them.
func MapCalendar(cal *availability.Calendar, withReferences bool) Calendar {
	out := Calendar{ListingID: string(cal.ListingID), Blocks: make([]CalendarBlock, 0, len(cal.Blocks))}
	for _, b := range cal.Blocks {
		block := CalendarBlock{
			CheckIn:  FormatDate(b.Range.CheckIn),
			CheckOut: FormatDate(b.Range.CheckOut),
			Reason:   string(b.Reason),
		}
		if withReferences {
			block.BookingID = b.Reference
		}
		out.Blocks = append(out.Blocks, block)
	}
	return out
}

type Availability struct {
	ListingID string          `json:"listing_id"`
	CheckIn   string          `json:"check_in"`
	CheckOut  string          `json:"check_out"`
	Available bool            `json:"available"`
	Conflicts []CalendarBlock `json:"conflicts,omitempty"`
}
