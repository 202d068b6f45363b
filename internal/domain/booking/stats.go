package booking

import (
	"math"
	"sort"
	"time"
)

const (
	occupancyWindowDays = 30
	recentBookingsLimit = 10
)

// LodgingStats summarises the bookings of one listing for its host.
type LodgingStats struct {
	TotalBookings     int
	PendingBookings   int
	ConfirmedBookings int
	CancelledBookings int
	// Revenue sums the quoted totals of confirmed bookings.
	Revenue int64
	// OccupancyRate is a percentage in [0, 100].
	OccupancyRate int
	Recent        []*Booking
}

// ComputeLodgingStats counts bookings by status and derives revenue and
// occupancy. Occupancy counts the nights of confirmed stays checking in no
// earlier than thirty days before now, over a thirty-day window.
func ComputeLodgingStats(bookings []*Booking, now time.Time) LodgingStats {
	var stats LodgingStats
	windowStart := now.Add(-occupancyWindowDays * 24 * time.Hour)
	occupied := 0

	for _, b := range bookings {
		if b == nil {
			continue
		}
		stats.TotalBookings++
		switch b.Status {
		case StatusPending:
			stats.PendingBookings++
		case StatusCancelled:
			stats.CancelledBookings++
		case StatusConfirmed:
			stats.ConfirmedBookings++
			stats.Revenue += b.Total.Amount
			if !b.Range.CheckIn.Before(windowStart) {
				occupied += b.Range.Nights()
			}
		}
	}

	rate := math.Round(float64(occupied) / occupancyWindowDays * 100)
	stats.OccupancyRate = int(math.Min(100, rate))
	stats.Recent = mostRecent(bookings, recentBookingsLimit)
	return stats
}

func mostRecent(bookings []*Booking, limit int) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
