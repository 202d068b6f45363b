package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain/shared/daterange"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestIsRangeAvailable(t *testing.T) {
	tests := []struct {
		name      string
		requested daterange.DateRange
		occupied  []daterange.DateRange
		want      bool
	}{
		{
			name:      "exact containment",
			requested: daterange.Of(day(2024, 5, 1), day(2024, 5, 5)),
			occupied:  []daterange.DateRange{daterange.Of(day(2024, 5, 2), day(2024, 5, 3))},
			want:      false,
		},
		{
			name:      "adjacency is not overlap",
			requested: daterange.Of(day(2024, 5, 5), day(2024, 5, 10)),
			occupied:  []daterange.DateRange{daterange.Of(day(2024, 5, 1), day(2024, 5, 5))},
			want:      true,
		},
		{
			name:      "disjoint ranges",
			requested: daterange.Of(day(2024, 6, 1), day(2024, 6, 3)),
			occupied:  []daterange.DateRange{daterange.Of(day(2024, 7, 1), day(2024, 7, 3))},
			want:      true,
		},
		{
			name:      "check-out lands on occupied check-out",
			requested: daterange.Of(day(2024, 5, 3), day(2024, 5, 5)),
			occupied:  []daterange.DateRange{daterange.Of(day(2024, 5, 1), day(2024, 5, 5))},
			want:      false,
		},
		{
			name:      "second range overlaps",
			requested: daterange.Of(day(2024, 8, 10), day(2024, 8, 12)),
			occupied: []daterange.DateRange{
				daterange.Of(day(2024, 8, 1), day(2024, 8, 3)),
				daterange.Of(day(2024, 8, 11), day(2024, 8, 20)),
			},
			want: false,
		},
		{
			name:      "no occupied ranges",
			requested: daterange.Of(day(2024, 8, 10), day(2024, 8, 12)),
			want:      true,
		},
		{
			name:      "range with a missing bound is skipped",
			requested: daterange.Of(day(2024, 8, 10), day(2024, 8, 12)),
			occupied:  []daterange.DateRange{{CheckOut: day(2024, 9, 1)}},
			want:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRangeAvailable(tt.requested, tt.occupied))
		})
	}
}

func TestParseOccupiedRanges(t *testing.T) {
	ranges, err := ParseOccupiedRanges([]RawRange{
		{CheckIn: "2024-05-01", CheckOut: "2024-05-05"},
		{CheckIn: "2024-06-01T15:00:00Z", CheckOut: "2024-06-03T11:00:00Z"},
	})
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, 4, ranges[0].Nights())
	assert.Equal(t, day(2024, 6, 1), ranges[1].CheckIn)

	_, err = ParseOccupiedRanges([]RawRange{{CheckIn: "2024-05-01", CheckOut: "not a date"}})
	assert.ErrorIs(t, err, ErrInvalidOccupiedDate)
}

func TestCalendar(t *testing.T) {
	cal := NewCalendar("lodge-1")
	cal.Occupy(daterange.Of(day(2024, 5, 10), day(2024, 5, 12)), "b2")
	cal.Occupy(daterange.Of(day(2024, 5, 1), day(2024, 5, 5)), "b1")

	require.Len(t, cal.Blocks, 2)
	assert.Equal(t, "b1", cal.Blocks[0].Reference)
	assert.True(t, cal.CanReserve(daterange.Of(day(2024, 5, 5), day(2024, 5, 10))))
	assert.False(t, cal.CanReserve(daterange.Of(day(2024, 5, 4), day(2024, 5, 11))))
	assert.Len(t, cal.Conflicts(daterange.Of(day(2024, 5, 4), day(2024, 5, 11))), 2)
}
