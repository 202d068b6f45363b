package pricing

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func price(v float64) *float64 { return &v }

func TestComputeStayPricing_ThresholdBoundary(t *testing.T) {
	got := ComputeStayPricing(day(2024, 3, 14), day(2024, 3, 17), price(100), SurchargeFromDay(15))
	assert.Equal(t, PricingResult{Total: 400, NightsWithIncrease: 1, Nights: 3}, got)
}

func TestComputeStayPricing_IncompleteSelection(t *testing.T) {
	tests := []struct {
		name  string
		from  time.Time
		to    time.Time
		price *float64
	}{
		{"missing from", time.Time{}, day(2024, 3, 17), price(100)},
		{"missing to", day(2024, 3, 14), time.Time{}, price(100)},
		{"missing price", day(2024, 3, 14), day(2024, 3, 17), nil},
		{"nan price", day(2024, 3, 14), day(2024, 3, 17), price(math.NaN())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, PricingResult{}, ComputeStayPricing(tt.from, tt.to, tt.price, SurchargeFromDay(15)))
		})
	}
}

func TestComputeStayPricing_ZeroLengthAndInverted(t *testing.T) {
	d := day(2024, 3, 20)
	assert.Equal(t, PricingResult{}, ComputeStayPricing(d, d, price(100), SurchargeFromDay(15)))
	assert.Equal(t, PricingResult{}, ComputeStayPricing(d, d.Add(20*time.Hour), price(100), SurchargeFromDay(15)))
	assert.Equal(t, PricingResult{}, ComputeStayPricing(day(2024, 3, 25), d, price(100), SurchargeFromDay(15)))
}

func TestComputeStayPricing_NoSurchargeConfigured(t *testing.T) {
	for _, cfg := range []SurchargeConfig{NoSurcharge(), ParseSurcharge(""), ParseSurcharge("soon"), SurchargeFromDay(math.NaN())} {
		got := ComputeStayPricing(day(2024, 1, 10), day(2024, 2, 10), price(75), cfg)
		assert.Equal(t, 0, got.NightsWithIncrease)
		assert.Equal(t, 31, got.Nights)
		assert.Equal(t, int64(75*31), got.Total)
	}
}

func TestComputeStayPricing_IgnoresTimeOfDay(t *testing.T) {
	from := day(2024, 3, 14).Add(23 * time.Hour)
	to := day(2024, 3, 17).Add(1 * time.Hour)
	got := ComputeStayPricing(from, to, price(100), ParseSurcharge("15"))
	assert.Equal(t, PricingResult{Total: 400, NightsWithIncrease: 1, Nights: 3}, got)
}

func TestComputeStayPricing_SingleNightAdditivity(t *testing.T) {
	cfg := SurchargeFromDay(15)
	for d := 1; d <= 31; d++ {
		night := day(2024, 1, d)
		got := ComputeStayPricing(night, night.AddDate(0, 0, 1), price(120), cfg)
		require.Equal(t, 1, got.Nights)
		if d > 15 {
			assert.Equal(t, int64(240), got.Total, "day %d", d)
			assert.Equal(t, 1, got.NightsWithIncrease)
		} else {
			assert.Equal(t, int64(120), got.Total, "day %d", d)
			assert.Equal(t, 0, got.NightsWithIncrease)
		}
	}
}

func TestComputeStayPricing_LinearInNights(t *testing.T) {
	from, to := day(2024, 2, 10), day(2024, 3, 20)
	cfg := SurchargeFromDay(20)
	whole := ComputeStayPricing(from, to, price(90), cfg)
	for mid := from.AddDate(0, 0, 1); mid.Before(to); mid = mid.AddDate(0, 0, 1) {
		left := ComputeStayPricing(from, mid, price(90), cfg)
		right := ComputeStayPricing(mid, to, price(90), cfg)
		assert.Equal(t, whole.Total, left.Total+right.Total, "mid %s", mid.Format(time.DateOnly))
		assert.Equal(t, whole.Nights, left.Nights+right.Nights)
		assert.Equal(t, whole.NightsWithIncrease, left.NightsWithIncrease+right.NightsWithIncrease)
	}
}

func TestComputeStayPricing_Idempotent(t *testing.T) {
	a := ComputeStayPricing(day(2024, 7, 1), day(2024, 8, 3), price(33.3), ParseSurcharge("28"))
	b := ComputeStayPricing(day(2024, 7, 1), day(2024, 8, 3), price(33.3), ParseSurcharge("28"))
	assert.Equal(t, a, b)
}

func TestComputeStayPricing_RoundsAccumulatedSum(t *testing.T) {
	// 10 nights at 0.1 sum to exactly 1; float addition would land on 0.9999999999999999.
	got := ComputeStayPricing(day(2024, 1, 1), day(2024, 1, 11), price(0.1), NoSurcharge())
	assert.Equal(t, int64(1), got.Total)

	got = ComputeStayPricing(day(2024, 1, 1), day(2024, 1, 2), price(99.5), NoSurcharge())
	assert.Equal(t, int64(100), got.Total)
}

func TestComputeStayPricing_MidnightDSTStart(t *testing.T) {
	havana, err := time.LoadLocation("America/Havana")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	from := time.Date(2024, 3, 8, 0, 0, 0, 0, havana)
	to := time.Date(2024, 3, 12, 0, 0, 0, 0, havana)

	assert.Equal(t, PricingResult{Total: 400, Nights: 4}, ComputeStayPricing(from, to, price(100), NoSurcharge()))
	// Nights 8 and 9 are plain, 10 and 11 are surcharged.
	assert.Equal(t, PricingResult{Total: 600, NightsWithIncrease: 2, Nights: 4},
		ComputeStayPricing(from, to, price(100), SurchargeFromDay(9)))
}

func TestSurchargeConfig_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw    string
		active bool
		day    float64
	}{
		{`15`, true, 15},
		{`"15"`, true, 15},
		{`" 7 "`, true, 7},
		{`null`, false, 0},
		{`"abc"`, false, 0},
		{`""`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var cfg SurchargeConfig
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &cfg))
			v, ok := cfg.IncreaseFromDay()
			assert.Equal(t, tt.active, ok)
			assert.Equal(t, tt.day, v)
		})
	}

	var cfg SurchargeConfig
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"day":3}`), &cfg), ErrInvalidThreshold)
}

func TestSurchargeConfig_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A SurchargeConfig `json:"a"`
		B SurchargeConfig `json:"b"`
	}{A: SurchargeFromDay(15), B: NoSurcharge()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":15,"b":null}`, string(data))
	assert.Equal(t, "15", SurchargeFromDay(15).String())
}
