package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stayhub/internal/domain/shared/daterange"
)

var ErrInvalidThreshold = errors.New("pricing: increase-from-day must be a number or numeric string")

// SurchargeFactor is applied to the nightly price of a surcharged night.
const SurchargeFactor = 2

// PricingResult is the outcome of pricing a stay.
type PricingResult struct {
	Total              int64 `json:"total" bson:"total"`
	NightsWithIncrease int   `json:"nights_with_increase" bson:"nights_with_increase"`
	Nights             int   `json:"nights" bson:"nights"`
}

// IsZero reports whether no night was priced.
func (r PricingResult) IsZero() bool {
	return r.Nights == 0 && r.Total == 0
}

// SurchargeConfig holds the per-listing day-of-month threshold. The zero
// value never surcharges.
type SurchargeConfig struct {
	increaseFromDay float64
	active          bool
}

// NoSurcharge is the inactive configuration.
func NoSurcharge() SurchargeConfig {
	return SurchargeConfig{}
}

// SurchargeFromDay activates the rule for nights dated after day.
func SurchargeFromDay(day float64) SurchargeConfig {
	if math.IsNaN(day) || math.IsInf(day, 0) {
		return SurchargeConfig{}
	}
	return SurchargeConfig{increaseFromDay: day, active: true}
}

// ParseSurcharge reads a threshold from its textual form. Blank or
// non-numeric input yields the inactive configuration.
func ParseSurcharge(raw string) SurchargeConfig {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SurchargeConfig{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return SurchargeConfig{}
	}
	return SurchargeFromDay(v)
}

// Active reports whether any night can be surcharged.
func (s SurchargeConfig) Active() bool {
	return s.active
}

// IncreaseFromDay returns the threshold and whether it is set.
func (s SurchargeConfig) IncreaseFromDay() (float64, bool) {
	return s.increaseFromDay, s.active
}

// Applies reports whether the night starting on the given date is surcharged.
func (s SurchargeConfig) Applies(night time.Time) bool {
	if !s.active {
		return false
	}
	return float64(night.Day()) > s.increaseFromDay
}

// String renders the threshold the way ParseSurcharge reads it back.
func (s SurchargeConfig) String() string {
	if !s.active {
		return ""
	}
	return strconv.FormatFloat(s.increaseFromDay, 'f', -1, 64)
}

// UnmarshalJSON accepts a number, a numeric string or null. Unparseable
// strings deactivate the rule; other JSON types are rejected.
func (s *SurchargeConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = SurchargeConfig{}
		return nil
	}
	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = ParseSurcharge(raw)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = SurchargeFromDay(v)
		return nil
	default:
		return ErrInvalidThreshold
	}
}

// MarshalJSON writes the threshold as a number, or null when inactive.
func (s SurchargeConfig) MarshalJSON() ([]byte, error) {
	if !s.active {
		return []byte("null"), nil
	}
	return json.Marshal(s.increaseFromDay)
}

// ComputeStayPricing prices every night of [from, to). A zero from or to, or a
// nil price, is an incomplete selection and yields the zero result. Inverted
// and same-day ranges have no nights. The function is pure and never fails.
func ComputeStayPricing(from, to time.Time, pricePerNight *float64, surcharge SurchargeConfig) PricingResult {
	if from.IsZero() || to.IsZero() || pricePerNight == nil {
		return PricingResult{}
	}
	return PriceRange(daterange.Of(from, to), *pricePerNight, surcharge)
}

// PriceRange is ComputeStayPricing over an already assembled range.
// A NaN or infinite price cannot be summed and is treated as unknown.
func PriceRange(dr daterange.DateRange, pricePerNight float64, surcharge SurchargeConfig) PricingResult {
	if math.IsNaN(pricePerNight) || math.IsInf(pricePerNight, 0) {
		return PricingResult{}
	}
	base := decimal.NewFromFloat(pricePerNight)
	increased := base.Mul(decimal.NewFromInt(SurchargeFactor))

	var result PricingResult
	total := decimal.Zero
	dr.EachNight(func(night time.Time) {
		result.Nights++
		if surcharge.Applies(night) {
			result.NightsWithIncrease++
			total = total.Add(increased)
			return
		}
		total = total.Add(base)
	})
	result.Total = total.Round(0).IntPart()
	return result
}
