package ginserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	errInvalidDate = errors.New("dates must be YYYY-MM-DD or RFC3339")
	bindingsOnce   sync.Once
)

// registerBindings adds the stay_date tag to gin's validator.
func registerBindings() {
	bindingsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("stay_date", func(fl validator.FieldLevel) bool {
				_, err := parseStayDate(fl.Field().String())
				return err == nil
			})
		}
	})
}

// parseStayDate reads a calendar day. RFC3339 values keep their offset so the
// day is the one the client meant. Blank input is the zero time.
func parseStayDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, errInvalidDate
}

// parseStayDates parses a check-in/check-out pair already vetted by binding.
func parseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := parseStayDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := parseStayDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}
