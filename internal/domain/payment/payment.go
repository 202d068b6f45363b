package payment

import (
	"errors"
	"math"
	"strings"
	"time"

	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/money"
)

var (
	ErrUnsupportedCurrency = errors.New("payment: unsupported currency")
	ErrUnsupportedMethod   = errors.New("payment: unsupported payment method")
	ErrAmountNotPositive   = errors.New("payment: amount must be greater than zero")
	ErrCurrencyMismatch    = errors.New("payment: currency differs from the booking currency")
)

type Currency string

const (
	CurrencyCOP Currency = "COP"
	CurrencyUSD Currency = "USD"
)

func ParseCurrency(raw string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(raw))); c {
	case CurrencyCOP, CurrencyUSD:
		return c, nil
	default:
		return "", ErrUnsupportedCurrency
	}
}

// Currencies lists the currencies guests can pay in.
func Currencies() []Currency {
	return []Currency{CurrencyCOP, CurrencyUSD}
}

type Method string

const (
	MethodCreditCard  Method = "CREDIT_CARD"
	MethodDebitCard   Method = "DEBIT_CARD"
	MethodPSE         Method = "PSE"
	MethodCash        Method = "CASH"
	MethodNequi       Method = "NEQUI"
	MethodBancolombia Method = "BANCOLOMBIA"
	MethodGooglePay   Method = "GOOGLE_PAY"
)

var methods = []Method{
	MethodCreditCard,
	MethodDebitCard,
	MethodPSE,
	MethodCash,
	MethodNequi,
	MethodBancolombia,
	MethodGooglePay,
}

// Methods lists the accepted payment methods in display order.
func Methods() []Method {
	out := make([]Method, len(methods))
	copy(out, methods)
	return out
}

func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range methods {
		if m == known {
			return m, nil
		}
	}
	return "", ErrUnsupportedMethod
}

// Amount is what the guest is charged: the quoted total when the quote priced
// anything, otherwise the plain nightly rate times the number of nights.
func Amount(quote pricing.PricingResult, pricePerNight *float64) (int64, error) {
	if quote.Total > 0 {
		return quote.Total, nil
	}
	if pricePerNight == nil {
		return 0, ErrAmountNotPositive
	}
	amount := *pricePerNight * float64(quote.Nights)
	if math.IsNaN(amount) || math.IsInf(amount, 0) || math.Round(amount) <= 0 {
		return 0, ErrAmountNotPositive
	}
	return int64(math.Round(amount)), nil
}

// Intent is a payment order handed to the payment provider.
type Intent struct {
	ID        string      `json:"id"`
	BookingID string      `json:"booking_id"`
	Amount    money.Money `json:"amount"`
	Method    Method      `json:"method"`
	CreatedAt time.Time   `json:"created_at"`
}

type IntentParams struct {
	ID            string
	BookingID     string
	Quote         pricing.PricingResult
	PricePerNight *float64
	// BookingCurrency is the currency the stay was quoted in.
	BookingCurrency string
	Currency        string
	Method          string
	Now             time.Time
}

func NewIntent(params IntentParams) (Intent, error) {
	currency, err := ParseCurrency(params.Currency)
	if err != nil {
		return Intent{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(params.BookingCurrency), string(currency)) {
		return Intent{}, ErrCurrencyMismatch
	}
	method, err := ParseMethod(params.Method)
	if err != nil {
		return Intent{}, err
	}
	amount, err := Amount(params.Quote, params.PricePerNight)
	if err != nil {
		return Intent{}, err
	}
	total, err := money.New(amount, string(currency))
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		ID:        params.ID,
		BookingID: params.BookingID,
		Amount:    total,
		Method:    method,
		CreatedAt: params.Now.UTC(),
	}, nil
}
