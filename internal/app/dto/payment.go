package dto

import (
	"time"

	"stayhub/internal/domain/payment"
)

type PaymentIntent struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Amount    MoneyDTO  `json:"amount"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
}

func MapPaymentIntent(in payment.Intent) PaymentIntent {
	return PaymentIntent{
		ID:        in.ID,
		BookingID: in.BookingID,
		Amount:    MapMoney(in.Amount),
		Method:    string(in.Method),
		CreatedAt: in.CreatedAt,
	}
}

// PaymentOptions is what the checkout form offers.
type PaymentOptions struct {
	Currencies []string `json:"currencies"`
	Methods    []string `json:"methods"`
}

func MapPaymentOptions(currencies []payment.Currency, methods []payment.Method) PaymentOptions {
	out := PaymentOptions{
		Currencies: make([]string, 0, len(currencies)),
		Methods:    make([]string, 0, len(methods)),
	}
	for _, c := range currencies {
		out.Currencies = append(out.Currencies, string(c))
	}
	for _, m := range methods {
		out.Methods = append(out.Methods, string(m))
	}
	return out
}
