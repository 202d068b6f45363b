package payment

import (
	"context"

	"stayhub/internal/app/dto"
	"stayhub/internal/app/queries"
	domainpayment "stayhub/internal/domain/payment"
)

const paymentOptionsKey = "payment.options"

type PaymentOptionsQuery struct{}

func (q PaymentOptionsQuery) Key() string { return paymentOptionsKey }

type PaymentOptionsHandler struct{}

func (h *PaymentOptionsHandler) Handle(context.Context, PaymentOptionsQuery) (dto.PaymentOptions, error) {
	return dto.MapPaymentOptions(domainpayment.Currencies(), domainpayment.Methods()), nil
}

var _ queries.Handler[PaymentOptionsQuery, dto.PaymentOptions] = (*PaymentOptionsHandler)(nil)
