package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	bookinghandlers "stayhub/internal/app/handlers/booking"
	"stayhub/internal/app/middleware"
	domainbooking "stayhub/internal/domain/booking"
)

const (
	PaymentApproved = "payment.approved"
	PaymentRejected = "payment.rejected"
)

// PaymentResult is the message the payment provider publishes per attempt.
type PaymentResult struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
	PaymentID string `json:"payment_id"`
}

// Inbox deduplicates consumed events.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// PaymentResultHandler confirms bookings whose payment was approved.
type PaymentResultHandler struct {
	Commands commands.Bus
	Inbox    Inbox
	Logger   *slog.Logger
}

// Handle returns an error only for failures worth redelivering. Malformed
// messages and outcomes the booking can no longer accept are logged and
// acknowledged.
func (h *PaymentResultHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	logger := h.logger()
	var result PaymentResult
	if err := json.Unmarshal(msg.Value, &result); err != nil {
		logger.Warn("payment result malformed", "offset", msg.Offset, "error", err)
		return nil
	}
	result.EventID = strings.TrimSpace(result.EventID)
	if result.EventID == "" || strings.TrimSpace(result.BookingID) == "" {
		logger.Warn("payment result missing ids", "offset", msg.Offset)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, result.EventID)
		if err != nil {
			return err
		}
		if seen {
			logger.Debug("payment result already handled", "event_id", result.EventID)
			return nil
		}
	}

	err := h.apply(ctx, result)
	if err != nil && h.Inbox != nil {
		if releaseErr := h.Inbox.Release(ctx, result.EventID); releaseErr != nil {
			logger.Error("inbox release failed", "event_id", result.EventID, "error", releaseErr)
		}
	}
	return err
}

func (h *PaymentResultHandler) apply(ctx context.Context, result PaymentResult) error {
	logger := h.logger().With("event_id", result.EventID, "booking_id", result.BookingID)
	switch result.Type {
	case PaymentApproved:
		cmd := bookinghandlers.ConfirmBookingCommand{BookingID: result.BookingID, PaymentRef: result.PaymentID}
		booking, err := commands.Dispatch[bookinghandlers.ConfirmBookingCommand, dto.Booking](ctx, h.Commands, cmd)
		switch {
		case err == nil:
			logger.Info("booking confirmed", "payment_id", result.PaymentID, "status", booking.Status)
			return nil
		case errors.Is(err, middleware.ErrInvalidMessage),
			errors.Is(err, domainbooking.ErrNotFound),
			errors.Is(err, domainbooking.ErrInvalidState),
			errors.Is(err, domainbooking.ErrRangeUnavailable),
			errors.Is(err, domainbooking.ErrPaymentRefRequired):
			logger.Warn("payment approval not applied", "payment_id", result.PaymentID, "error", err)
			return nil
		default:
			return err
		}
	case PaymentRejected:
		logger.Info("payment rejected", "payment_id", result.PaymentID)
		return nil
	default:
		logger.Debug("payment result ignored", "type", result.Type)
		return nil
	}
}

func (h *PaymentResultHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*PaymentResultHandler)(nil)
