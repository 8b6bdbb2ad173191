package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gamestore-labs/gamestore/internal/domain"
)

// Handler turns order events into customer notifications.
type Handler struct {
	sender EmailSender
	logger *slog.Logger
}

func NewHandler(sender EmailSender, logger *slog.Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

func (h *Handler) HandleOrderPlaced(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	subject := "Order Confirmation: " + event.OrderID
	body := fmt.Sprintf("Your order %s with %d items has been placed. Total: %s.",
		event.OrderID, len(event.Items), event.TotalPrice)

	if err := h.sender.Send(ctx, customerAddress(event.UserID), subject, body); err != nil {
		return fmt.Errorf("send order placed notification: %w", err)
	}

	return nil
}

func (h *Handler) HandleOrderPaid(ctx context.Context, payload []byte) error {
	var event domain.OrderPaidEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order paid event: %w", err)
	}

	h.logger.Info("processing order paid event", "order_id", event.OrderID, "payment_id", event.PaymentID)

	subject := "Payment Receipt: " + event.OrderID
	body := fmt.Sprintf("We received your payment of %s for order %s. Transaction id: %s.",
		event.AmountPaid, event.OrderID, event.TransactionID)

	if err := h.sender.Send(ctx, customerAddress(event.UserID), subject, body); err != nil {
		return fmt.Errorf("send payment receipt: %w", err)
	}

	return nil
}

func customerAddress(userID int64) string {
	return fmt.Sprintf("user-%d@example.com", userID)
}
