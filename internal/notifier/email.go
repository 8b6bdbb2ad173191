package notifier

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SimulatedSender stands in for a real mail provider: it sleeps a randomized
// delivery delay and logs the message.
type SimulatedSender struct {
	logger *slog.Logger
}

func NewSimulatedSender(logger *slog.Logger) *SimulatedSender {
	return &SimulatedSender{logger: logger}
}

func (s *SimulatedSender) Send(ctx context.Context, to, subject, body string) error {
	delay := time.Duration(50+rand.Intn(151)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}
