// Package sms delivers Critical advisories over the SMS side channel. No
// gateway integration exists yet, so the simulated sender records and logs
// every message; the alerts engine only sees the Notifier interface.
package sms

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Message is one recorded outbound SMS.
type Message struct {
	Phone string
	Body  string
	At    string // RFC 3339
}

// SimulatedSender logs sends and keeps them in memory for inspection.
type SimulatedSender struct {
	mu     sync.Mutex
	sent   []Message
	err    error
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewSimulatedSender(clock clockwork.Clock, logger *slog.Logger) *SimulatedSender {
	return &SimulatedSender{clock: clock, logger: logger}
}

// Notify records the message. Returns the injected error, if any.
func (s *SimulatedSender) Notify(_ context.Context, phone, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	msg := Message{Phone: phone, Body: body, At: s.clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00")}
	s.sent = append(s.sent, msg)
	s.logger.Info("sms sent (simulated)",
		"phone", phone,
		"length", len(body))
	return nil
}

// Sent returns a copy of the delivery history.
func (s *SimulatedSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

// FailWith makes subsequent sends return err; nil restores delivery.
func (s *SimulatedSender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
