package sms

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSender(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC))
	sender := NewSimulatedSender(clk, slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("records deliveries", func(t *testing.T) {
		require.NoError(t, sender.Notify(context.Background(), "+8801712345678", "জরুরি সতর্কতা"))

		sent := sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "+8801712345678", sent[0].Phone)
		assert.Equal(t, "জরুরি সতর্কতা", sent[0].Body)
		assert.Equal(t, "2025-11-10T09:00:00Z", sent[0].At)
	})

	t.Run("injected failure", func(t *testing.T) {
		gatewayErr := errors.New("gateway down")
		sender.FailWith(gatewayErr)

		err := sender.Notify(context.Background(), "+8801712345678", "বার্তা")
		assert.ErrorIs(t, err, gatewayErr)
		assert.Len(t, sender.Sent(), 1, "failed sends are not recorded")

		sender.FailWith(nil)
		require.NoError(t, sender.Notify(context.Background(), "+8801712345678", "বার্তা"))
		assert.Len(t, sender.Sent(), 2)
	})
}
