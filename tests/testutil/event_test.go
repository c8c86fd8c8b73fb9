package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("StockAdded", "StockDeducted")

	assert.Equal(t, []string{"StockAdded", "StockDeducted"}, handler.EventTypes())
	assert.Equal(t, 0, handler.HandledCount())
}

func TestMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("StockAdded")
	ctx := context.Background()

	t.Run("records handled events", func(t *testing.T) {
		event := NewTestEvent("StockAdded", uuid.New())

		require.NoError(t, handler.Handle(ctx, event))
		assert.Equal(t, 1, handler.HandledCount())
		assert.Equal(t, event, handler.Handled()[0])
	})

	t.Run("returns the configured error", func(t *testing.T) {
		handler.SetError(assert.AnError)

		err := handler.Handle(ctx, NewTestEvent("StockAdded", uuid.New()))
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("reset drops events and error", func(t *testing.T) {
		assert.NotZero(t, handler.HandledCount())

		handler.Reset()

		assert.Equal(t, 0, handler.HandledCount())
		assert.NoError(t, handler.Handle(ctx, NewTestEvent("StockAdded", uuid.New())))
	})
}

func TestNewTestEvent(t *testing.T) {
	tenantID := uuid.New()
	event := NewTestEvent("StockAdded", tenantID)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "StockAdded", event.EventType())
	assert.Equal(t, tenantID, event.TenantID())
	assert.False(t, event.OccurredAt().IsZero())
	assert.Equal(t, "qty=25", event.Data)
}

func TestNewTestEventWithID(t *testing.T) {
	eventID := uuid.New()
	tenantID := uuid.New()
	event := NewTestEventWithID(eventID, "StockReserved", tenantID)

	assert.Equal(t, eventID, event.EventID())
	assert.Equal(t, "StockReserved", event.EventType())
	assert.Equal(t, tenantID, event.TenantID())
}

func TestWaitForCondition(t *testing.T) {
	t.Run("condition met", func(t *testing.T) {
		counter := 0
		go func() {
			time.Sleep(20 * time.Millisecond)
			counter = 1
		}()

		met := WaitForCondition(t, func() bool {
			return counter == 1
		}, 200*time.Millisecond, 10*time.Millisecond)

		assert.True(t, met)
	})

	t.Run("timeout", func(t *testing.T) {
		met := WaitForCondition(t, func() bool {
			return false
		}, 50*time.Millisecond, 10*time.Millisecond)

		assert.False(t, met)
	})
}

func TestWaitForEventCount(t *testing.T) {
	handler := NewMockEventHandler("StockAdded")
	tenantID := uuid.New()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = handler.Handle(nil, NewTestEvent("StockAdded", tenantID))
		_ = handler.Handle(nil, NewTestEvent("StockAdded", tenantID))
	}()

	assert.True(t, WaitForEventCount(t, handler, 2, 200*time.Millisecond))
}
