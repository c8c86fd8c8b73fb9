package event

import (
	"testing"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxEntry(t *testing.T) {
	tenantID := uuid.New()
	event := newTestEvent("StockDeducted", tenantID)
	payload := []byte(`{"sku":"FLOUR-001","quantity":25}`)

	entry := shared.NewOutboxEntry(tenantID, event, payload)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, tenantID, entry.TenantID)
	assert.Equal(t, event.EventID(), entry.EventID)
	assert.Equal(t, "StockDeducted", entry.EventType)
	assert.Equal(t, event.AggregateID(), entry.AggregateID)
	assert.Equal(t, "StockRecord", entry.AggregateType)
	assert.Equal(t, payload, entry.Payload)
	assert.Equal(t, shared.OutboxStatusPending, entry.Status)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Equal(t, shared.DefaultMaxRetries, entry.MaxRetries)
}

func outboxEntryAt(status shared.OutboxStatus, retryCount, maxRetries int) *shared.OutboxEntry {
	return &shared.OutboxEntry{
		Status:     status,
		RetryCount: retryCount,
		MaxRetries: maxRetries,
	}
}

func TestOutboxEntry_CanRetry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *shared.OutboxEntry
		expected bool
	}{
		{"pending cannot retry", outboxEntryAt(shared.OutboxStatusPending, 0, 5), false},
		{"failed with retries left can retry", outboxEntryAt(shared.OutboxStatusFailed, 2, 5), true},
		{"failed at max retries cannot retry", outboxEntryAt(shared.OutboxStatusFailed, 5, 5), false},
		{"dead cannot retry", outboxEntryAt(shared.OutboxStatusDead, 5, 5), false},
		{"sent cannot retry", outboxEntryAt(shared.OutboxStatusSent, 0, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.CanRetry())
		})
	}
}

func TestOutboxEntry_MarkProcessing(t *testing.T) {
	// Pending and failed entries may be claimed; a sent entry may not.
	for _, status := range []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailed} {
		t.Run("from "+string(status), func(t *testing.T) {
			entry := &shared.OutboxEntry{Status: status}

			require.NoError(t, entry.MarkProcessing())
			assert.Equal(t, shared.OutboxStatusProcessing, entry.Status)
		})
	}

	t.Run("from sent fails", func(t *testing.T) {
		entry := &shared.OutboxEntry{Status: shared.OutboxStatusSent}

		require.Error(t, entry.MarkProcessing())
	})
}

func TestOutboxEntry_MarkSent(t *testing.T) {
	entry := &shared.OutboxEntry{Status: shared.OutboxStatusProcessing}

	entry.MarkSent()

	assert.Equal(t, shared.OutboxStatusSent, entry.Status)
	assert.NotNil(t, entry.ProcessedAt)
}

func TestOutboxEntry_MarkFailed(t *testing.T) {
	t.Run("first failure", func(t *testing.T) {
		entry := outboxEntryAt(shared.OutboxStatusProcessing, 0, 5)

		entry.MarkFailed("publish failed")

		assert.Equal(t, shared.OutboxStatusFailed, entry.Status)
		assert.Equal(t, 1, entry.RetryCount)
		assert.Equal(t, "publish failed", entry.LastError)
		require.NotNil(t, entry.NextRetryAt)
		// The first retry lands about one second out.
		assert.True(t, entry.NextRetryAt.After(time.Now()))
		assert.True(t, entry.NextRetryAt.Before(time.Now().Add(2*time.Second)))
	})

	t.Run("max retries exceeded becomes dead", func(t *testing.T) {
		entry := outboxEntryAt(shared.OutboxStatusProcessing, 4, 5)

		entry.MarkFailed("final error")

		assert.Equal(t, shared.OutboxStatusDead, entry.Status)
		assert.Equal(t, 5, entry.RetryCount)
	})

	t.Run("exponential backoff", func(t *testing.T) {
		entry := outboxEntryAt(shared.OutboxStatusProcessing, 3, 5)

		before := time.Now()
		entry.MarkFailed("error")

		// Fourth attempt backs off 2^3 = 8 seconds.
		assert.True(t, entry.NextRetryAt.After(before.Add(7*time.Second)))
		assert.True(t, entry.NextRetryAt.Before(before.Add(10*time.Second)))
	})
}
