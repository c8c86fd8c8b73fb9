package event

import (
	"context"
	"fmt"

	"github.com/batchline/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher writes domain events into the outbox table as part of the
// caller's transaction, so ledger mutations and their events commit together.
type OutboxPublisher struct {
	serializer Serializer
}

// NewOutboxPublisher creates a publisher backed by the given serializer.
func NewOutboxPublisher(serializer Serializer) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
	}
}

// PublishWithTx serializes the events and saves them as outbox entries on tx.
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries, err := p.toEntries(events)
	if err != nil {
		return err
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

func (p *OutboxPublisher) toEntries(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return nil, err
		}
		entries = append(entries, shared.NewOutboxEntry(event.TenantID(), event, payload))
	}
	return entries, nil
}

// SaveEvents implements shared.OutboxEventSaver. The txProvider must carry
// the open *gorm.DB transaction the aggregate change runs in.
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider interface{}, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}

	return p.PublishWithTx(ctx, tx, events...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
