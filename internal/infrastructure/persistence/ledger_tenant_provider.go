package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerTenantProvider lists the tenants that own ledger data. It backs
// the cron trigger, which fans scheduled jobs out per tenant.
type GormLedgerTenantProvider struct {
	db *gorm.DB
}

// NewGormLedgerTenantProvider creates a new GormLedgerTenantProvider
func NewGormLedgerTenantProvider(db *gorm.DB) *GormLedgerTenantProvider {
	return &GormLedgerTenantProvider{db: db}
}

// GetAllActiveTenantIDs returns every tenant with at least one stock record
func (p *GormLedgerTenantProvider) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := p.db.WithContext(ctx).
		Table("stock_records").
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}
