package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ledgerapp "github.com/batchline/backend/internal/application/ledger"
	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/batchline/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories for ledger handler tests

type stockKey struct {
	tenantID       uuid.UUID
	ingredientName string
	unit           string
}

type memStockRecordRepository struct {
	records   map[stockKey]*ledger.StockRecord
	returnErr error
}

func newMemStockRecordRepository() *memStockRecordRepository {
	return &memStockRecordRepository{
		records: make(map[stockKey]*ledger.StockRecord),
	}
}

func (m *memStockRecordRepository) put(record *ledger.StockRecord) {
	m.records[stockKey{record.TenantID, record.IngredientName, record.Unit}] = record
}

func (m *memStockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, record := range m.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStockRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.StockRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, record := range m.records {
		if record.ID == id && record.TenantID == tenantID {
			return record, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStockRecordRepository) FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*ledger.StockRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if record, ok := m.records[stockKey{tenantID, ingredientName, unit}]; ok {
		return record, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memStockRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []ledger.StockRecord
	for _, record := range m.records {
		if record.TenantID == tenantID {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (m *memStockRecordRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []ledger.StockRecord
	for _, record := range m.records {
		if record.TenantID == tenantID && record.IsLowStock() {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (m *memStockRecordRepository) Save(ctx context.Context, record *ledger.StockRecord) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.put(record)
	return nil
}

func (m *memStockRecordRepository) SaveWithLock(ctx context.Context, record *ledger.StockRecord) error {
	return m.Save(ctx, record)
}

func (m *memStockRecordRepository) GetOrCreate(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*ledger.StockRecord, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if record, ok := m.records[stockKey{tenantID, ingredientName, unit}]; ok {
		return record, nil
	}
	record, err := ledger.NewStockRecord(tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}
	m.put(record)
	return record, nil
}

func (m *memStockRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	if m.returnErr != nil {
		return 0, m.returnErr
	}
	var count int64
	for _, record := range m.records {
		if record.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (m *memStockRecordRepository) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if m.returnErr != nil {
		return 0, m.returnErr
	}
	var count int64
	for _, record := range m.records {
		if record.TenantID == tenantID && record.IsLowStock() {
			count++
		}
	}
	return count, nil
}

func (m *memStockRecordRepository) CountReserved(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if m.returnErr != nil {
		return 0, m.returnErr
	}
	var count int64
	for _, record := range m.records {
		if record.TenantID == tenantID && record.ReservedStock.GreaterThan(decimal.Zero) {
			count++
		}
	}
	return count, nil
}

type memStockTransactionRepository struct {
	txs       []*ledger.StockTransaction
	returnErr error
}

func newMemStockTransactionRepository() *memStockTransactionRepository {
	return &memStockTransactionRepository{}
}

func (m *memStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockTransaction, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	for _, tx := range m.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStockTransactionRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockTransaction, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []ledger.StockTransaction
	for _, tx := range m.txs {
		if tx.TenantID == tenantID {
			result = append(result, *tx)
		}
	}
	return result, nil
}

func (m *memStockTransactionRepository) FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string, filter shared.Filter) ([]ledger.StockTransaction, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []ledger.StockTransaction
	for _, tx := range m.txs {
		if tx.TenantID == tenantID && tx.IngredientName == ingredientName && tx.Unit == unit {
			result = append(result, *tx)
		}
	}
	return result, nil
}

func (m *memStockTransactionRepository) FindByBatchRef(ctx context.Context, tenantID uuid.UUID, batchRef string) ([]ledger.StockTransaction, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []ledger.StockTransaction
	for _, tx := range m.txs {
		if tx.TenantID == tenantID && tx.BatchRef != nil && *tx.BatchRef == batchRef {
			result = append(result, *tx)
		}
	}
	return result, nil
}

func (m *memStockTransactionRepository) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]ledger.StockTransaction, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []ledger.StockTransaction
	for _, tx := range m.txs {
		if tx.TenantID == tenantID && !tx.TransactionDate.Before(start) && tx.TransactionDate.Before(end) {
			result = append(result, *tx)
		}
	}
	return result, nil
}

func (m *memStockTransactionRepository) Create(ctx context.Context, tx *ledger.StockTransaction) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.txs = append(m.txs, tx)
	return nil
}

func (m *memStockTransactionRepository) CreateBatch(ctx context.Context, txs []*ledger.StockTransaction) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.txs = append(m.txs, txs...)
	return nil
}

func (m *memStockTransactionRepository) DeleteReservationTrail(ctx context.Context, tenantID uuid.UUID, batchRef string) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	var kept []*ledger.StockTransaction
	for _, tx := range m.txs {
		trail := tx.TenantID == tenantID && tx.BatchRef != nil && *tx.BatchRef == batchRef &&
			(tx.TransactionType == ledger.TransactionTypeReserve || tx.TransactionType == ledger.TransactionTypeUnreserve)
		if !trail {
			kept = append(kept, tx)
		}
	}
	m.txs = kept
	return nil
}

func (m *memStockTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	if m.returnErr != nil {
		return 0, m.returnErr
	}
	var count int64
	for _, tx := range m.txs {
		if tx.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (m *memStockTransactionRepository) SumSignedOnHand(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (decimal.Decimal, error) {
	if m.returnErr != nil {
		return decimal.Zero, m.returnErr
	}
	sum := decimal.Zero
	for _, tx := range m.txs {
		if tx.TenantID != tenantID || tx.IngredientName != ingredientName || tx.Unit != unit {
			continue
		}
		switch tx.TransactionType {
		case ledger.TransactionTypeAdd:
			sum = sum.Add(tx.Quantity)
		case ledger.TransactionTypeDeduct:
			sum = sum.Sub(tx.Quantity)
		}
	}
	return sum, nil
}

// Test helpers

func setupLedgerTestHandler() (*LedgerHandler, *memStockRecordRepository, *memStockTransactionRepository) {
	gin.SetMode(gin.TestMode)

	recordRepo := newMemStockRecordRepository()
	txRepo := newMemStockTransactionRepository()

	scope := ledgerapp.NewNoOpTransactionScope(recordRepo, txRepo, nil, nil)
	service := ledgerapp.NewLedgerService(scope, recordRepo, txRepo)
	handler := NewLedgerHandler(service)

	return handler, recordRepo, txRepo
}

func seedStockRecord(repo *memStockRecordRepository, tenantID uuid.UUID, name, unit string, current, reserved decimal.Decimal) *ledger.StockRecord {
	record, _ := ledger.NewStockRecord(tenantID, name, unit)
	record.CurrentStock = current
	record.ReservedStock = reserved
	record.ClearDomainEvents()
	repo.put(record)
	return record
}

// Tests

func TestNewLedgerHandler(t *testing.T) {
	handler, _, _ := setupLedgerTestHandler()
	assert.NotNil(t, handler)
	assert.NotNil(t, handler.ledgerService)
}

func TestLedgerHandler_ListStockLevels_Success(t *testing.T) {
	handler, recordRepo, _ := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(100), decimal.Zero)
	seedStockRecord(recordRepo, tenantID, "Whole Milk", "l", decimal.NewFromInt(40), decimal.Zero)
	seedStockRecord(recordRepo, tenantID, "Sugar", "kg", decimal.NewFromInt(25), decimal.Zero)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/inventory/stock-levels?page=1&page_size=20", nil)
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.ListStockLevels(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
}

func TestLedgerHandler_GetStockLevel_Success(t *testing.T) {
	handler, recordRepo, _ := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(80), decimal.NewFromInt(20))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/inventory/stock-levels/one?ingredient_name=Arabica+Beans&unit=kg", nil)
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.GetStockLevel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Arabica Beans", data["ingredient_name"])
	assert.Equal(t, "60", data["available_stock"])
}

func TestLedgerHandler_GetStockLevel_MissingParams(t *testing.T) {
	handler, _, _ := setupLedgerTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/inventory/stock-levels/one?ingredient_name=Sugar", nil)

	handler.GetStockLevel(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_GetStockLevel_NotFound(t *testing.T) {
	handler, _, _ := setupLedgerTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/inventory/stock-levels/one?ingredient_name=Matcha&unit=kg", nil)

	handler.GetStockLevel(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLedgerHandler_GetLowStockAlerts_Success(t *testing.T) {
	handler, recordRepo, _ := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	low := seedStockRecord(recordRepo, tenantID, "Vanilla Syrup", "l", decimal.NewFromInt(2), decimal.Zero)
	low.LowStockThreshold = decimal.NewFromInt(5)
	seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(100), decimal.Zero)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/inventory/alerts/low-stock", nil)
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.GetLowStockAlerts(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.([]interface{})
	require.Len(t, data, 1)
	record := data[0].(map[string]interface{})
	assert.Equal(t, "Vanilla Syrup", record["ingredient_name"])
	assert.True(t, record["is_low_stock"].(bool))
}

func TestLedgerHandler_AddStock_Success(t *testing.T) {
	handler, recordRepo, txRepo := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	reqBody := ledgerapp.AddStockRequest{
		IngredientName: "Arabica Beans",
		Unit:           "kg",
		Quantity:       decimal.NewFromFloat(12.5),
		Reason:         "Initial stock",
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/add", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.AddStock(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "12.5", data["current_stock"])

	// Record created, ADD row appended
	assert.Len(t, recordRepo.records, 1)
	require.Len(t, txRepo.txs, 1)
	assert.Equal(t, ledger.TransactionTypeAdd, txRepo.txs[0].TransactionType)
}

func TestLedgerHandler_AddStock_InvalidBody(t *testing.T) {
	handler, _, _ := setupLedgerTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/add", bytes.NewBufferString(`{"unit":"kg"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.AddStock(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_DeductStock_Success(t *testing.T) {
	handler, recordRepo, txRepo := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Whole Milk", "l", decimal.NewFromInt(40), decimal.Zero)

	reqBody := ledgerapp.DeductStockRequest{
		IngredientName: "Whole Milk",
		Unit:           "l",
		Quantity:       decimal.NewFromInt(15),
		Reason:         "Spoilage",
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/deduct", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.DeductStock(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.True(t, data["success"].(bool))
	assert.Equal(t, "25", data["available_stock_after"])
	require.Len(t, txRepo.txs, 1)
	assert.Equal(t, ledger.TransactionTypeDeduct, txRepo.txs[0].TransactionType)
}

func TestLedgerHandler_DeductStock_Insufficient(t *testing.T) {
	handler, recordRepo, txRepo := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Whole Milk", "l", decimal.NewFromInt(10), decimal.NewFromInt(5))

	reqBody := ledgerapp.DeductStockRequest{
		IngredientName: "Whole Milk",
		Unit:           "l",
		Quantity:       decimal.NewFromInt(8),
		Reason:         "Spoilage",
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/deduct", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.DeductStock(c)

	// Shortfall is a business result, not an HTTP error
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.False(t, data["success"].(bool))
	assert.Equal(t, "3", data["short_by"])
	assert.Empty(t, txRepo.txs)
}

func TestLedgerHandler_DeductStock_UnknownIngredient(t *testing.T) {
	handler, _, _ := setupLedgerTestHandler()

	reqBody := ledgerapp.DeductStockRequest{
		IngredientName: "Matcha",
		Unit:           "kg",
		Quantity:       decimal.NewFromInt(1),
		Reason:         "Waste",
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/deduct", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.DeductStock(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLedgerHandler_ReserveStock_Success(t *testing.T) {
	handler, recordRepo, txRepo := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	record := seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(50), decimal.Zero)

	reqBody := ledgerapp.ReserveStockRequest{
		IngredientName: "Arabica Beans",
		Unit:           "kg",
		Quantity:       decimal.NewFromInt(20),
		BatchRef:       "PB-7",
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/reserve", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.ReserveStock(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, record.ReservedStock.Equal(decimal.NewFromInt(20)))
	require.Len(t, txRepo.txs, 1)
	assert.Equal(t, ledger.TransactionTypeReserve, txRepo.txs[0].TransactionType)
}

func TestLedgerHandler_ReserveStock_ExceedsAvailable(t *testing.T) {
	handler, recordRepo, _ := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(10), decimal.NewFromInt(5))

	reqBody := ledgerapp.ReserveStockRequest{
		IngredientName: "Arabica Beans",
		Unit:           "kg",
		Quantity:       decimal.NewFromInt(8),
		BatchRef:       "PB-7",
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/reserve", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.ReserveStock(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLedgerHandler_UnreserveStock_Success(t *testing.T) {
	handler, recordRepo, _ := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	record := seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(50), decimal.NewFromInt(20))

	reqBody := ledgerapp.UnreserveStockRequest{
		IngredientName: "Arabica Beans",
		Unit:           "kg",
		Quantity:       decimal.NewFromInt(20),
		BatchRef:       "PB-7",
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/stock/unreserve", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.UnreserveStock(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, record.ReservedStock.IsZero())
}

func TestLedgerHandler_SetThreshold_Success(t *testing.T) {
	handler, recordRepo, _ := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Sugar", "kg", decimal.NewFromInt(3), decimal.Zero)

	reqBody := ledgerapp.SetThresholdRequest{
		IngredientName: "Sugar",
		Unit:           "kg",
		Threshold:      decimal.NewFromInt(5),
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPut, "/inventory/stock/threshold", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.SetThreshold(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "5", data["low_stock_threshold"])
	assert.True(t, data["is_low_stock"].(bool))
}

func TestLedgerHandler_ProcessSale_Success(t *testing.T) {
	handler, recordRepo, txRepo := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(10), decimal.Zero)
	seedStockRecord(recordRepo, tenantID, "Whole Milk", "l", decimal.NewFromInt(20), decimal.Zero)

	reqBody := ledgerapp.ProcessSaleRequest{
		UnitsSold: 4,
		Usage: []ledgerapp.IngredientUsage{
			{IngredientName: "Arabica Beans", Unit: "kg", UsagePerUnit: decimal.NewFromFloat(0.02)},
			{IngredientName: "Whole Milk", Unit: "l", UsagePerUnit: decimal.NewFromFloat(0.25)},
		},
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/sales/process", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.ProcessSale(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.True(t, data["success"].(bool))
	assert.Len(t, data["deductions"].([]interface{}), 2)
	assert.Len(t, txRepo.txs, 2)
}

func TestLedgerHandler_ProcessSale_Shortfall(t *testing.T) {
	handler, recordRepo, txRepo := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromFloat(0.05), decimal.Zero)

	reqBody := ledgerapp.ProcessSaleRequest{
		UnitsSold: 10,
		Usage: []ledgerapp.IngredientUsage{
			{IngredientName: "Arabica Beans", Unit: "kg", UsagePerUnit: decimal.NewFromFloat(0.02)},
		},
	}
	body, _ := json.Marshal(reqBody)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/inventory/sales/process", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.ProcessSale(c)

	// The whole sale fails with zero mutations
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	data := resp.Data.(map[string]interface{})
	assert.False(t, data["success"].(bool))
	assert.Len(t, data["shortfalls"].([]interface{}), 1)
	assert.Empty(t, txRepo.txs)
}

func TestLedgerHandler_ListTransactions_Success(t *testing.T) {
	handler, _, txRepo := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	recordID := uuid.New()

	tx, err := ledger.NewStockTransaction(
		tenantID, recordID, "Arabica Beans", "kg",
		ledger.TransactionTypeAdd, decimal.NewFromInt(10),
		decimal.Zero, decimal.NewFromInt(10), "Intake",
	)
	require.NoError(t, err)
	txRepo.txs = append(txRepo.txs, tx)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/inventory/transactions?page=1&page_size=20", nil)
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestLedgerHandler_GetStatistics_Success(t *testing.T) {
	handler, recordRepo, _ := setupLedgerTestHandler()

	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	seedStockRecord(recordRepo, tenantID, "Arabica Beans", "kg", decimal.NewFromInt(50), decimal.NewFromInt(10))
	low := seedStockRecord(recordRepo, tenantID, "Sugar", "kg", decimal.NewFromInt(1), decimal.Zero)
	low.LowStockThreshold = decimal.NewFromInt(5)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/inventory/statistics", nil)
	c.Request.Header.Set("X-Tenant-ID", tenantID.String())

	handler.GetStatistics(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["total_records"])
	assert.Equal(t, float64(1), data["reserved_keys"])
	assert.Equal(t, float64(1), data["low_stock_count"])
}
