// Package integration provides integration testing for the Batchline backend API.
// This file wires a full API server against a real database for the other tests.
package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	archiveapp "github.com/batchline/backend/internal/application/archive"
	ledgerapp "github.com/batchline/backend/internal/application/ledger"
	productionapp "github.com/batchline/backend/internal/application/production"
	warehouseapp "github.com/batchline/backend/internal/application/warehouse"
	"github.com/batchline/backend/internal/infrastructure/persistence"
	"github.com/batchline/backend/internal/infrastructure/storage"
	"github.com/batchline/backend/internal/interfaces/http/handler"
	"github.com/batchline/backend/internal/interfaces/http/middleware"
	"github.com/batchline/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// APITestServer wraps the test database and HTTP server for API testing
type APITestServer struct {
	DB      *TestDB
	Engine  *gin.Engine
	Storage *storage.StubObjectStorage
}

// NewAPITestServer creates a test server with all domain routes registered,
// mirroring the wiring in cmd/server/main.go minus telemetry and auth.
func NewAPITestServer(t *testing.T) *APITestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	testDB := NewTestDB(t)

	// Repositories
	stockRecordRepo := persistence.NewGormStockRecordRepository(testDB.DB)
	stockTxRepo := persistence.NewGormStockTransactionRepository(testDB.DB)
	warehouseBatchRepo := persistence.NewGormWarehouseBatchRepository(testDB.DB)
	productionBatchRepo := persistence.NewGormProductionBatchRepository(testDB.DB)
	txScope := persistence.NewGormTransactionScope(testDB.DB)

	// Services
	objectStorage := storage.NewStubObjectStorage()
	ledgerService := ledgerapp.NewLedgerService(txScope, stockRecordRepo, stockTxRepo)
	warehouseService := warehouseapp.NewWarehouseService(txScope, warehouseBatchRepo)
	productionService := productionapp.NewProductionService(txScope, productionBatchRepo)
	archiveService := archiveapp.NewArchiveService(stockTxRepo, objectStorage, zap.NewNop())

	// Handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	warehouseHandler := handler.NewWarehouseHandler(warehouseService)
	productionHandler := handler.NewProductionHandler(productionService)
	archiveHandler := handler.NewArchiveHandler(archiveService)

	engine := gin.New()
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.GET("/stock-levels", ledgerHandler.ListStockLevels)
	inventoryRoutes.GET("/stock-levels/one", ledgerHandler.GetStockLevel)
	inventoryRoutes.GET("/alerts/low-stock", ledgerHandler.GetLowStockAlerts)
	inventoryRoutes.GET("/statistics", ledgerHandler.GetStatistics)
	inventoryRoutes.POST("/stock/add", ledgerHandler.AddStock)
	inventoryRoutes.POST("/stock/deduct", ledgerHandler.DeductStock)
	inventoryRoutes.POST("/stock/reserve", ledgerHandler.ReserveStock)
	inventoryRoutes.POST("/stock/unreserve", ledgerHandler.UnreserveStock)
	inventoryRoutes.PUT("/stock/threshold", ledgerHandler.SetThreshold)
	inventoryRoutes.POST("/sales/process", ledgerHandler.ProcessSale)
	inventoryRoutes.GET("/transactions", ledgerHandler.ListTransactions)
	inventoryRoutes.POST("/transactions/export", archiveHandler.Export)
	inventoryRoutes.GET("/transactions/export/download-url", archiveHandler.DownloadURL)

	warehouseRoutes := router.NewDomainGroup("warehouse", "/warehouse")
	warehouseRoutes.GET("/batches", warehouseHandler.List)
	warehouseRoutes.POST("/batches", warehouseHandler.Create)
	warehouseRoutes.GET("/batches/next-number", warehouseHandler.GetNextNumber)
	warehouseRoutes.GET("/batches/:id", warehouseHandler.GetByID)
	warehouseRoutes.DELETE("/batches/:id", warehouseHandler.Delete)
	warehouseRoutes.POST("/batches/:id/items", warehouseHandler.AddItems)
	warehouseRoutes.GET("/statistics", warehouseHandler.GetStatistics)

	productionRoutes := router.NewDomainGroup("production", "/production")
	productionRoutes.GET("/batches", productionHandler.List)
	productionRoutes.POST("/batches", productionHandler.Create)
	productionRoutes.GET("/batches/:id", productionHandler.GetByID)
	productionRoutes.DELETE("/batches/:id", productionHandler.Delete)
	productionRoutes.POST("/batches/:id/items", productionHandler.AddItems)
	productionRoutes.PUT("/batches/:id/status", productionHandler.UpdateStatus)
	productionRoutes.GET("/statistics", productionHandler.GetStatistics)

	r.Register(inventoryRoutes).
		Register(warehouseRoutes).
		Register(productionRoutes)
	r.Setup()

	return &APITestServer{
		DB:      testDB,
		Engine:  engine,
		Storage: objectStorage,
	}
}

// Request makes an HTTP request to the test server
func (ts *APITestServer) Request(method, path string, body any, tenantID ...uuid.UUID) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	if len(tenantID) > 0 {
		req.Header.Set("X-Tenant-ID", tenantID[0].String())
	}

	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	return w
}

// decodeResponse unmarshals a response body into the generic envelope
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var response map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err, "Response body: %s", w.Body.String())
	return response
}

// dataObject extracts the data field as an object
func dataObject(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	response := decodeResponse(t, w)
	require.True(t, response["success"].(bool), "Response body: %s", w.Body.String())
	data, ok := response["data"].(map[string]any)
	require.True(t, ok, "data is not an object: %s", w.Body.String())
	return data
}

// dataArray extracts the data field as an array
func dataArray(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()

	response := decodeResponse(t, w)
	require.True(t, response["success"].(bool), "Response body: %s", w.Body.String())
	data, ok := response["data"].([]any)
	require.True(t, ok, "data is not an array: %s", w.Body.String())
	return data
}
