package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/handler"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newTestService() *service.InventoryService {
	lotRepo := repository.NewDrugLotRepository(suite.DB)
	stockRepo := repository.NewStockRepository(suite.DB)
	serviceRepo := repository.NewServiceRepository(suite.DB)
	distRepo := repository.NewDistributionRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)
	log := logger.New("test", "test")

	cfg := &config.InventoryConfig{
		DefaultLowStockThreshold:   10,
		ExpiredSuppressesStockTags: true,
	}

	return service.NewInventoryService(
		lotRepo, stockRepo, serviceRepo, distRepo, alertRepo,
		nil, // no event publisher needed for handler tests
		nil, // no suggestion client needed for handler tests
		cfg, log,
	)
}

func newTestRouter() chi.Router {
	svc := newTestService()
	log := logger.New("test", "test")

	stockHandler := handler.NewStockHandler(svc, log)
	scanHandler := handler.NewScanHandler(svc, log)
	lotHandler := handler.NewLotHandler(svc, log)

	r := chi.NewRouter()
	r.Get("/api/v1/pharmacy/lots", lotHandler.List)
	r.Get("/api/v1/pharmacy/scan/{barcode}", scanHandler.LookupByBarcode)
	r.Post("/api/v1/pharmacy/stock/receive", stockHandler.Receive)
	r.Post("/api/v1/pharmacy/stock/distribute", stockHandler.Distribute)
	return r
}

func postJSON(t *testing.T, r chi.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// --- Receive Tests ---

func TestReceiveStock_CreatesLot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	r := newTestRouter()

	rr := postJSON(t, r, "/api/v1/pharmacy/stock/receive", map[string]interface{}{
		"barcode":     "3400930000300",
		"designation": "Amoxicilline 500mg",
		"quantity":    30,
	})
	assert.Equal(t, http.StatusOK, rr.Code, "unexpected status code. Body: %s", rr.Body.String())

	var resp httputil.Response
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	lot := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(30), lot["current_stock"])
	// New lots pick up the configured default threshold
	assert.Equal(t, float64(10), lot["low_stock_threshold"])
}

func TestReceiveStock_RejectsMissingFields(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := newTestRouter()

	rr := postJSON(t, r, "/api/v1/pharmacy/stock/receive", map[string]interface{}{
		"barcode": "3400930000301",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp httputil.Response
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

// --- Distribute Tests ---

func TestDistributeStock_InsufficientReturnsConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	serviceRepo := repository.NewServiceRepository(suite.DB)
	svc := &repository.Service{Name: "Cardiologie"}
	require.NoError(t, serviceRepo.Create(ctx, svc))

	r := newTestRouter()

	rr := postJSON(t, r, "/api/v1/pharmacy/stock/receive", map[string]interface{}{
		"barcode":     "3400930000302",
		"designation": "Insuline rapide",
		"quantity":    5,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	lotID := resp.Data.(map[string]interface{})["id"].(string)

	rr = postJSON(t, r, "/api/v1/pharmacy/stock/distribute", map[string]interface{}{
		"lot_id":     lotID,
		"quantity":   6,
		"service_id": svc.ID,
	})
	assert.Equal(t, http.StatusConflict, rr.Code, "unexpected status code. Body: %s", rr.Body.String())

	var errResp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	require.NotNil(t, errResp.Error)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Error.Code)
}

func TestDistributeStock_Success(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	serviceRepo := repository.NewServiceRepository(suite.DB)
	svc := &repository.Service{Name: "Urgences"}
	require.NoError(t, serviceRepo.Create(ctx, svc))

	r := newTestRouter()

	rr := postJSON(t, r, "/api/v1/pharmacy/stock/receive", map[string]interface{}{
		"barcode":     "3400930000303",
		"designation": "Doliprane 1000mg",
		"quantity":    20,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	lotID := resp.Data.(map[string]interface{})["id"].(string)

	rr = postJSON(t, r, "/api/v1/pharmacy/stock/distribute", map[string]interface{}{
		"lot_id":     lotID,
		"quantity":   8,
		"service_id": svc.ID,
	})
	assert.Equal(t, http.StatusOK, rr.Code, "unexpected status code. Body: %s", rr.Body.String())

	var distResp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &distResp))
	data := distResp.Data.(map[string]interface{})
	lot := data["lot"].(map[string]interface{})
	assert.Equal(t, float64(12), lot["current_stock"])
	dist := data["distribution"].(map[string]interface{})
	assert.Equal(t, "Urgences", dist["service_name"])
}

// --- Scan and List Tests ---

func TestLookupByBarcode_ReturnsAllLots(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	r := newTestRouter()

	for i := 0; i < 2; i++ {
		lotRepo := repository.NewDrugLotRepository(suite.DB)
		lot := &repository.DrugLot{
			Barcode:      "3400930000304",
			Designation:  fmt.Sprintf("Ibuprofène 400mg lot %d", i),
			CurrentStock: 10,
		}
		require.NoError(t, lotRepo.Create(ctx, lot))
	}

	req := httptest.NewRequest("GET", "/api/v1/pharmacy/scan/3400930000304", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	lots := resp.Data.([]interface{})
	assert.Len(t, lots, 2)
}

func TestListLots_FilterLowStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	lotRepo := repository.NewDrugLotRepository(suite.DB)
	low := &repository.DrugLot{
		Barcode:           "3400930000305",
		Designation:       "Morphine 10mg",
		CurrentStock:      2,
		LowStockThreshold: 10,
	}
	require.NoError(t, lotRepo.Create(ctx, low))
	ok := &repository.DrugLot{
		Barcode:           "3400930000306",
		Designation:       "Sérum physiologique",
		CurrentStock:      50,
		LowStockThreshold: 10,
	}
	require.NoError(t, lotRepo.Create(ctx, ok))

	r := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/pharmacy/lots?filter=low_stock", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	lots := resp.Data.([]interface{})
	require.Len(t, lots, 1)
	lot := lots[0].(map[string]interface{})
	assert.Equal(t, "Morphine 10mg", lot["designation"])
	assert.Contains(t, lot["status"], "low_stock")
}
