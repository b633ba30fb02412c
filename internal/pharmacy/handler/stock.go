package handler

import (
	"net/http"
	"strconv"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// StockHandler handles stock movement endpoints
type StockHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.InventoryService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  log,
	}
}

// Receive records an incoming delivery
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var input service.ReceiveStockInput
	if err := httputil.DecodeJSONLocalized(r, &input); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	lot, err := h.service.ReceiveStock(r.Context(), input)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// Distribute sends stock from a lot to a hospital service
func (h *StockHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	var input service.DistributeStockInput
	if err := httputil.DecodeJSONLocalized(r, &input); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(input); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	lot, dist, err := h.service.DistributeStock(r.Context(), input)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"lot":          lot,
		"distribution": dist,
	})
}

// ListDistributions lists the most recent distribution ledger entries
func (h *StockHandler) ListDistributions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 0 {
		limit = 0
	}

	distributions, err := h.service.ListDistributions(r.Context(), limit)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, distributions)
}
