package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// ScanHandler handles barcode scan lookup endpoints
type ScanHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(svc *service.InventoryService, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service: svc,
		logger:  log,
	}
}

// LookupByBarcode returns every lot carrying the scanned barcode, newest
// first. A barcode can map to several lots of the same drug.
func (h *ScanHandler) LookupByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	if barcode == "" {
		httputil.ErrorLocalized(w, r, errors.BadRequest("barcode is required"))
		return
	}
	// Reject excessively long input to avoid unnecessary DB queries
	if len(barcode) > 200 {
		httputil.ErrorLocalized(w, r, errors.BadRequest("barcode too long"))
		return
	}

	lots, err := h.service.ScanBarcode(r.Context(), barcode)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}
