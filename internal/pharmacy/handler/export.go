package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/stock"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// ExportHandler handles inventory export endpoints
type ExportHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.InventoryService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// Export serves the inventory as CSV or PDF. The same filter query
// parameters as the lot list apply, so the export matches what the
// caller sees on screen.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		httputil.ErrorLocalized(w, r, errors.BadRequest("format must be csv or pdf"))
		return
	}

	primary := stock.PrimaryFilter(r.URL.Query().Get("filter"))
	adv := parseAdvancedCriteria(r)

	lots, err := h.service.ListLots(r.Context(), primary, adv)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "pdf":
		data, err = h.service.ExportPDF(lots)
		contentType = "application/pdf"
	default:
		data, err = h.service.ExportCSV(lots)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		h.logger.Error().Err(err).Str("format", format).Msg("failed to generate inventory export")
		http.Error(w, "Failed to generate export", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("pharmacy-inventory-%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}
