package handler

import (
	"net/http"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/suggest"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// SuggestionHandler handles stock adjustment suggestion endpoints
type SuggestionHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(svc *service.InventoryService, log *logger.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		service: svc,
		logger:  log,
	}
}

// Suggest proxies an adjustment request to the suggestion service.
// Remote failures surface as a 502 so the caller can tell a pharmacy
// outage from a suggestion outage.
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggest.Request
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	suggestion, err := h.service.SuggestAdjustment(r.Context(), req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, suggestion)
}
