package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/stock"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// LotHandler handles drug lot endpoints
type LotHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(svc *service.InventoryService, log *logger.Logger) *LotHandler {
	return &LotHandler{
		service: svc,
		logger:  log,
	}
}

// List lists drug lots filtered by the primary view and advanced criteria
func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	primary := stock.PrimaryFilter(r.URL.Query().Get("filter"))
	adv := parseAdvancedCriteria(r)

	lots, err := h.service.ListLots(r.Context(), primary, adv)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

// Get gets a lot by ID
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// Create creates a new lot
func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var lot repository.DrugLot
	if err := httputil.DecodeJSONLocalized(r, &lot); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := h.service.CreateLot(r.Context(), &lot); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, lot)
}

// Update updates a lot's metadata. Stock levels change only through the
// receive and distribute endpoints.
func (h *LotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var lot repository.DrugLot
	if err := httputil.DecodeJSONLocalized(r, &lot); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	lot.ID = id
	view, err := h.service.UpdateLot(r.Context(), &lot)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// Delete soft-deletes a lot
func (h *LotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteLot(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}

// parseAdvancedCriteria reads the optional advanced filter query
// parameters. Unparseable numeric or date values are ignored rather than
// rejected so a sloppy client still gets a result set.
func parseAdvancedCriteria(r *http.Request) stock.AdvancedCriteria {
	q := r.URL.Query()

	adv := stock.AdvancedCriteria{
		Category: q.Get("category"),
		Rotation: stock.RotationBucket(q.Get("rotation")),
	}

	adv.MinStock = parseIntParam(q.Get("min_stock"))
	adv.MaxStock = parseIntParam(q.Get("max_stock"))
	adv.CreatedFrom = parseDateParam(q.Get("created_from"))
	adv.CreatedTo = parseDateParam(q.Get("created_to"))
	adv.UpdatedFrom = parseDateParam(q.Get("updated_from"))
	adv.UpdatedTo = parseDateParam(q.Get("updated_to"))

	return adv
}

func parseIntParam(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseDateParam(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
