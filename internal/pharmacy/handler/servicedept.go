package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// ServiceHandler handles hospital service (department) endpoints
type ServiceHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(svc *service.InventoryService, log *logger.Logger) *ServiceHandler {
	return &ServiceHandler{
		service: svc,
		logger:  log,
	}
}

// List lists hospital services
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, services)
}

// Create creates a new hospital service
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var svc repository.Service
	if err := httputil.DecodeJSONLocalized(r, &svc); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		httputil.ErrorLocalized(w, r, errors.BadRequest("name is required"))
		return
	}

	if err := h.service.CreateService(r.Context(), &svc); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, svc)
}

// Get gets a hospital service by ID
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	svc, err := h.service.GetService(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, svc)
}

// Delete removes a hospital service. Past distributions keep the
// denormalized service name.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteService(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
