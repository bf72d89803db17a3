// Package objstore exposes the object store's use-case operations over HTTP.
// Two URL conventions address the same operations: the full identity in the
// path, or the id in the path with tenant and type in the X-Tenant-ID and
// X-Resource-Type headers.
package objstore

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"objstore-backend/internal/application/services"
	"objstore-backend/internal/application/validation"
	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/infrastructure/resilience"
)

// Header names for the header-based URL convention
const (
	HeaderTenantID     = "X-Tenant-ID"
	HeaderResourceType = "X-Resource-Type"
)

// Handler serves the object store HTTP API
type Handler struct {
	service *services.ObjectService
	breaker *resilience.CircuitBreaker
}

// NewHandler creates a new handler. breaker may be nil when the repository is
// not wrapped in a circuit breaker.
func NewHandler(service *services.ObjectService, breaker *resilience.CircuitBreaker) *Handler {
	return &Handler{service: service, breaker: breaker}
}

// Routes returns the API route tree
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Path-based convention: full identity in the URL
	r.Route("/tenants/{tenantID}/types/{resourceType}/objects", func(r chi.Router) {
		r.Post("/", h.create(pathIdentity))
		r.Post("/search", h.search(pathIdentity))
		r.Get("/exists", h.exists(pathIdentity))
		r.Get("/count", h.count(pathIdentity))
		r.Get("/{resourceID}", h.get(pathIdentity))
		r.Put("/{resourceID}", h.update(pathIdentity))
		r.Delete("/{resourceID}", h.remove(pathIdentity))
	})

	// Header-based convention: id in the URL, tenant/type in headers
	r.Route("/objects", func(r chi.Router) {
		r.Post("/search", h.search(headerIdentity))
		r.Get("/exists", h.exists(headerIdentity))
		r.Get("/count", h.count(headerIdentity))
		r.Post("/{resourceID}", h.create(headerIdentity))
		r.Get("/{resourceID}", h.get(headerIdentity))
		r.Put("/{resourceID}", h.update(headerIdentity))
		r.Delete("/{resourceID}", h.remove(headerIdentity))
	})

	r.Route("/system/circuit-breaker", func(r chi.Router) {
		r.Get("/", h.breakerMetrics)
		r.Post("/reset", h.breakerReset)
	})

	return r
}

// identityFunc extracts the addressed identity from a request; resourceID may
// be empty on collection routes
type identityFunc func(r *http.Request) (models.ResourceKey, error)

func pathIdentity(r *http.Request) (models.ResourceKey, error) {
	return models.ResourceKey{
		TenantID:     chi.URLParam(r, "tenantID"),
		ResourceType: chi.URLParam(r, "resourceType"),
		ResourceID:   chi.URLParam(r, "resourceID"),
	}, nil
}

func headerIdentity(r *http.Request) (models.ResourceKey, error) {
	tenantID := r.Header.Get(HeaderTenantID)
	resourceType := r.Header.Get(HeaderResourceType)
	if tenantID == "" || resourceType == "" {
		return models.ResourceKey{}, validation.NewValidationError(
			"X-Tenant-ID and X-Resource-Type headers are required")
	}
	return models.ResourceKey{
		TenantID:     tenantID,
		ResourceType: resourceType,
		ResourceID:   chi.URLParam(r, "resourceID"),
	}, nil
}
