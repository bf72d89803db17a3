package objstore

import (
	"encoding/json"
	"net/http"

	"objstore-backend/internal/application/validation"
	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/domain/ports"
)

func (h *Handler) create(identity identityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := identity(r)
		if err != nil {
			writeError(w, err)
			return
		}

		var resource models.Resource
		if err := json.NewDecoder(r.Body).Decode(&resource); err != nil {
			writeError(w, validation.NewValidationError("invalid request body: "+err.Error()))
			return
		}
		applyIdentity(&resource, key)

		created, err := h.service.CreateObject(r.Context(), &resource)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (h *Handler) update(identity identityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := identity(r)
		if err != nil {
			writeError(w, err)
			return
		}

		var resource models.Resource
		if err := json.NewDecoder(r.Body).Decode(&resource); err != nil {
			writeError(w, validation.NewValidationError("invalid request body: "+err.Error()))
			return
		}
		applyIdentity(&resource, key)

		updated, err := h.service.UpdateObject(r.Context(), &resource)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handler) get(identity identityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := identity(r)
		if err != nil {
			writeError(w, err)
			return
		}

		resource, err := h.service.GetObject(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		if resource == nil {
			writeError(w, ports.NewNotFoundError(key))
			return
		}
		writeJSON(w, http.StatusOK, resource)
	}
}

func (h *Handler) remove(identity identityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := identity(r)
		if err != nil {
			writeError(w, err)
			return
		}

		deleted, err := h.service.DeleteObject(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
	}
}

// applyIdentity makes the addressed identity authoritative over whatever the
// body carried. The body's version is kept for the lifecycle checks.
func applyIdentity(resource *models.Resource, key models.ResourceKey) {
	if key.TenantID != "" {
		resource.TenantID = key.TenantID
	}
	if key.ResourceType != "" {
		resource.ResourceType = key.ResourceType
	}
	if key.ResourceID != "" {
		resource.ResourceID = key.ResourceID
	}
}
