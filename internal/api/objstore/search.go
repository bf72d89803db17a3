package objstore

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"objstore-backend/internal/application/validation"
	"objstore-backend/internal/domain/models"
)

// searchRequest is the body of a search call; pagination comes from query
// parameters
type searchRequest struct {
	Condition *models.SearchCondition `json:"condition,omitempty"`
}

func (h *Handler) search(identity identityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := identity(r)
		if err != nil {
			writeError(w, err)
			return
		}

		var req searchRequest
		if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, validation.NewValidationError("invalid request body: "+err.Error()))
				return
			}
		}

		condition := scopedCondition(key, req.Condition)
		result, err := h.service.SearchObjects(r.Context(), condition, parsePagination(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) exists(identity identityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := identity(r)
		if err != nil {
			writeError(w, err)
			return
		}

		exists, err := h.service.ObjectExists(r.Context(), scopedCondition(key, queryCondition(r)))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
	}
}

func (h *Handler) count(identity identityFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := identity(r)
		if err != nil {
			writeError(w, err)
			return
		}

		count, err := h.service.CountObjects(r.Context(), scopedCondition(key, queryCondition(r)))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"count": count})
	}
}

// scopedCondition pins the addressed tenant and type around the caller's
// condition so queries always resolve to a single tenant scope
func scopedCondition(key models.ResourceKey, condition *models.SearchCondition) *models.SearchCondition {
	scoped := models.And(
		models.Where(models.FieldTenantID, models.OpEqual, key.TenantID),
		models.Where(models.FieldResourceType, models.OpEqual, key.ResourceType),
	)
	if condition != nil {
		scoped.Conditions = append(scoped.Conditions, *condition)
	}
	return &scoped
}

// pagination and identity query parameters are reserved; everything else
// becomes an equality clause for exists/count
var reservedParams = map[string]bool{
	"page":          true,
	"limit":         true,
	"sortField":     true,
	"sortDirection": true,
}

func queryCondition(r *http.Request) *models.SearchCondition {
	var conditions []models.SearchCondition
	for field, values := range r.URL.Query() {
		if reservedParams[field] || len(values) == 0 {
			continue
		}
		conditions = append(conditions, models.Where(field, models.OpEqual, values[0]))
	}
	if len(conditions) == 0 {
		return nil
	}
	combined := models.And(conditions...)
	return &combined
}

// parsePagination reads pagination query parameters, leaving omitted fields
// nil so downstream defaulting can tell omission apart from explicit values
func parsePagination(r *http.Request) *models.Pagination {
	p := &models.Pagination{
		SortField:     r.URL.Query().Get("sortField"),
		SortDirection: models.SortDirection(r.URL.Query().Get("sortDirection")),
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Page = &n
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Limit = &n
		}
	}
	return p
}
