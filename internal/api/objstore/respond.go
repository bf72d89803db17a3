package objstore

import (
	"encoding/json"
	"errors"
	"net/http"

	"k8s.io/klog/v2"

	"objstore-backend/internal/application/validation"
	"objstore-backend/internal/domain/ports"
	"objstore-backend/internal/infrastructure/resilience"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		klog.ErrorS(err, "failed to encode response body")
	}
}

// writeError maps the error taxonomy onto status codes: validation, condition
// and duplicate failures are 400, lookup misses 404, version conflicts 409,
// circuit rejections 503, everything else 500
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *validation.ValidationError
		conditionErr  *ports.InvalidConditionError
		duplicateErr  *ports.DuplicateError
		notFoundErr   *ports.NotFoundError
		conflictErr   *ports.VersionConflictError
		openErr       *resilience.CircuitOpenError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &conditionErr), errors.As(err, &duplicateErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &conflictErr):
		status = http.StatusConflict
	case errors.As(err, &openErr):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		klog.ErrorS(err, "request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
