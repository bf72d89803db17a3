package validation

import (
	"fmt"
	"strings"

	"objstore-backend/internal/domain/models"
)

// ValidateResource checks the identity and version fields every mutating call
// requires: tenant, type and id must be non-empty strings and the version a
// number >= 0
func ValidateResource(resource *models.Resource) error {
	if resource == nil {
		return NewValidationError("resource is required")
	}

	var missing []string
	if strings.TrimSpace(resource.TenantID) == "" {
		missing = append(missing, models.FieldTenantID)
	}
	if strings.TrimSpace(resource.ResourceType) == "" {
		missing = append(missing, models.FieldResourceType)
	}
	if strings.TrimSpace(resource.ResourceID) == "" {
		missing = append(missing, models.FieldResourceID)
	}
	if len(missing) > 0 {
		return NewValidationError(fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	if resource.Version < 0 {
		return NewValidationError(fmt.Sprintf("version must be >= 0, got %d", resource.Version))
	}
	return nil
}

// ValidateKey checks that the identity triple is complete
func ValidateKey(key models.ResourceKey) error {
	var missing []string
	if strings.TrimSpace(key.TenantID) == "" {
		missing = append(missing, models.FieldTenantID)
	}
	if strings.TrimSpace(key.ResourceType) == "" {
		missing = append(missing, models.FieldResourceType)
	}
	if strings.TrimSpace(key.ResourceID) == "" {
		missing = append(missing, models.FieldResourceID)
	}
	if len(missing) > 0 {
		return NewValidationError(fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	return nil
}
