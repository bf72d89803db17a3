package ports

import (
	"context"

	"objstore-backend/internal/domain/models"
)

// Repository defines the storage contract every backend adapter implements.
// Adapters evaluate or translate search condition trees against their native
// storage; identity and version lifecycle checks belong to the use-case layer.
type Repository interface {
	// Create stores a new resource, failing with DuplicateError when the
	// identity already exists
	Create(ctx context.Context, resource *models.Resource) (*models.Resource, error)

	// Update replaces the stored resource wholesale, failing with
	// NotFoundError when the identity does not exist
	Update(ctx context.Context, resource *models.Resource) (*models.Resource, error)

	// Delete removes a resource by key, reporting false (not an error) when
	// the identity does not exist
	Delete(ctx context.Context, key models.ResourceKey) (bool, error)

	// FindByKey returns the resource for the identity triple, or nil (not an
	// error) when absent
	FindByKey(ctx context.Context, key models.ResourceKey) (*models.Resource, error)

	// Search returns one page of matches plus the total filtered count
	Search(ctx context.Context, condition *models.SearchCondition, pagination *models.Pagination) (*models.SearchResult, error)

	// Exists reports whether any resource matches the condition
	Exists(ctx context.Context, condition *models.SearchCondition) (bool, error)

	// Count returns the number of resources matching the condition
	Count(ctx context.Context, condition *models.SearchCondition) (int64, error)

	// Close releases the adapter's client resources
	Close(ctx context.Context) error
}
