package resilience

import (
	"context"

	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/domain/ports"
)

// Ensure Repository implements the repository contract
var _ ports.Repository = (*Repository)(nil)

// Repository decorates any repository with circuit breaker admission control.
// It holds no backend-specific knowledge; errors from the wrapped repository
// are recorded as failures and re-returned unchanged so upstream status-code
// mapping still sees their identity.
type Repository struct {
	inner   ports.Repository
	breaker *CircuitBreaker
}

// NewRepository wraps a repository with the given circuit breaker. The
// breaker must not be shared across wrapped repositories.
func NewRepository(inner ports.Repository, breaker *CircuitBreaker) *Repository {
	return &Repository{
		inner:   inner,
		breaker: breaker,
	}
}

// Breaker exposes the circuit breaker for operational callers
func (r *Repository) Breaker() *CircuitBreaker {
	return r.breaker
}

// Create delegates under circuit breaker admission
func (r *Repository) Create(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	return execute(r.breaker, func() (*models.Resource, error) {
		return r.inner.Create(ctx, resource)
	})
}

// Update delegates under circuit breaker admission
func (r *Repository) Update(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	return execute(r.breaker, func() (*models.Resource, error) {
		return r.inner.Update(ctx, resource)
	})
}

// Delete delegates under circuit breaker admission
func (r *Repository) Delete(ctx context.Context, key models.ResourceKey) (bool, error) {
	return execute(r.breaker, func() (bool, error) {
		return r.inner.Delete(ctx, key)
	})
}

// FindByKey delegates under circuit breaker admission
func (r *Repository) FindByKey(ctx context.Context, key models.ResourceKey) (*models.Resource, error) {
	return execute(r.breaker, func() (*models.Resource, error) {
		return r.inner.FindByKey(ctx, key)
	})
}

// Search delegates under circuit breaker admission
func (r *Repository) Search(ctx context.Context, condition *models.SearchCondition, pagination *models.Pagination) (*models.SearchResult, error) {
	return execute(r.breaker, func() (*models.SearchResult, error) {
		return r.inner.Search(ctx, condition, pagination)
	})
}

// Exists delegates under circuit breaker admission
func (r *Repository) Exists(ctx context.Context, condition *models.SearchCondition) (bool, error) {
	return execute(r.breaker, func() (bool, error) {
		return r.inner.Exists(ctx, condition)
	})
}

// Count delegates under circuit breaker admission
func (r *Repository) Count(ctx context.Context, condition *models.SearchCondition) (int64, error) {
	return execute(r.breaker, func() (int64, error) {
		return r.inner.Count(ctx, condition)
	})
}

// Close releases the wrapped repository without admission control; shutdown
// must not depend on circuit state
func (r *Repository) Close(ctx context.Context) error {
	return r.inner.Close(ctx)
}

func execute[T any](breaker *CircuitBreaker, fn func() (T, error)) (T, error) {
	var out T
	err := breaker.Execute(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
