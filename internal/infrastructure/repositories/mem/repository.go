package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/domain/ports"
)

// Ensure Repository implements the repository contract
var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory repository backed by a map keyed on the
// serialized identity triple. All operations are guarded by a single RWMutex,
// so the version check in Update is atomic here, unlike the network-backed
// adapters.
type Repository struct {
	mu     sync.RWMutex
	items  map[string]*models.Resource
	closed bool
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		items: make(map[string]*models.Resource),
	}
}

// Create stores a new resource
func (r *Repository) Create(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("memory repository is closed")
	}

	key := resource.Key()
	if _, ok := r.items[key.Key()]; ok {
		return nil, ports.NewDuplicateError(key, "")
	}

	stored := resource.DeepCopy()
	r.items[key.Key()] = stored
	return stored.DeepCopy(), nil
}

// Update replaces the stored resource wholesale
func (r *Repository) Update(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("memory repository is closed")
	}

	key := resource.Key()
	existing, ok := r.items[key.Key()]
	if !ok {
		return nil, ports.NewNotFoundError(key)
	}
	if resource.Version != existing.Version+1 {
		return nil, ports.NewVersionConflictError(key, existing.Version+1, resource.Version)
	}

	stored := resource.DeepCopy()
	r.items[key.Key()] = stored
	return stored.DeepCopy(), nil
}

// Delete removes a resource by key, reporting whether it existed
func (r *Repository) Delete(ctx context.Context, key models.ResourceKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, errors.New("memory repository is closed")
	}

	if _, ok := r.items[key.Key()]; !ok {
		return false, nil
	}
	delete(r.items, key.Key())
	return true, nil
}

// FindByKey returns the resource for the identity triple, or nil when absent
func (r *Repository) FindByKey(ctx context.Context, key models.ResourceKey) (*models.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, errors.New("memory repository is closed")
	}

	resource, ok := r.items[key.Key()]
	if !ok {
		return nil, nil
	}
	return resource.DeepCopy(), nil
}

// Search evaluates the condition tree per record, then sorts and paginates.
// Total is the filtered count before pagination.
func (r *Repository) Search(ctx context.Context, condition *models.SearchCondition, pagination *models.Pagination) (*models.SearchResult, error) {
	if pagination == nil {
		pagination = &models.Pagination{}
	}

	matched, err := r.filter(condition)
	if err != nil {
		return nil, err
	}

	models.SortResources(matched, pagination.SortField, pagination.SortDirection)

	start, end := models.PageBounds(pagination.PageValue(), pagination.LimitValue(), len(matched))
	page := make([]models.Resource, 0, end-start)
	for _, resource := range matched[start:end] {
		page = append(page, *resource.DeepCopy())
	}

	return &models.SearchResult{
		Results: page,
		Total:   int64(len(matched)),
	}, nil
}

// Exists reports whether any resource matches the condition
func (r *Repository) Exists(ctx context.Context, condition *models.SearchCondition) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false, errors.New("memory repository is closed")
	}

	for _, resource := range r.items {
		if Evaluate(condition, resource) {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of resources matching the condition
func (r *Repository) Count(ctx context.Context, condition *models.SearchCondition) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, errors.New("memory repository is closed")
	}

	var n int64
	for _, resource := range r.items {
		if Evaluate(condition, resource) {
			n++
		}
	}
	return n, nil
}

// Close marks the repository closed
func (r *Repository) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Repository) filter(condition *models.SearchCondition) ([]models.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, errors.New("memory repository is closed")
	}

	matched := make([]models.Resource, 0)
	for _, resource := range r.items {
		if Evaluate(condition, resource) {
			matched = append(matched, *resource)
		}
	}
	// Map iteration order is random; anchor on the identity key so pagination
	// is stable across calls before any caller-requested sort applies.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Key().Key() < matched[j].Key().Key()
	})
	return matched, nil
}
