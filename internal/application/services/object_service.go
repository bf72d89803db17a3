package services

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"objstore-backend/internal/application/validation"
	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/domain/ports"
)

// ObjectService is the use-case layer enforcing the versioned-resource
// lifecycle on top of a composed repository. It owns no durable state; all
// identity and version checks happen here so adapters stay naive about the
// protocol. Retry and circuit breaking are layered outside in the resilience
// decorator, never here.
type ObjectService struct {
	repo ports.Repository
}

// NewObjectService creates a new object service
func NewObjectService(repo ports.Repository) *ObjectService {
	return &ObjectService{repo: repo}
}

// CreateObject stores a new resource at version 1. The caller-supplied
// version is used for input validation only and never stored.
func (s *ObjectService) CreateObject(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	if err := validation.ValidateResource(resource); err != nil {
		return nil, err
	}

	key := resource.Key()
	existing, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		msg := fmt.Sprintf("resource %s already exists; use PUT to update it", key.Key())
		if resource.Version > 1 {
			msg = fmt.Sprintf("%s (current version is %d, the next update requires version %d)",
				msg, existing.Version, existing.Version+1)
		}
		return nil, ports.NewDuplicateError(key, msg)
	}

	created := resource.DeepCopy()
	created.Version = 1

	klog.V(4).InfoS("creating object", "key", key.Key())
	return s.repo.Create(ctx, created)
}

// UpdateObject replaces an existing resource wholesale under optimistic
// locking: the supplied version must equal the stored version plus one
func (s *ObjectService) UpdateObject(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	if err := validation.ValidateResource(resource); err != nil {
		return nil, err
	}

	key := resource.Key()
	existing, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ports.NewNotFoundError(key)
	}
	if resource.Version != existing.Version+1 {
		return nil, ports.NewVersionConflictError(key, existing.Version+1, resource.Version)
	}

	klog.V(4).InfoS("updating object", "key", key.Key(), "version", resource.Version)
	return s.repo.Update(ctx, resource.DeepCopy())
}

// DeleteObject removes a resource; deleting a non-existent identity reports
// false without error
func (s *ObjectService) DeleteObject(ctx context.Context, key models.ResourceKey) (bool, error) {
	if err := validation.ValidateKey(key); err != nil {
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, key)
	if err != nil {
		return false, err
	}
	klog.V(4).InfoS("deleted object", "key", key.Key(), "existed", deleted)
	return deleted, nil
}

// GetObject returns the resource for the identity triple, or nil when absent
func (s *ObjectService) GetObject(ctx context.Context, key models.ResourceKey) (*models.Resource, error) {
	if err := validation.ValidateKey(key); err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

// SearchObjects passes the condition straight through, filling in pagination
// defaults only for omitted fields; explicit values, zero and negative
// included, pass through uninterpreted
func (s *ObjectService) SearchObjects(ctx context.Context, condition *models.SearchCondition, pagination *models.Pagination) (*models.SearchResult, error) {
	return s.repo.Search(ctx, condition, withDefaults(pagination))
}

// ObjectExists reports whether any resource matches the condition
func (s *ObjectService) ObjectExists(ctx context.Context, condition *models.SearchCondition) (bool, error) {
	return s.repo.Exists(ctx, condition)
}

// CountObjects returns the number of resources matching the condition
func (s *ObjectService) CountObjects(ctx context.Context, condition *models.SearchCondition) (int64, error) {
	return s.repo.Count(ctx, condition)
}

func withDefaults(pagination *models.Pagination) *models.Pagination {
	out := &models.Pagination{}
	if pagination != nil {
		*out = *pagination
	}
	if out.Page == nil {
		page := models.DefaultPage
		out.Page = &page
	}
	if out.Limit == nil {
		limit := models.DefaultLimit
		out.Limit = &limit
	}
	return out
}
