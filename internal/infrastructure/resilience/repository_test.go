package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/domain/ports"
)

// flakyRepository fails every call while broken is set
type flakyRepository struct {
	broken bool
	calls  int
	closed bool
}

var _ ports.Repository = (*flakyRepository)(nil)

func (f *flakyRepository) touch() error {
	f.calls++
	if f.broken {
		return errors.New("backend unavailable")
	}
	return nil
}

func (f *flakyRepository) Create(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return resource, nil
}

func (f *flakyRepository) Update(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return resource, nil
}

func (f *flakyRepository) Delete(ctx context.Context, key models.ResourceKey) (bool, error) {
	if err := f.touch(); err != nil {
		return false, err
	}
	return true, nil
}

func (f *flakyRepository) FindByKey(ctx context.Context, key models.ResourceKey) (*models.Resource, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *flakyRepository) Search(ctx context.Context, condition *models.SearchCondition, pagination *models.Pagination) (*models.SearchResult, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	return &models.SearchResult{}, nil
}

func (f *flakyRepository) Exists(ctx context.Context, condition *models.SearchCondition) (bool, error) {
	if err := f.touch(); err != nil {
		return false, err
	}
	return false, nil
}

func (f *flakyRepository) Count(ctx context.Context, condition *models.SearchCondition) (int64, error) {
	if err := f.touch(); err != nil {
		return 0, err
	}
	return 0, nil
}

func (f *flakyRepository) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestWrappedRepositoryPassesErrorsThrough(t *testing.T) {
	ctx := context.Background()
	inner := &flakyRepository{broken: true}
	wrapped := NewRepository(inner, NewCircuitBreaker(Config{FailureThreshold: 5}))

	_, err := wrapped.FindByKey(ctx, models.NewResourceKey("t1", "doc", "d1"))
	require.EqualError(t, err, "backend unavailable")
	assert.Equal(t, StateClosed, wrapped.Breaker().State())
}

func TestWrappedRepositoryOpensAndRejects(t *testing.T) {
	ctx := context.Background()
	inner := &flakyRepository{broken: true}
	wrapped := NewRepository(inner, NewCircuitBreaker(Config{FailureThreshold: 2}))

	_, _ = wrapped.Count(ctx, nil)
	_, _ = wrapped.Count(ctx, nil)
	require.Equal(t, StateOpen, wrapped.Breaker().State())

	_, err := wrapped.Count(ctx, nil)
	var open *CircuitOpenError
	require.ErrorAs(t, err, &open)
	// The rejected call never reached the backend
	assert.Equal(t, 2, inner.calls)
}

func TestWrappedRepositoryRecovers(t *testing.T) {
	ctx := context.Background()
	inner := &flakyRepository{broken: true}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	breaker := NewCircuitBreaker(Config{FailureThreshold: 1, ResetTimeout: time.Minute})
	breaker.now = clock.Now
	wrapped := NewRepository(inner, breaker)

	_, _ = wrapped.Exists(ctx, nil)
	require.Equal(t, StateOpen, breaker.State())

	inner.broken = false
	clock.Advance(2 * time.Minute)

	ok, err := wrapped.Delete(ctx, models.NewResourceKey("t1", "doc", "d1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestWrappedRepositoryCloseBypassesBreaker(t *testing.T) {
	ctx := context.Background()
	inner := &flakyRepository{broken: true}
	breaker := NewCircuitBreaker(Config{FailureThreshold: 1})
	wrapped := NewRepository(inner, breaker)

	_, _ = wrapped.Create(ctx, &models.Resource{})
	require.Equal(t, StateOpen, breaker.State())

	require.NoError(t, wrapped.Close(ctx))
	assert.True(t, inner.closed)
}
