package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objstore-backend/internal/application/services"
	"objstore-backend/internal/domain/models"
	"objstore-backend/internal/infrastructure/repositories/mem"
	"objstore-backend/internal/infrastructure/resilience"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := NewHandler(services.NewObjectService(mem.NewRepository()), nil)
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func TestPathConventionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/tenants/t1/types/doc/objects"

	t.Run("create stores at version 1", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, base, map[string]any{
			"resourceId": "d1",
			"title":      "A",
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created models.Resource
		require.NoError(t, json.Unmarshal(body, &created))
		assert.Equal(t, "t1", created.TenantID)
		assert.Equal(t, "doc", created.ResourceType)
		assert.Equal(t, int64(1), created.Version)
		assert.Equal(t, "A", created.Data["title"])
	})

	t.Run("duplicate create is a bad request", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, base, map[string]any{"resourceId": "d1"}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "already exists")
	})

	t.Run("get returns the stored resource", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, base+"/d1", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Resource
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "d1", got.ResourceID)
	})

	t.Run("get of a missing id is 404", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, base+"/ghost", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("update with the wrong version is a conflict", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, base+"/d1", map[string]any{
			"version": 5,
			"title":   "B",
		}, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, string(body), "expected version 2")
	})

	t.Run("update with the next version succeeds", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, base+"/d1", map[string]any{
			"version": 2,
			"title":   "B",
		}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated models.Resource
		require.NoError(t, json.Unmarshal(body, &updated))
		assert.Equal(t, int64(2), updated.Version)
		assert.Equal(t, "B", updated.Data["title"])
	})

	t.Run("delete reports existence", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodDelete, base+"/d1", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"deleted":true}`, string(body))

		resp, body = doJSON(t, http.MethodDelete, base+"/d1", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"deleted":false}`, string(body))
	})
}

func TestHeaderConvention(t *testing.T) {
	srv := newTestServer(t)
	headers := map[string]string{
		HeaderTenantID:     "t1",
		HeaderResourceType: "doc",
	}

	t.Run("missing headers are a bad request", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/objects/d1", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), HeaderTenantID)
	})

	t.Run("headers address the same store as the path", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/objects/d1",
			map[string]any{"title": "A"}, headers)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/tenants/t1/types/doc/objects/d1", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Resource
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "A", got.Data["title"])
	})
}

func TestSearchEndpoints(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/tenants/t1/types/doc/objects"

	seed := []map[string]any{
		{"resourceId": "d1", "status": "active", "rank": 1},
		{"resourceId": "d2", "status": "draft", "rank": 2},
		{"resourceId": "d3", "status": "active", "rank": 3},
	}
	for _, body := range seed {
		resp, _ := doJSON(t, http.MethodPost, base, body, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	// A record in another tenant that must never leak into t1 results
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/tenants/t2/types/doc/objects",
		map[string]any{"resourceId": "x", "status": "active"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("search scopes to the addressed tenant and type", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, base+"/search", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result models.SearchResult
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, int64(3), result.Total)
	})

	t.Run("search applies the caller condition", func(t *testing.T) {
		cond := models.Where("status", models.OpEqual, "active")
		resp, body := doJSON(t, http.MethodPost, base+"/search",
			map[string]any{"condition": cond}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result models.SearchResult
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, int64(2), result.Total)
	})

	t.Run("pagination query parameters", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost,
			base+"/search?page=2&limit=2&sortField=rank&sortDirection=ASC", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result models.SearchResult
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, int64(3), result.Total)
		require.Len(t, result.Results, 1)
		assert.Equal(t, "d3", result.Results[0].ResourceID)
	})

	t.Run("exists with query equality", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, base+"/exists?status=draft", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"exists":true}`, string(body))

		resp, body = doJSON(t, http.MethodGet, base+"/exists?status=archived", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"exists":false}`, string(body))
	})

	t.Run("count with query equality", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, base+"/count?status=active", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"count":2}`, string(body))
	})
}

func TestCircuitBreakerEndpoints(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv := newTestServer(t)
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/system/circuit-breaker/", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("metrics and reset", func(t *testing.T) {
		repo := mem.NewRepository()
		require.NoError(t, repo.Close(context.Background()))

		breaker := resilience.NewCircuitBreaker(resilience.Config{FailureThreshold: 1})
		wrapped := resilience.NewRepository(repo, breaker)
		handler := NewHandler(services.NewObjectService(wrapped), breaker)
		srv := httptest.NewServer(handler.Routes())
		t.Cleanup(srv.Close)

		// The closed repository fails the call and opens the breaker
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/tenants/t1/types/doc/objects/d1", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/tenants/t1/types/doc/objects/d1", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		resp, body := doJSON(t, http.MethodGet, srv.URL+"/system/circuit-breaker/", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var metrics resilience.Metrics
		require.NoError(t, json.Unmarshal(body, &metrics))
		assert.Equal(t, resilience.StateOpen, metrics.State)
		assert.Equal(t, int64(2), metrics.TotalRequests)

		resp, _ = doJSON(t, http.MethodPost, srv.URL+"/system/circuit-breaker/reset", nil, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, resilience.StateClosed, breaker.State())
	})
}
