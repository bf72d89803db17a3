package dynamo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objstore-backend/internal/domain/models"
)

func TestSortKey(t *testing.T) {
	key := models.NewResourceKey("t1", "doc", "d1")
	assert.Equal(t, "doc#d1#3", sortKey(key, 3))

	t.Run("prefix is version-agnostic", func(t *testing.T) {
		prefix := sortKeyPrefix(key)
		assert.True(t, strings.HasPrefix(sortKey(key, 1), prefix))
		assert.True(t, strings.HasPrefix(sortKey(key, 42), prefix))
	})

	t.Run("prefix does not leak across ids", func(t *testing.T) {
		prefix := sortKeyPrefix(key)
		longer := sortKey(models.NewResourceKey("t1", "doc", "d10"), 1)
		assert.False(t, strings.HasPrefix(longer, prefix))
	})
}

func TestItemRoundTrip(t *testing.T) {
	resource := &models.Resource{
		TenantID:     "t1",
		ResourceType: "doc",
		ResourceID:   "d1",
		Version:      2,
		Data:         map[string]any{"title": "Annual Report", "rank": 4},
	}

	item, err := toItem(resource)
	require.NoError(t, err)
	assert.Contains(t, item, attrPartition)
	assert.Contains(t, item, attrSort)

	got, err := fromItem(item)
	require.NoError(t, err)
	assert.Equal(t, resource.Key(), got.Key())
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "Annual Report", got.Data["title"])
}
