package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fillScope/internal/model"
)

func TestMemoryLookup(t *testing.T) {
	store := NewMemory()
	store.Put(model.StoredOrder{ID: "a", Price: "1"})
	store.Put(model.StoredOrder{ID: "b", Price: "2"})
	store.Put(model.StoredOrder{ID: "a", Price: "3"})

	found, err := store.OrdersByIDs(context.Background(), []string{"a", "missing", "a"})
	require.NoError(t, err)
	require.Equal(t, []model.StoredOrder{{ID: "a", Price: "3"}}, found)

	byID := Index(found)
	require.Contains(t, byID, "a")
	require.NotContains(t, byID, "b")
}
