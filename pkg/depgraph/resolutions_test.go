package depgraph_test

import (
	"testing"

	"github.com/depforge/depforge/pkg/depgraph"
	"github.com/depforge/depforge/pkg/depgraph/depgraphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionsStoreLoadAndEmitRoundTrip(t *testing.T) {
	fake := depgraphtest.New()
	store := depgraph.NewResolutionsStore()

	err := store.Load(drivers(fake), []byte("pkg a 1.0.0\npkg b 2.0.0\n"), nil)
	require.NoError(t, err)
	assert.Len(t, store.Entries(depgraph.SourcePkg), 2)

	emitted := store.Emit(drivers(fake))
	store2 := depgraph.NewResolutionsStore()
	require.NoError(t, store2.Load(drivers(fake), emitted, nil))
	assert.Equal(t, store.Entries(depgraph.SourcePkg), store2.Entries(depgraph.SourcePkg))
}

func TestResolutionsStoreLoadEmptyIsEmpty(t *testing.T) {
	fake := depgraphtest.New()
	store := depgraph.NewResolutionsStore()
	require.NoError(t, store.Load(drivers(fake), nil, nil))
	assert.Empty(t, store.Entries(depgraph.SourcePkg))
}
