package memory

import (
	"context"
	"sync"
	"testing"

	artdomain "github.com/edge-gallery/storefront/internal/domain/artwork"
	orderdomain "github.com/edge-gallery/storefront/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtworkRepositoryClonesOnRead(t *testing.T) {
	repo := NewArtworkRepository()
	ctx := context.Background()

	a, err := artdomain.New(1, "Tidal Study", 120, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, a))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	got.Quantity = 0

	again, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Quantity, "mutating a read result must not touch the store")
}

func TestArtworkRepositoryDecrementStock(t *testing.T) {
	repo := NewArtworkRepository()
	ctx := context.Background()

	a, err := artdomain.New(5, "Blue Interval", 80, 2)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, a))

	results, err := repo.DecrementStock(ctx, []artdomain.Decrement{
		{ArtworkID: 5, Quantity: 3},
		{ArtworkID: 404, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Remaining)
	assert.False(t, results[0].Satisfied)
}

func TestArtworkRepositoryConcurrentDecrementsClampAtZero(t *testing.T) {
	repo := NewArtworkRepository()
	ctx := context.Background()

	a, err := artdomain.New(9, "Quiet Harbour", 250, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, a))

	const workers = 16
	var wg sync.WaitGroup
	satisfied := make([]bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results, derr := repo.DecrementStock(ctx, []artdomain.Decrement{{ArtworkID: 9, Quantity: 1}})
			if !assert.NoError(t, derr) || !assert.Len(t, results, 1) {
				return
			}
			assert.GreaterOrEqual(t, results[0].Remaining, 0)
			satisfied[i] = results[0].Satisfied
		}(i)
	}
	wg.Wait()

	got, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	var covered int
	for _, ok := range satisfied {
		if ok {
			covered++
		}
	}
	assert.Equal(t, 10, covered, "exactly the seeded stock can be satisfied")
}

func TestOrderRepositoryCreateIfAbsent(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	uid := "user-1"

	first, err := orderdomain.New(&uid, "pi_1", 1000, "paid")
	require.NoError(t, err)
	_, created, err := repo.CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	replay, err := orderdomain.New(&uid, "pi_1", 1000, "paid")
	require.NoError(t, err)
	stored, created, err := repo.CreateIfAbsent(ctx, replay)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, stored.ID)
}

func TestProcessedEventStore(t *testing.T) {
	store := NewProcessedEventStore()
	ctx := context.Background()

	seen, err := store.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.MarkProcessed(ctx, "evt_1"))
	seen, err = store.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}
