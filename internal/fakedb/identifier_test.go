package fakedb

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fakedb/internal/testutil"
)

func TestSequence_StartsAtOne(t *testing.T) {
	seq := NewSequence[struct{}]()

	assert.Equal(t, uint64(1), seq.NewID(struct{}{}))
	assert.Equal(t, uint64(2), seq.NewID(struct{}{}))
	assert.Equal(t, uint64(3), seq.NewID(struct{}{}))
	assert.Equal(t, uint64(3), seq.Current())
	assert.False(t, seq.IsAutogenerated())
}

func TestSequenceAt_ContinuesNumbering(t *testing.T) {
	seq := NewSequenceAt[string](41)
	assert.Equal(t, uint64(42), seq.NewID("anything"))
}

func TestSequence_ThreadSafe(t *testing.T) {
	seq := NewSequence[int]()
	const numGoroutines = 100
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make([][]uint64, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		results[i] = make([]uint64, callsPerGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				results[idx][j] = seq.NewID(j)
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, row := range results {
		for _, id := range row {
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	}

	total := numGoroutines * callsPerGoroutine
	assert.Len(t, seen, total)
	for i := uint64(1); i <= uint64(total); i++ {
		assert.True(t, seen[i], "missing id %d", i)
	}
}

func TestSequences_AreInstanceScoped(t *testing.T) {
	a := NewSequence[int]()
	b := NewSequence[int]()

	a.NewID(0)
	a.NewID(0)
	assert.Equal(t, uint64(1), b.NewID(0))
}

func TestByField_ProjectsKey(t *testing.T) {
	id := ByField(func(c Country) uint32 { return c.ID })

	assert.Equal(t, uint32(49), id.NewID(Country{ID: 49, Name: "Germany"}))
	assert.True(t, id.IsAutogenerated())
}

func TestUUIDv7_ProducesDistinctVersion7IDs(t *testing.T) {
	var gen UUIDv7[Country]

	first := gen.NewID(Country{})
	second := gen.NewID(Country{})
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 36)

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.False(t, gen.IsAutogenerated())
}

func TestUUIDv7_KeysSurviveUpdateMany(t *testing.T) {
	db := New[string, Country](UUIDv7[Country]{}, WithLogger(testutil.DiscardLogger()))
	require.NoError(t, db.Insert(Country{Name: "Peru"}))

	before, err := db.Snapshot()
	require.NoError(t, err)

	require.NoError(t, db.UpdateMany(UpdateArgs[Country]{
		Updater: func(c *Country) { c.Name = "Perú" },
	}))

	after, err := db.Snapshot()
	require.NoError(t, err)
	require.Len(t, after, 1)
	for k := range before {
		assert.Equal(t, "Perú", after[k].Name)
	}
}

func TestCheckCardinality(t *testing.T) {
	id := ByField(func(c Country) uint32 { return c.ID })

	t.Run("distinct keys in input order", func(t *testing.T) {
		keys, err := CheckCardinality[Country, uint32](id, []Country{{ID: 3}, {ID: 1}, {ID: 2}})
		require.NoError(t, err)
		assert.Equal(t, []uint32{3, 1, 2}, keys)
	})

	t.Run("repeated key", func(t *testing.T) {
		_, err := CheckCardinality[Country, uint32](id, []Country{{ID: 3}, {ID: 1}, {ID: 3}})
		require.Error(t, err)
		assert.True(t, IsCardinality(err))

		var se *StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "3", se.Key)
	})

	t.Run("empty batch", func(t *testing.T) {
		keys, err := CheckCardinality[Country, uint32](id, nil)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
