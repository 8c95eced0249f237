package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIdentifier_ReturnsKeysInOrder(t *testing.T) {
	id := NewFixedIdentifier[int](true, "k1", "k2", "k3")

	assert.Equal(t, "k1", id.NewID(10))
	assert.Equal(t, "k2", id.NewID(10))
	assert.Equal(t, "k3", id.NewID(20))
	assert.Equal(t, 3, id.Used())
	assert.True(t, id.IsAutogenerated())
}

func TestFixedIdentifier_PanicsWhenExhausted(t *testing.T) {
	id := NewFixedIdentifier[string](false, "only")
	id.NewID("x")

	assert.PanicsWithValue(t, "FixedIdentifier: all 1 keys exhausted", func() {
		id.NewID("y")
	})
	assert.False(t, id.IsAutogenerated())
}

func TestFixedIdentifier_ThreadSafe(t *testing.T) {
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	id := NewFixedIdentifier[int](false, keys...)

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				k := id.NewID(0)
				mu.Lock()
				seen[k] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 100)
	assert.Equal(t, 100, id.Used())
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger()
	logger.Error("dropped", "key", 1)
	assert.NotNil(t, logger)
}
