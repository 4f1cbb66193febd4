package randx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageIDUniqueUnderBurst(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]struct{}, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, MessageID())
			}

			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine, "burst ids must never collide")
}

func TestMessageIDMonotonic(t *testing.T) {
	prev := MessageID()
	for i := 0; i < 1000; i++ {
		next := MessageID()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestConnectionIDUnique(t *testing.T) {
	assert.NotEqual(t, ConnectionID(), ConnectionID())
}

func TestFileKey(t *testing.T) {
	key := FileKey("Photo.PNG")
	assert.Contains(t, key, "uploads/")
	assert.Contains(t, key, ".png")

	assert.NotEqual(t, FileKey("a.png"), FileKey("a.png"))
}
