package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveOnce(t *testing.T) {
	t.Parallel()
	f := New[int]()

	assert.True(t, f.Resolve(1))
	assert.False(t, f.Resolve(2))
	assert.False(t, f.Reject(errors.New("late")))

	v, err := f.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_Reject(t *testing.T) {
	t.Parallel()
	f := New[string]()
	boom := errors.New("boom")

	assert.True(t, f.Reject(boom))

	v, err := f.Wait(t.Context())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, v)
}

func TestFuture_WaitHonoursContext(t *testing.T) {
	t.Parallel()
	f := New[int]()
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-f.Done():
		t.Fatal("future should still be pending")
	default:
	}
}

func TestGo_ConcurrentWaiters(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	f := Go(func() (int, error) {
		<-release
		return 42, nil
	})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Wait(context.Background())
			if err == nil {
				results[i] = v
			}
		}()
	}
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGo_Error(t *testing.T) {
	t.Parallel()
	f := Go(func() (int, error) { return 0, errors.New("no") })

	_, err := f.Wait(t.Context())
	assert.EqualError(t, err, "no")
}
