package vectorize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEncoder struct {
	model  string
	vector []float32
	err    error
	closed atomic.Bool
	dead   atomic.Bool
}

func (e *stubEncoder) Encode(_ context.Context, _ string) ([]float32, error) {
	if e.closed.Load() {
		return nil, fmt.Errorf("%w: encoder for %s is closed", ErrEncodingFailed, e.model)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func (e *stubEncoder) Close() error {
	e.closed.Store(true)
	return nil
}

func (e *stubEncoder) Alive() bool {
	return !e.dead.Load()
}

// stubLoader hands out a fresh stubEncoder per call and records them
type stubLoader struct {
	mu      sync.Mutex
	loaded  []*stubEncoder
	loadErr error
	encErr  error
	entered chan struct{}
	gate    chan struct{}
}

func (l *stubLoader) Load(_ context.Context, model string) (Encoder, error) {
	if l.gate != nil {
		l.entered <- struct{}{}
		<-l.gate
	}
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	enc := &stubEncoder{model: model, vector: []float32{1, 0}, err: l.encErr}
	l.mu.Lock()
	l.loaded = append(l.loaded, enc)
	l.mu.Unlock()
	return enc, nil
}

func (l *stubLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.loaded)
}

func TestModelCache(t *testing.T) {
	ctx := context.Background()

	t.Run("reuses_loaded_encoder", func(t *testing.T) {
		loader := &stubLoader{}
		cache, err := NewModelCache(loader, 2)
		require.NoError(t, err)

		first, release, err := cache.Get(ctx, "m1")
		require.NoError(t, err)
		release()
		second, release, err := cache.Get(ctx, "m1")
		require.NoError(t, err)
		release()

		assert.Same(t, first, second)
		assert.Equal(t, 1, loader.count())
	})

	t.Run("evicted_encoder_is_closed", func(t *testing.T) {
		loader := &stubLoader{}
		cache, err := NewModelCache(loader, 2)
		require.NoError(t, err)

		for _, m := range []string{"m1", "m2", "m3"} {
			_, release, err := cache.Get(ctx, m)
			require.NoError(t, err)
			release()
		}

		assert.Equal(t, 2, cache.Len())
		assert.True(t, loader.loaded[0].closed.Load(), "least recently used encoder should be closed")
		assert.False(t, loader.loaded[1].closed.Load())
		assert.False(t, loader.loaded[2].closed.Load())
	})

	t.Run("evicted_encoder_closes_after_release", func(t *testing.T) {
		loader := &stubLoader{}
		cache, err := NewModelCache(loader, 1)
		require.NoError(t, err)

		held, releaseHeld, err := cache.Get(ctx, "m1")
		require.NoError(t, err)
		_, release, err := cache.Get(ctx, "m2")
		require.NoError(t, err)
		release()

		assert.False(t, loader.loaded[0].closed.Load(), "held encoder must stay open")
		v, err := held.Encode(ctx, "still usable")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, v)

		releaseHeld()
		assert.True(t, loader.loaded[0].closed.Load())
	})

	t.Run("load_error_is_not_cached", func(t *testing.T) {
		loader := &stubLoader{loadErr: fmt.Errorf("%w: nope", ErrModelNotFound)}
		cache, err := NewModelCache(loader, 2)
		require.NoError(t, err)

		_, _, err = cache.Get(ctx, "nope")
		require.ErrorIs(t, err, ErrModelNotFound)
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("racing_misses_keep_first_and_close_duplicate", func(t *testing.T) {
		loader := &stubLoader{entered: make(chan struct{}, 2), gate: make(chan struct{})}
		cache, err := NewModelCache(loader, 2)
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]Encoder, 2)
		releases := make([]func(), 2)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				enc, release, err := cache.Get(ctx, "m1")
				assert.NoError(t, err)
				results[i], releases[i] = enc, release
			}(i)
		}
		<-loader.entered
		<-loader.entered
		close(loader.gate)
		wg.Wait()

		require.Equal(t, 2, loader.count())
		assert.Equal(t, 1, cache.Len())
		assert.Same(t, results[0], results[1])

		for i, enc := range results {
			require.NotNil(t, enc)
			_, err := enc.Encode(ctx, "query")
			assert.NoError(t, err, "caller %d", i)
			releases[i]()
		}

		closed := 0
		for _, enc := range loader.loaded {
			if enc.closed.Load() {
				closed++
			}
		}
		assert.Equal(t, 1, closed)

		current, release, err := cache.Get(ctx, "m1")
		require.NoError(t, err)
		defer release()
		assert.Same(t, results[0], current)
		assert.False(t, current.(*stubEncoder).closed.Load())
	})

	t.Run("dead_encoder_is_reloaded", func(t *testing.T) {
		loader := &stubLoader{}
		cache, err := NewModelCache(loader, 2)
		require.NoError(t, err)

		first, release, err := cache.Get(ctx, "m1")
		require.NoError(t, err)
		release()
		first.(*stubEncoder).dead.Store(true)

		second, release, err := cache.Get(ctx, "m1")
		require.NoError(t, err)
		defer release()

		assert.NotSame(t, first, second)
		assert.Equal(t, 2, loader.count())
		assert.True(t, first.(*stubEncoder).closed.Load())
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("close_purges", func(t *testing.T) {
		loader := &stubLoader{}
		cache, err := NewModelCache(loader, 0)
		require.NoError(t, err)

		_, release, err := cache.Get(ctx, "m1")
		require.NoError(t, err)
		_, releaseHeld, err := cache.Get(ctx, "m2")
		require.NoError(t, err)
		release()
		cache.Close()

		assert.Equal(t, 0, cache.Len())
		assert.True(t, loader.loaded[0].closed.Load())
		assert.False(t, loader.loaded[1].closed.Load())
		releaseHeld()
		assert.True(t, loader.loaded[1].closed.Load())
	})
}

func TestRouterLoader(t *testing.T) {
	ctx := context.Background()
	python := &stubLoader{}

	t.Run("hash_models_use_hash_loader", func(t *testing.T) {
		r := &RouterLoader{Hash: HashLoader{}, Python: python}
		enc, err := r.Load(ctx, "hash:16")
		require.NoError(t, err)
		assert.IsType(t, &HashEncoder{}, enc)
		assert.Equal(t, 0, python.count())
	})

	t.Run("other_models_use_python", func(t *testing.T) {
		r := &RouterLoader{Hash: HashLoader{}, Python: python}
		_, err := r.Load(ctx, "sentence-transformers/all-MiniLM-L6-v2")
		require.NoError(t, err)
		assert.Equal(t, 1, python.count())
	})

	t.Run("python_disabled", func(t *testing.T) {
		r := &RouterLoader{Hash: HashLoader{}}
		_, err := r.Load(ctx, "all-MiniLM-L6-v2")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrModelNotFound))
	})
}
