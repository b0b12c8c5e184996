package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/searcher/ranker"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	return nil
}

var sample = []ranker.ScoredDoc{{DocID: "D1", Score: 3}, {DocID: "D2", Score: 1}}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	c := New(newMemStore(), Options{TTL: time.Minute})
	k := Key{Index: "cacm", Model: "bm25", Query: "dog cat", Limit: 10}
	calls := 0
	compute := func(context.Context) ([]ranker.ScoredDoc, error) {
		calls++
		return sample, nil
	}

	got, hit, err := c.GetOrCompute(context.Background(), k, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, sample, got)

	got, hit, err = c.GetOrCompute(context.Background(), k, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, sample, got)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestGetOrCompute_BackendDownDegradesToMiss(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	c := New(store, Options{})
	k := Key{Index: "cacm", Query: "dog"}

	for i := 0; i < 3; i++ {
		got, hit, err := c.GetOrCompute(context.Background(), k, func(context.Context) ([]ranker.ScoredDoc, error) {
			return sample, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, sample, got)
	}
}

func TestGetOrCompute_ComputeErrorNotCached(t *testing.T) {
	store := newMemStore()
	c := New(store, Options{})
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), Key{Query: "q"}, func(context.Context) ([]ranker.ScoredDoc, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.data)
}

func TestGetOrCompute_SharesConcurrentMisses(t *testing.T) {
	c := New(newMemStore(), Options{})
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) ([]ranker.ScoredDoc, error) {
		calls.Add(1)
		<-release
		return sample, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := c.GetOrCompute(context.Background(), Key{Query: "same"}, compute)
			assert.NoError(t, err)
			assert.Equal(t, sample, got)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestBuildKey(t *testing.T) {
	gen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	base := Key{Index: "cacm", Generation: gen, Model: "bm25", Query: "dog  cat", Limit: 10}

	same := base
	same.Query = "cat dog"
	assert.Equal(t, BuildKey(base), BuildKey(same))

	for name, mutate := range map[string]func(*Key){
		"index":      func(k *Key) { k.Index = "other" },
		"generation": func(k *Key) { k.Generation = gen.Add(time.Second) },
		"model":      func(k *Key) { k.Model = "vector" },
		"query":      func(k *Key) { k.Query = "dog bird" },
		"limit":      func(k *Key) { k.Limit = 5 },
	} {
		k := base
		mutate(&k)
		assert.NotEqual(t, BuildKey(base), BuildKey(k), name)
	}
	assert.Contains(t, BuildKey(base), keyPrefix)
}
