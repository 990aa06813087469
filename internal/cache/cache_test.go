package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := New[string, int]()

	_, ok := s.Get("v1")
	assert.False(t, ok)

	s.Set("v1", 1)
	s.Set("v1", 2)
	got, ok := s.Get("v1")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.True(t, s.Has("v1"))
	assert.Equal(t, 1, s.Len())

	old, ok := s.Delete("v1")
	assert.True(t, ok)
	assert.Equal(t, 2, old)
	_, ok = s.Delete("v1")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestStore_OrderedIteration(t *testing.T) {
	s := New[string, int]()
	s.Set("c", 3)
	s.Set("a", 1)
	s.Set("b", 2)

	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
	assert.Equal(t, []int{1, 2, 3}, s.Values())

	var seen []string
	s.Range(func(k string, v int) bool {
		seen = append(seen, k)
		return k != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestStore_RangeAllowsDelete(t *testing.T) {
	s := New[int, string]()
	for i := 0; i < 5; i++ {
		s.Set(i, "x")
	}

	s.Range(func(k int, _ string) bool {
		s.Delete(k + 1)
		return true
	})
	assert.Equal(t, []int{0, 2, 4}, s.Keys())
}

func TestStore_Reset(t *testing.T) {
	s := New[string, int]()
	s.Set("b", 2)
	s.Set("a", 1)

	assert.Equal(t, []int{1, 2}, s.Reset())
	assert.Zero(t, s.Len())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set(i, i)
			s.Get(i)
			s.Keys()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
