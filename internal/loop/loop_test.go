package loop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRunsInOrder(t *testing.T) {
	l := New(4)
	defer l.Close()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Do(func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestConcurrentPostsAreSerialized(t *testing.T) {
	l := New(8)
	defer l.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(func() { counter++ })
		}()
	}
	wg.Wait()
	require.NoError(t, l.Do(func() {}))
	assert.Equal(t, 50, counter)
}

func TestPanicIsReported(t *testing.T) {
	l := New(1)
	defer l.Close()

	err := l.Do(func() { panic("boom") })
	assert.ErrorContains(t, err, "boom")
	assert.NoError(t, l.Do(func() {}), "loop survives a panic")
}

func TestClosed(t *testing.T) {
	l := New(1)
	l.Close()
	l.Close()

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(func() {}), ErrClosed)
}
