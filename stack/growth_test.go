package stack

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextCapacity(t *testing.T) {
	tests := []struct {
		capacity int
		expected int
	}{
		{1, 2},
		{4, 8},
		{30, 60},
		{512, 1024},
		{1023, 2046},
		{1024, 1536},
		{1025, 1537},
		{1536, 2304},
		{4097, 6145},
	}

	for _, tt := range tests {
		next, err := NextCapacity(tt.capacity)
		require.NoError(t, err)
		require.Equal(t, tt.expected, next, "capacity %d", tt.capacity)
	}
}

func TestNextCapacity_Errors(t *testing.T) {
	_, err := NextCapacity(0)
	require.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NextCapacity(math.MaxInt/3 + 1)
	require.ErrorIs(t, err, ErrAllocation)
}

func TestEnsureCapacity_GrowsOnlyWhenFull(t *testing.T) {
	grows := 0
	s, err := New[int](4, WithGrowHook(func(int, int) { grows++ }))
	require.NoError(t, err)
	defer s.Release()

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Push(i))
	}
	require.Equal(t, 0, grows)
	require.Equal(t, 4, s.Cap())

	require.NoError(t, s.Push(4))
	require.Equal(t, 1, grows)
	require.Equal(t, 8, s.Cap())
	require.Len(t, s.storage, s.Cap())
}

func TestEnsureCapacity_LargeRegime(t *testing.T) {
	s, err := New[uint8](GrowthThreshold)
	require.NoError(t, err)
	defer s.Release()

	for i := 0; i <= GrowthThreshold; i++ {
		require.NoError(t, s.Push(uint8(i)))
	}
	require.Equal(t, GrowthThreshold*3/2, s.Cap())

	for i := GrowthThreshold; i >= 0; i-- {
		v, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, uint8(i), v)
	}
}
