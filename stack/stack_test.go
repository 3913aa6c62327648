package stack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// failingAllocator refuses every request once its allowance is used up.
type failingAllocator struct {
	allow     int
	allocated int
	freed     int
}

func (a *failingAllocator) Allocate(slots int, slotSize uintptr) error {
	if a.allow == 0 {
		return errors.New("out of memory")
	}
	a.allow--
	a.allocated += slots
	return nil
}

func (a *failingAllocator) Free(slots int, slotSize uintptr) {
	a.freed += slots
}

func TestStack_ScenarioA(t *testing.T) {
	s, err := New[int32](4)
	require.NoError(t, err)
	defer s.Release()

	for _, v := range []int32{10, 20, 30} {
		require.NoError(t, s.Push(v))
	}

	v, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, int32(30), v)
	require.Equal(t, 2, s.Len())

	v, err = s.Peek()
	require.NoError(t, err)
	require.Equal(t, int32(20), v)
	require.Equal(t, 2, s.Len())

	v, err = s.Pop()
	require.NoError(t, err)
	require.Equal(t, int32(20), v)

	v, err = s.Pop()
	require.NoError(t, err)
	require.Equal(t, int32(10), v)

	_, err = s.Pop()
	require.ErrorIs(t, err, ErrUnderflow)
	require.Equal(t, 0, s.Len())
}

func TestStack_ScenarioB(t *testing.T) {
	s, err := New[byte](30)
	require.NoError(t, err)
	defer s.Release()

	for _, c := range []byte("hello") {
		require.NoError(t, s.Push(c))
	}

	var out []byte
	for !s.IsEmpty() {
		c, err := s.Pop()
		require.NoError(t, err)
		out = append(out, c)
	}
	require.Equal(t, "olleh", string(out))
}

func TestStack_ScenarioC(t *testing.T) {
	var grows [][2]int
	s, err := New[int](1, WithGrowHook(func(from, to int) {
		grows = append(grows, [2]int{from, to})
	}))
	require.NoError(t, err)
	defer s.Release()

	for i := 0; i < 2000; i++ {
		require.NoError(t, s.Push(i))
	}
	require.Equal(t, 2000, s.Len())

	// 1 -> 2 -> ... -> 1024 doubling, then 1024 -> 1536 -> 2304
	expected := 1
	for _, g := range grows {
		require.Equal(t, expected, g[0])
		next, err := NextCapacity(g[0])
		require.NoError(t, err)
		require.Equal(t, next, g[1])
		expected = g[1]
	}
	require.Equal(t, 2304, s.Cap())
	require.Len(t, grows, 12)

	for i := 1999; i >= 0; i-- {
		v, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	require.True(t, s.IsEmpty())
}

func TestStack_LIFOOrder(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		values   []string
	}{
		{"single", 1, []string{"a"}},
		{"fits", 8, []string{"a", "b", "c"}},
		{"grows", 2, []string{"a", "b", "c", "d", "e", "f", "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New[string](tt.capacity)
			require.NoError(t, err)
			defer s.Release()

			for _, v := range tt.values {
				require.NoError(t, s.Push(v))
			}
			require.Equal(t, len(tt.values), s.Len())

			for i := len(tt.values) - 1; i >= 0; i-- {
				v, err := s.Pop()
				require.NoError(t, err)
				require.Equal(t, tt.values[i], v)
			}
		})
	}
}

func TestStack_SizeAccounting(t *testing.T) {
	s, err := New[int](2)
	require.NoError(t, err)
	defer s.Release()

	pushes, pops := 0, 0
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Push(i))
		pushes++
		if i%3 == 0 {
			_, err := s.Pop()
			require.NoError(t, err)
			pops++
		}
		require.Equal(t, pushes-pops, s.Len())
	}

	for !s.IsEmpty() {
		_, err := s.Pop()
		require.NoError(t, err)
		pops++
	}
	_, err = s.Pop()
	require.ErrorIs(t, err, ErrUnderflow)
	require.Equal(t, pushes-pops, s.Len())
}

func TestStack_PeekIsIdempotent(t *testing.T) {
	s, err := New[float64](4)
	require.NoError(t, err)
	defer s.Release()

	require.NoError(t, s.Push(1.5))
	require.NoError(t, s.Push(2.5))
	for i := 0; i < 5; i++ {
		v, err := s.Peek()
		require.NoError(t, err)
		require.Equal(t, 2.5, v)
		require.Equal(t, 2, s.Len())
	}
}

func TestStack_UnderflowOnEmpty(t *testing.T) {
	s, err := New[int](3)
	require.NoError(t, err)
	defer s.Release()

	_, err = s.Pop()
	require.ErrorIs(t, err, ErrUnderflow)
	_, err = s.Peek()
	require.ErrorIs(t, err, Error{ErrorCode: Underflow})
	require.Equal(t, 0, s.Len())

	require.NoError(t, s.Push(7))
	_, err = s.Pop()
	require.NoError(t, err)

	_, err = s.Peek()
	require.ErrorIs(t, err, ErrUnderflow)
	require.Equal(t, 0, s.Len())
	require.Equal(t, 3, s.Cap())
}

func TestStack_PopZeroesVacatedSlot(t *testing.T) {
	s, err := New[*int](2)
	require.NoError(t, err)
	defer s.Release()

	v := 1
	require.NoError(t, s.Push(&v))
	_, err = s.Pop()
	require.NoError(t, err)
	require.Nil(t, s.storage[0])
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		s, err := New[int](c)
		require.Nil(t, s)
		require.ErrorIs(t, err, ErrInvalidCapacity)
	}
}

func TestNew_AllocationFailureHoldsNothing(t *testing.T) {
	alloc := &failingAllocator{}
	s, err := New[int](4, WithAllocator(alloc))
	require.Nil(t, s)
	require.ErrorIs(t, err, ErrAllocation)
	require.Equal(t, 0, alloc.allocated)
	require.Equal(t, 0, alloc.freed)
}

func TestPush_FailedGrowLeavesStackIntact(t *testing.T) {
	alloc := &failingAllocator{allow: 1}
	s, err := New[int](2, WithAllocator(alloc))
	require.NoError(t, err)

	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))

	err = s.Push(3)
	require.ErrorIs(t, err, ErrAllocation)
	require.Equal(t, 2, s.Len())
	require.Equal(t, 2, s.Cap())

	v, err := s.Peek()
	require.NoError(t, err)
	require.Equal(t, 2, v)

	// a later grow succeeds once memory is available again
	alloc.allow = 1
	require.NoError(t, s.Push(3))
	require.Equal(t, 4, s.Cap())
	require.Equal(t, 2, alloc.freed)

	for _, expected := range []int{3, 2, 1} {
		v, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, expected, v)
	}
}

func TestRelease(t *testing.T) {
	var nilStack *Stack[int]
	require.NotPanics(t, nilStack.Release)
	require.True(t, nilStack.IsEmpty())
	require.Equal(t, 0, nilStack.Cap())

	alloc := NewLimitAllocator(1 << 10)
	s, err := New[int64](16, WithAllocator(alloc))
	require.NoError(t, err)
	require.Equal(t, 16*8, alloc.InUse())

	require.NoError(t, s.Push(1))
	s.Release()
	s.Release()
	require.Equal(t, 0, alloc.InUse())
	require.Equal(t, 0, s.Len())
	require.Equal(t, 0, s.Cap())

	require.ErrorIs(t, s.Push(2), ErrReleased)
	_, err = s.Pop()
	require.ErrorIs(t, err, ErrReleased)
	_, err = s.Peek()
	require.ErrorIs(t, err, ErrReleased)
}

func TestError_Is(t *testing.T) {
	err := Error{ErrorCode: Underflow, Message: "custom"}
	require.ErrorIs(t, err, ErrUnderflow)
	require.NotErrorIs(t, err, ErrAllocation)
	require.ErrorIs(t, err, Error{Message: "custom"})

	cause := errors.New("boom")
	wrapped := Error{ErrorCode: AllocationFailure, Err: cause}
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "stack: allocation failure", wrapped.Error())
}
