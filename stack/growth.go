package stack

import (
	"fmt"
	"math"
)

// GrowthThreshold is the capacity at which growth switches from doubling to
// growing by half.
const GrowthThreshold = 1024

// NextCapacity returns the capacity a full buffer of the given capacity grows
// to: double below GrowthThreshold, otherwise capacity*3/2 (truncated).
func NextCapacity(capacity int) (int, error) {
	if capacity < 1 {
		return 0, Error{
			ErrorCode: InvalidCapacity,
			Message:   fmt.Sprintf("cannot grow from capacity %d", capacity),
		}
	}

	if capacity < GrowthThreshold {
		return capacity * 2, nil
	}
	if capacity > math.MaxInt/3 {
		return 0, Error{
			ErrorCode: AllocationFailure,
			Message:   fmt.Sprintf("growing capacity %d overflows", capacity),
		}
	}
	return capacity * 3 / 2, nil
}

// ensureCapacity grows the buffer when it is exactly full. On failure the
// existing buffer, capacity and contents are left untouched.
func (s *Stack[T]) ensureCapacity() error {
	if s.length < s.capacity {
		return nil
	}

	newCapacity, err := NextCapacity(s.capacity)
	if err != nil {
		return err
	}

	if err := s.allocator.Allocate(newCapacity, s.slotSize()); err != nil {
		return Error{
			ErrorCode: AllocationFailure,
			Message:   fmt.Sprintf("stack: growing from %d to %d slots: %s", s.capacity, newCapacity, err),
			Err:       err,
		}
	}

	storage := make([]T, newCapacity)
	copy(storage, s.storage[:s.length])
	s.allocator.Free(s.capacity, s.slotSize())

	from := s.capacity
	s.storage = storage
	s.capacity = newCapacity
	if s.onGrow != nil {
		s.onGrow(from, newCapacity)
	}
	return nil
}
