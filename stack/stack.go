package stack

import (
	"fmt"
	"unsafe"
)

// Stack is a LIFO container over a single contiguous buffer of capacity slots.
// Slots [0, Len()) hold live elements; the rest are zeroed and never read.
// A Stack is not safe for concurrent use.
type Stack[T any] struct {
	capacity  int
	length    int
	storage   []T
	allocator Allocator
	onGrow    func(from, to int)
	released  bool
}

type config struct {
	allocator Allocator
	onGrow    func(from, to int)
}

type Option func(*config)

func WithAllocator(allocator Allocator) Option {
	return func(c *config) {
		c.allocator = allocator
	}
}

// WithGrowHook registers a function called after every successful reallocation.
func WithGrowHook(hook func(from, to int)) Option {
	return func(c *config) {
		c.onGrow = hook
	}
}

func New[T any](initialCapacity int, options ...Option) (*Stack[T], error) {
	cfg := &config{allocator: DefaultAllocator}
	for _, option := range options {
		option(cfg)
	}
	if cfg.allocator == nil {
		cfg.allocator = DefaultAllocator
	}

	if initialCapacity < 1 {
		return nil, Error{
			ErrorCode: InvalidCapacity,
			Message:   fmt.Sprintf("stack: initial capacity must be at least 1, got %d", initialCapacity),
		}
	}

	var zero T
	if err := cfg.allocator.Allocate(initialCapacity, unsafe.Sizeof(zero)); err != nil {
		return nil, Error{
			ErrorCode: AllocationFailure,
			Message:   fmt.Sprintf("stack: allocating %d slots: %s", initialCapacity, err),
			Err:       err,
		}
	}

	return &Stack[T]{
		capacity:  initialCapacity,
		storage:   make([]T, initialCapacity),
		allocator: cfg.allocator,
		onGrow:    cfg.onGrow,
	}, nil
}

func (s *Stack[T]) Push(element T) error {
	if s == nil || s.released {
		return ErrReleased
	}
	if err := s.ensureCapacity(); err != nil {
		return err
	}

	s.storage[s.length] = element
	s.length++
	return nil
}

func (s *Stack[T]) Pop() (T, error) {
	var zero T
	if s == nil || s.released {
		return zero, ErrReleased
	}
	if s.length == 0 {
		return zero, ErrUnderflow
	}

	s.length--
	v := s.storage[s.length]
	s.storage[s.length] = zero
	return v, nil
}

func (s *Stack[T]) Peek() (T, error) {
	var zero T
	if s == nil || s.released {
		return zero, ErrReleased
	}
	if s.length == 0 {
		return zero, ErrUnderflow
	}
	return s.storage[s.length-1], nil
}

func (s *Stack[T]) IsEmpty() bool {
	return s.Len() == 0
}

func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return s.length
}

func (s *Stack[T]) Cap() int {
	if s == nil {
		return 0
	}
	return s.capacity
}

// Release returns the buffer to the allocator. It is a no-op on a nil or
// already released Stack; any later Push, Pop or Peek reports ErrReleased.
func (s *Stack[T]) Release() {
	if s == nil || s.released {
		return
	}

	s.allocator.Free(s.capacity, s.slotSize())
	s.storage = nil
	s.capacity = 0
	s.length = 0
	s.released = true
}

func (s *Stack[T]) slotSize() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}
