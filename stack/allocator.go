package stack

import (
	"fmt"
	"math"
	"sync"
)

// Allocator accounts for the buffers a Stack acquires and releases. The Go
// runtime owns the memory itself; an Allocator decides whether a request may
// be satisfied and keeps track of what is outstanding.
type Allocator interface {
	Allocate(slots int, slotSize uintptr) error
	Free(slots int, slotSize uintptr)
}

// HeapAllocator approves every request whose byte size is representable.
type HeapAllocator struct{}

func (HeapAllocator) Allocate(slots int, slotSize uintptr) error {
	_, err := byteSize(slots, slotSize)
	return err
}

func (HeapAllocator) Free(int, uintptr) {}

// DefaultAllocator is used by New unless WithAllocator overrides it.
var DefaultAllocator Allocator = HeapAllocator{}

// LimitAllocator hands out reservations against a fixed byte budget. It is
// safe to share between stacks owned by different goroutines.
type LimitAllocator struct {
	lock  sync.Mutex
	limit int
	inUse int
}

func NewLimitAllocator(limit int) *LimitAllocator {
	return &LimitAllocator{limit: limit}
}

func (a *LimitAllocator) Allocate(slots int, slotSize uintptr) error {
	n, err := byteSize(slots, slotSize)
	if err != nil {
		return err
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if n > a.limit-a.inUse {
		return fmt.Errorf("requested %d bytes with %d of %d in use", n, a.inUse, a.limit)
	}
	a.inUse += n
	return nil
}

func (a *LimitAllocator) Free(slots int, slotSize uintptr) {
	n, err := byteSize(slots, slotSize)
	if err != nil {
		return
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	a.inUse -= n
	if a.inUse < 0 {
		a.inUse = 0
	}
}

func (a *LimitAllocator) InUse() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.inUse
}

func (a *LimitAllocator) Limit() int {
	return a.limit
}

func byteSize(slots int, slotSize uintptr) (int, error) {
	if slots < 0 {
		return 0, fmt.Errorf("negative slot count %d", slots)
	}
	// zero-sized element types never need backing memory
	if slotSize == 0 {
		return 0, nil
	}
	if uint64(slotSize) > math.MaxInt || slots > math.MaxInt/int(slotSize) {
		return 0, fmt.Errorf("%d slots of %d bytes overflows", slots, slotSize)
	}
	return slots * int(slotSize), nil
}
