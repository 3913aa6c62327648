package stack

import "fmt"

type ErrorCode int

const (
	_ ErrorCode = iota
	AllocationFailure
	Underflow
	InvalidCapacity
	Released
)

func (c ErrorCode) String() string {
	switch c {
	case AllocationFailure:
		return "allocation failure"
	case Underflow:
		return "underflow"
	case InvalidCapacity:
		return "invalid capacity"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error is returned by every failing stack operation. Match on the code with
// errors.Is(err, stack.ErrUnderflow) or errors.Is(err, stack.Error{ErrorCode: stack.Underflow}).
type Error struct {
	ErrorCode ErrorCode
	Message   string
	Err       error
}

var (
	ErrAllocation      = Error{ErrorCode: AllocationFailure}
	ErrUnderflow       = Error{ErrorCode: Underflow}
	ErrInvalidCapacity = Error{ErrorCode: InvalidCapacity}
	ErrReleased        = Error{ErrorCode: Released}
)

func (e Error) Error() string {
	if e.Message == "" {
		return "stack: " + e.ErrorCode.String()
	}
	return e.Message
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) Is(target error) bool {
	if other, ok := target.(Error); ok {
		ignoreErrorCode := other.ErrorCode == 0
		ignoreMessage := other.Message == ""
		matchErrorCode := other.ErrorCode == e.ErrorCode
		matchMessage := other.Message == e.Message

		return matchMessage && matchErrorCode || matchMessage && ignoreErrorCode || ignoreMessage && matchErrorCode
	}
	return false
}
