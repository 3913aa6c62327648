package harness

import (
	"context"
	"errors"
	"fmt"
	"github.com/aleph-zero/lifo/stack"
	"github.com/aleph-zero/lifo/telemetry"
	log "github.com/go-chi/httplog/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/constraints"
)

type Service interface {
	Run(ctx context.Context, scenario Scenario) (*Report, error)
	RunAll(ctx context.Context, scenarios []Scenario) ([]*Report, error)
}

type ServiceProvider struct {
	allocator stack.Allocator
	metrics   *telemetry.StackMetrics
}

func NewService(allocator stack.Allocator) Service {
	if allocator == nil {
		allocator = stack.DefaultAllocator
	}
	metrics, err := telemetry.NewStackMetrics("lifo.harness")
	if err != nil {
		log.LogEntry(context.Background()).Error("Error creating stack metrics", "component", "lifo.harness", "error", err)
	}
	return &ServiceProvider{allocator: allocator, metrics: metrics}
}

type Failure struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Message string `json:"message"`
}

type Report struct {
	Scenario      string    `json:"scenario"`
	Element       string    `json:"element"`
	Steps         int       `json:"steps"`
	FinalSize     int       `json:"finalSize"`
	FinalCapacity int       `json:"finalCapacity"`
	Grows         int       `json:"grows"`
	Failures      []Failure `json:"failures,omitempty"`
	Passed        bool      `json:"passed"`
}

func (sp *ServiceProvider) RunAll(ctx context.Context, scenarios []Scenario) ([]*Report, error) {
	reports := make([]*Report, 0, len(scenarios))
	for _, sc := range scenarios {
		report, err := sp.Run(ctx, sc)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (sp *ServiceProvider) Run(ctx context.Context, scenario Scenario) (*Report, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "harness.Run", trace.WithAttributes(
		attribute.String("lifo.harness.scenario", scenario.Name),
		attribute.String("lifo.harness.element", scenario.Element)))
	defer span.End()

	var (
		report *Report
		err    error
	)
	switch scenario.Element {
	case "int8":
		report, err = run[int8](sp.allocator, scenario)
	case "int16":
		report, err = run[int16](sp.allocator, scenario)
	case "int32", "rune":
		report, err = run[int32](sp.allocator, scenario)
	case "int64":
		report, err = run[int64](sp.allocator, scenario)
	case "uint8", "byte":
		report, err = run[uint8](sp.allocator, scenario)
	case "uint16":
		report, err = run[uint16](sp.allocator, scenario)
	case "uint32":
		report, err = run[uint32](sp.allocator, scenario)
	case "uint64":
		report, err = run[uint64](sp.allocator, scenario)
	}
	if err != nil {
		log.LogEntry(ctx).Error("Error running scenario", "scenario", scenario.Name, "error", err)
		return nil, err
	}

	sp.metrics.Record(ctx, report.Grows, report.FinalCapacity, attribute.String("lifo.harness.scenario", scenario.Name))
	telemetry.SetAttributes(span, attribute.Bool("lifo.harness.passed", report.Passed))
	log.LogEntry(ctx).Info("Scenario finished", "scenario", scenario.Name, "passed", report.Passed, "failures", len(report.Failures))
	return report, nil
}

type runner[T constraints.Integer] struct {
	stack    *stack.Stack[T]
	failures []Failure
	step     int
	op       string
}

func run[T constraints.Integer](allocator stack.Allocator, scenario Scenario) (*Report, error) {
	grows := 0
	s, err := stack.New[T](scenario.InitialCapacity,
		stack.WithAllocator(allocator),
		stack.WithGrowHook(func(int, int) { grows++ }))
	if err != nil {
		return nil, fmt.Errorf("creating stack for scenario %s: %w", scenario.Name, err)
	}
	defer s.Release()

	r := &runner[T]{stack: s}
	for i, step := range scenario.Steps {
		r.step, r.op = i, step.Op
		r.exec(step)
		r.checkState(step)
	}

	return &Report{
		Scenario:      scenario.Name,
		Element:       scenario.Element,
		Steps:         len(scenario.Steps),
		FinalSize:     s.Len(),
		FinalCapacity: s.Cap(),
		Grows:         grows,
		Failures:      r.failures,
		Passed:        len(r.failures) == 0,
	}, nil
}

func (r *runner[T]) failf(format string, args ...any) {
	r.failures = append(r.failures, Failure{Step: r.step, Op: r.op, Message: fmt.Sprintf(format, args...)})
}

func (r *runner[T]) exec(step Step) {
	switch step.Op {
	case OpPush:
		if v, ok := r.convert(*step.Value); ok {
			r.checkError(step, r.stack.Push(v))
		}
	case OpPop:
		v, err := r.stack.Pop()
		if r.checkError(step, err) {
			r.checkValue(step, v)
		}
	case OpPeek:
		v, err := r.stack.Peek()
		if r.checkError(step, err) {
			r.checkValue(step, v)
		}
	case OpCheck:
	case OpFill:
		start := valueOf(step.Value)
		for i := 0; i < step.Count; i++ {
			v, ok := r.convert(start + int64(i))
			if !ok {
				return
			}
			if err := r.stack.Push(v); err != nil {
				r.checkError(step, err)
				return
			}
		}
		r.expectedErrorMissing(step)
	case OpDrain:
		r.drain(step)
	case OpPushText:
		for _, ch := range step.Text {
			v, ok := r.convert(int64(ch))
			if !ok {
				return
			}
			if err := r.stack.Push(v); err != nil {
				r.checkError(step, err)
				return
			}
		}
		r.expectedErrorMissing(step)
	case OpDrainText:
		var runes []rune
		for !r.stack.IsEmpty() {
			v, err := r.stack.Pop()
			if err != nil {
				r.failf("pop while draining: %s", err)
				return
			}
			runes = append(runes, rune(v))
		}
		if step.ExpectText != nil && string(runes) != *step.ExpectText {
			r.failf("drained %q, expected %q", string(runes), *step.ExpectText)
		}
	}
}

// drain pops until empty and compares each value as it comes off the stack
// against ExpectValues, or against the range a fill of Count values from Value
// would have pushed.
func (r *runner[T]) drain(step Step) {
	var (
		drained    int
		mismatched bool
	)
	expectedLen := -1
	switch {
	case step.ExpectValues != nil:
		expectedLen = len(step.ExpectValues)
	case step.Count > 0:
		expectedLen = step.Count
	}
	last := valueOf(step.Value) + int64(step.Count) - 1
	for !r.stack.IsEmpty() {
		v, err := r.stack.Pop()
		if err != nil {
			r.failf("pop while draining: %s", err)
			return
		}
		switch {
		case expectedLen < 0 || drained >= expectedLen:
		case step.ExpectValues != nil:
			mismatched = mismatched || step.ExpectValues[drained] != int64(v)
		default:
			mismatched = mismatched || last-int64(drained) != int64(v)
		}
		drained++
	}
	if expectedLen >= 0 && (mismatched || drained != expectedLen) {
		r.failf("drained %d values that do not match the %d expected", drained, expectedLen)
	}
}

// expectedErrorMissing fails a step that expected an error but completed.
func (r *runner[T]) expectedErrorMissing(step Step) {
	if step.ExpectError != "" {
		r.failf("expected %s error, got none", step.ExpectError)
	}
}

// checkError reports whether err matched the step's expectation and the step
// may go on to check the returned value.
func (r *runner[T]) checkError(step Step, err error) bool {
	if step.ExpectError == "" {
		if err != nil {
			r.failf("unexpected error: %s", err)
			return false
		}
		return true
	}

	var stackErr stack.Error
	if !errors.As(err, &stackErr) {
		r.failf("expected %s error, got %v", step.ExpectError, err)
		return false
	}
	if stackErr.ErrorCode.String() != step.ExpectError {
		r.failf("expected %s error, got %s", step.ExpectError, stackErr.ErrorCode)
	}
	return false
}

func (r *runner[T]) checkValue(step Step, v T) {
	if step.Expect != nil && int64(v) != *step.Expect {
		r.failf("got %d, expected %d", int64(v), *step.Expect)
	}
}

func (r *runner[T]) checkState(step Step) {
	if step.ExpectSize != nil && r.stack.Len() != *step.ExpectSize {
		r.failf("size is %d, expected %d", r.stack.Len(), *step.ExpectSize)
	}
	if step.ExpectCapacity != nil && r.stack.Cap() != *step.ExpectCapacity {
		r.failf("capacity is %d, expected %d", r.stack.Cap(), *step.ExpectCapacity)
	}
	if step.ExpectEmpty != nil && r.stack.IsEmpty() != *step.ExpectEmpty {
		r.failf("empty is %t, expected %t", r.stack.IsEmpty(), *step.ExpectEmpty)
	}
}

func (r *runner[T]) convert(n int64) (T, bool) {
	var zero T
	v := T(n)
	unsigned := zero-1 > 0
	if int64(v) != n || (unsigned && n < 0) {
		r.failf("value %d does not fit the element type", n)
		return zero, false
	}
	return v, true
}

func valueOf(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
