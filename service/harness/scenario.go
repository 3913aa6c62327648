package harness

import (
	"errors"
	"fmt"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
	"io"
	"os"
)

const (
	OpPush      = "push"
	OpPop       = "pop"
	OpPeek      = "peek"
	OpCheck     = "check"
	OpFill      = "fill"
	OpDrain     = "drain"
	OpPushText  = "push-text"
	OpDrainText = "drain-text"
)

var knownOps = []string{OpPush, OpPop, OpPeek, OpCheck, OpFill, OpDrain, OpPushText, OpDrainText}

var knownElements = []string{"int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64", "byte", "rune"}

// Scenario is a scripted sequence of stack operations and the results they
// are expected to produce.
type Scenario struct {
	Name            string `yaml:"name" json:"name"`
	Element         string `yaml:"element" json:"element"`
	InitialCapacity int    `yaml:"initialCapacity" json:"initialCapacity"`
	Steps           []Step `yaml:"steps" json:"steps"`
}

// Step is one operation. The Expect* fields are checked after the operation
// runs; unset fields are not checked.
type Step struct {
	Op             string  `yaml:"op" json:"op"`
	Value          *int64  `yaml:"value,omitempty" json:"value,omitempty"`
	Count          int     `yaml:"count,omitempty" json:"count,omitempty"`
	Text           string  `yaml:"text,omitempty" json:"text,omitempty"`
	Expect         *int64  `yaml:"expect,omitempty" json:"expect,omitempty"`
	ExpectValues   []int64 `yaml:"expectValues,omitempty" json:"expectValues,omitempty"`
	ExpectText     *string `yaml:"expectText,omitempty" json:"expectText,omitempty"`
	ExpectError    string  `yaml:"expectError,omitempty" json:"expectError,omitempty"`
	ExpectSize     *int    `yaml:"expectSize,omitempty" json:"expectSize,omitempty"`
	ExpectCapacity *int    `yaml:"expectCapacity,omitempty" json:"expectCapacity,omitempty"`
	ExpectEmpty    *bool   `yaml:"expectEmpty,omitempty" json:"expectEmpty,omitempty"`
}

func (s Scenario) Validate() error {
	if s.Name == "" {
		return invalid("scenario has no name")
	}
	if !lo.Contains(knownElements, s.Element) {
		return invalid(fmt.Sprintf("scenario %s: unknown element type %q", s.Name, s.Element))
	}
	if s.InitialCapacity < 1 {
		return invalid(fmt.Sprintf("scenario %s: initial capacity must be at least 1, got %d", s.Name, s.InitialCapacity))
	}
	for i, step := range s.Steps {
		if !lo.Contains(knownOps, step.Op) {
			return invalid(fmt.Sprintf("scenario %s: step %d: unknown op %q", s.Name, i, step.Op))
		}
		if step.Op == OpPush && step.Value == nil {
			return invalid(fmt.Sprintf("scenario %s: step %d: push needs a value", s.Name, i))
		}
		if step.Op == OpFill && step.Count < 1 {
			return invalid(fmt.Sprintf("scenario %s: step %d: fill needs a positive count", s.Name, i))
		}
	}
	return nil
}

// ParseScenarios decodes every YAML document in r.
func ParseScenarios(r io.Reader) ([]Scenario, error) {
	var scenarios []Scenario
	decoder := yaml.NewDecoder(r)
	for {
		var sc Scenario
		err := decoder.Decode(&sc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Error{ErrorCode: InvalidScenario, Message: fmt.Sprintf("decoding scenario: %s", err), Err: err}
		}
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func LoadScenarios(path string) ([]Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario file: %w", err)
	}
	defer file.Close()
	return ParseScenarios(file)
}

/* *** Built-in scenarios *** */

func ScenarioA() Scenario {
	return Scenario{
		Name:            "push-pop-peek",
		Element:         "int32",
		InitialCapacity: 4,
		Steps: []Step{
			{Op: OpPush, Value: ptr[int64](10)},
			{Op: OpPush, Value: ptr[int64](20)},
			{Op: OpPush, Value: ptr[int64](30)},
			{Op: OpPop, Expect: ptr[int64](30), ExpectSize: ptr(2)},
			{Op: OpPeek, Expect: ptr[int64](20), ExpectSize: ptr(2)},
			{Op: OpPop, Expect: ptr[int64](20)},
			{Op: OpPop, Expect: ptr[int64](10)},
			{Op: OpPop, ExpectError: "underflow", ExpectSize: ptr(0), ExpectEmpty: ptr(true)},
		},
	}
}

func ScenarioB() Scenario {
	return Scenario{
		Name:            "string-reverse",
		Element:         "rune",
		InitialCapacity: 30,
		Steps: []Step{
			{Op: OpPushText, Text: "hello", ExpectSize: ptr(5)},
			{Op: OpDrainText, ExpectText: ptr("olleh"), ExpectEmpty: ptr(true)},
		},
	}
}

func ScenarioC() Scenario {
	return Scenario{
		Name:            "growth",
		Element:         "int64",
		InitialCapacity: 1,
		Steps: []Step{
			{Op: OpFill, Count: 2000, ExpectSize: ptr(2000), ExpectCapacity: ptr(2304)},
			{Op: OpDrain, Count: 2000, ExpectSize: ptr(0), ExpectCapacity: ptr(2304)},
		},
	}
}

func Builtins() []Scenario {
	return []Scenario{ScenarioA(), ScenarioB(), ScenarioC()}
}

func ptr[T any](v T) *T {
	return &v
}

/* *** Errors *** */

type ErrorCode int

const (
	_ ErrorCode = iota
	InvalidScenario
)

type Error struct {
	ErrorCode ErrorCode
	Message   string
	Err       error
}

func invalid(message string) Error {
	return Error{ErrorCode: InvalidScenario, Message: message}
}

func (e Error) Error() string {
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
