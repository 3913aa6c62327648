package reverse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"github.com/aleph-zero/lifo/stack"
	"github.com/aleph-zero/lifo/telemetry"
	log "github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"io"
	"strings"
	"time"
)

const DefaultInitialCapacity = 30

type Service interface {
	Reverse(ctx context.Context, text string) (*Result, error)
	ReverseReader(ctx context.Context, r io.Reader) (*Result, error)
}

type ServiceProvider struct {
	config  *Config
	metrics *telemetry.StackMetrics
}

func NewService(config *Config) Service {
	if config == nil {
		config = NewConfig()
	}
	metrics, err := telemetry.NewStackMetrics("lifo.reverse")
	if err != nil {
		log.LogEntry(context.Background()).Error("Error creating stack metrics", "component", "lifo.reverse", "error", err)
	}
	return &ServiceProvider{config: config, metrics: metrics}
}

type Result struct {
	RequestId string        `json:"requestId"`
	Reversed  string        `json:"reversed"`
	Length    int           `json:"length"`
	Capacity  int           `json:"capacity"`
	Grows     int           `json:"grows"`
	Duration  time.Duration `json:"duration"`
}

func (sp *ServiceProvider) Reverse(ctx context.Context, text string) (*Result, error) {
	return sp.ReverseReader(ctx, strings.NewReader(text))
}

// ReverseReader reads runes from r up to the first newline or EOF, skipping
// carriage returns, and returns them in reverse order.
func (sp *ServiceProvider) ReverseReader(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()
	requestId := NewRequestId()
	ctx = WithRequestId(ctx, requestId)

	ctx, span := telemetry.StartSpan(ctx, "reverse.Reverse", trace.WithAttributes(
		attribute.String("requestId", requestId),
		attribute.Int("lifo.stack.initial_capacity", sp.config.InitialCapacity)))
	defer span.End()

	grows := 0
	s, err := stack.New[rune](sp.config.InitialCapacity,
		stack.WithAllocator(sp.config.Allocator),
		stack.WithGrowHook(func(from, to int) { grows++ }))
	if err != nil {
		log.LogEntry(ctx).Error("Error creating stack", "requestId", requestId, "error", err)
		return nil, err
	}
	defer s.Release()

	if sp.config.Normalize {
		r = norm.NFC.Reader(r)
	}

	if err := pushLine(s, bufio.NewReader(r)); err != nil {
		log.LogEntry(ctx).Error("Error reading input", "requestId", requestId, "error", err)
		return nil, err
	}

	length := s.Len()
	if length == 0 {
		return nil, Error{ErrorCode: NoInput, Message: "no characters entered"}
	}

	var sb strings.Builder
	sb.Grow(length)
	for !s.IsEmpty() {
		ch, err := s.Pop()
		if err != nil {
			return nil, fmt.Errorf("draining stack: %w", err)
		}
		sb.WriteRune(ch)
	}

	capacity := s.Cap()
	sp.metrics.Record(ctx, grows, capacity)
	telemetry.SetAttributes(span,
		attribute.Int("lifo.stack.length", length),
		attribute.Int("lifo.stack.capacity", capacity),
		attribute.Int("lifo.stack.grows", grows))
	log.LogEntry(ctx).Debug("Reversed input", "requestId", requestId, "length", length, "capacity", capacity, "grows", grows)

	return &Result{
		RequestId: requestId,
		Reversed:  sb.String(),
		Length:    length,
		Capacity:  capacity,
		Grows:     grows,
		Duration:  time.Since(start),
	}, nil
}

func pushLine(s *stack.Stack[rune], reader *bufio.Reader) error {
	for {
		ch, _, err := reader.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return Error{ErrorCode: ReadFailure, Message: fmt.Sprintf("reading input: %s", err), Err: err}
		}
		if ch == '\n' {
			return nil
		}
		if ch == '\r' {
			continue
		}
		if err := s.Push(ch); err != nil {
			return fmt.Errorf("pushing %q: %w", ch, err)
		}
	}
}

/* *** Request Id *** */

type contextKey string

const requestIdKey contextKey = "requestId"

func NewRequestId() string {
	return uuid.NewString()
}

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKey, requestId)
}

func RequestIdFromContext(ctx context.Context) string {
	v, ok := ctx.Value(requestIdKey).(string)
	if !ok {
		return ""
	}
	return v
}

/* *** Reverse Config *** */

type Config struct {
	InitialCapacity int
	Normalize       bool
	Allocator       stack.Allocator
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{
		InitialCapacity: DefaultInitialCapacity,
		Allocator:       stack.DefaultAllocator,
	}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithInitialCapacity(capacity int) Option {
	return func(cfg *Config) {
		cfg.InitialCapacity = capacity
	}
}

func WithNormalize(normalize bool) Option {
	return func(cfg *Config) {
		cfg.Normalize = normalize
	}
}

func WithAllocator(allocator stack.Allocator) Option {
	return func(cfg *Config) {
		cfg.Allocator = allocator
	}
}

/* *** Errors *** */

type ErrorCode int

const (
	_ ErrorCode = iota
	NoInput
	ReadFailure
)

type Error struct {
	ErrorCode ErrorCode
	Message   string
	Err       error
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
