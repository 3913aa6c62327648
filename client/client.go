package client

import (
	"context"
	"errors"
	"fmt"
	"github.com/aleph-zero/lifo/service/reverse"
	"github.com/aleph-zero/lifo/telemetry"
	"github.com/chzyer/readline"
	"github.com/logrusorgru/aurora/v4"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	serviceName       = "lifo-cli"
	serviceVersion    = "0.0.1"
	readlineConfigDir = ".config/lifo"
	enterTextPrompt   = "Enter text (press Enter to finish): "
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

type Config struct {
	RemoteAddr    string
	RemotePort    int
	ReverseConfig *reverse.Config
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithRemoteAddr(addr string) Option {
	return func(cfg *Config) {
		cfg.RemoteAddr = addr
	}
}

func WithRemotePort(port uint16) Option {
	return func(cfg *Config) {
		cfg.RemotePort = int(port)
	}
}

func WithReverseConfig(reverseConfig *reverse.Config) Option {
	return func(cfg *Config) {
		cfg.ReverseConfig = reverseConfig
	}
}

// NewReverser returns the remote service when a remote address is configured
// and the in-process service otherwise.
func NewReverser(config *Config) reverse.Service {
	if config.RemoteAddr != "" {
		return NewRemoteService(fmt.Sprintf("http://%s:%d/reverse", config.RemoteAddr, config.RemotePort))
	}
	return reverse.NewService(config.ReverseConfig)
}

// Bootstrap runs the interactive prompt until EOF or an interrupt on an empty line.
func Bootstrap(config *Config) {
	ctx := context.Background()
	setupLogger()

	rl, err := setupReadline()
	if err != nil {
		slog.Error("Error setting up readline config", "error", err)
		return
	}
	defer rl.Close()

	shutdown, _ := telemetry.New(serviceName, serviceVersion, collectorURL)
	defer shutdown()

	svc := NewReverser(config)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := reverseLine(ctx, svc, strings.NewReader(line), rl.Stdout()); err != nil {
			slog.Error("Error reversing text", "error", err)
		}
	}
}

// BootstrapOnce prompts for a single line on stdin and prints its reversal.
func BootstrapOnce(config *Config) int {
	setupLogger()
	shutdown, _ := telemetry.New(serviceName, serviceVersion, collectorURL)
	defer shutdown()

	fmt.Fprint(os.Stdout, enterTextPrompt)
	if err := reverseLine(context.Background(), NewReverser(config), os.Stdin, os.Stdout); err != nil {
		slog.Error("Error reversing text", "error", err)
		return 1
	}
	return 0
}

func reverseLine(ctx context.Context, svc reverse.Service, in io.Reader, out io.Writer) error {
	result, err := svc.ReverseReader(ctx, in)
	if errors.Is(err, reverse.Error{ErrorCode: reverse.NoInput}) {
		fmt.Fprintln(out, "No characters entered. Nothing to reverse.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s\n", aurora.Green("Reversed text:"), result.Reversed)
	return nil
}

func setupLogger() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
}

func setupReadline() (rl *readline.Instance, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, readlineConfigDir)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return nil, err
	}

	return readline.NewEx(&readline.Config{
		Prompt:            aurora.Red("lifo> ").String(),
		HistoryFile:       filepath.Join(dir, "lifo.history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}
