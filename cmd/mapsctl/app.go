package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	resilientmaps "github.com/opengovern/resilient-maps"
	"github.com/opengovern/resilient-maps/internal/config"
	"github.com/opengovern/resilient-maps/internal/logger"
	"github.com/opengovern/resilient-maps/metrics"
	"github.com/opengovern/resilient-maps/mock"
)

// setupError marks failures that happen before any request is sent.
type setupError struct {
	err error
}

func (e *setupError) Error() string { return "setup: " + e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

type app struct {
	configPath string
	envFile    string
	debug      bool
	useMock    bool

	// mockRateLimitAfter makes the --mock transport answer 429 after this
	// many requests.
	mockRateLimitAfter int

	out       io.Writer
	logOut    io.Writer
	cfg       config.Config
	log       zerolog.Logger
	logCloser io.Closer
	registry  *prometheus.Registry
	recorder  *metrics.Recorder
	client    *resilientmaps.Client

	// transport overrides the HTTP transport when set.
	transport resilientmaps.Transport
}

func newApp(out io.Writer) *app {
	return &app{out: out, log: zerolog.Nop()}
}

func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return &setupError{err}
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return &setupError{err}
	}
	a.cfg = cfg

	log, closer, err := logger.New(logger.Options{
		Level:      cfg.Logging.Level,
		Pretty:     cfg.Logging.Pretty,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		Out:        a.logOut,
	})
	if err != nil {
		return &setupError{err}
	}
	a.log, a.logCloser = log, closer

	a.registry = prometheus.NewRegistry()
	a.recorder, err = metrics.New(a.registry)
	if err != nil {
		return &setupError{err}
	}

	opts, err := cfg.ClientOptions(a.log)
	if err != nil {
		return &setupError{err}
	}
	opts = append(opts, resilientmaps.WithObserver(a.recorder))
	switch {
	case a.transport != nil:
		opts = append(opts, resilientmaps.WithTransport(a.transport))
	case a.useMock:
		opts = append(opts, resilientmaps.WithTransport(&mock.MockTransport{
			RequestsUntilRateLimit: a.mockRateLimitAfter,
			RetryAfter:             "1",
		}))
	case cfg.APIKey == "":
		return &setupError{fmt.Errorf("GOOGLE_MAPS_API_KEY is not set (use --mock to run offline)")}
	}

	a.client = resilientmaps.NewClient(cfg.APIKey, opts...)
	a.client.SetDebug(a.debug)
	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
