// Package environment binds exactly one invoice backend per process.
//
// The selector inspects the immutable configuration once: valid credentials
// for a known environment select the GİB client, anything else falls back to
// the demo catalog with a warning. Startup never fails on credentials.
package environment

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/config"
	"github.com/reyhansunduk/efatura-mcp-server/internal/credentials"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway/demo"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway/gib"
	"github.com/reyhansunduk/efatura-mcp-server/internal/metrics"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
)

// Selection is the backend bound for the lifetime of the process
type Selection struct {
	Gateway  gateway.Gateway
	Mode     gateway.Mode
	Endpoint string
	// Warnings explain a fallback to demo mode. Empty for a real backend.
	Warnings []error
}

// Selector chooses the backend once
type Selector struct {
	cfg        config.Config
	log        *zap.Logger
	metrics    *metrics.Metrics
	httpClient *http.Client

	once      sync.Once
	selection Selection
}

// Option configures the selector
type Option func(*Selector)

// WithLogger sets the logger handed to the selected backend
func WithLogger(log *zap.Logger) Option {
	return func(s *Selector) {
		s.log = log
	}
}

// WithMetrics instruments the selected backend
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Selector) {
		s.metrics = m
	}
}

// WithHTTPClient replaces the GİB client's HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(s *Selector) {
		s.httpClient = c
	}
}

// NewSelector creates a selector. Nothing is decided until Select.
func NewSelector(cfg config.Config, opts ...Option) *Selector {
	s := &Selector{
		cfg: cfg,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select binds the backend on first call and returns the same Selection afterwards.
func (s *Selector) Select() Selection {
	s.once.Do(func() {
		s.selection = s.choose()
		s.announce(s.selection)
	})
	return s.selection
}

func (s *Selector) choose() Selection {
	var warnings []error

	if err := s.cfg.Credentials.Check().Err(); err != nil {
		warnings = append(warnings, err)
	}
	if !s.cfg.EnvironmentKnown {
		warnings = append(warnings, model.NewValidationError(config.KeyEnvironment, s.cfg.DeclaredEnvironment,
			"enum", "must be test or production"))
	}

	if len(warnings) > 0 {
		store := demo.New(demo.WithLogger(s.log))
		return Selection{
			Gateway:  gateway.Instrument(store, gateway.ModeDemo, s.metrics, s.log),
			Mode:     gateway.ModeDemo,
			Warnings: warnings,
		}
	}

	mode := gateway.ModeTest
	if s.cfg.Credentials.Environment == credentials.EnvProduction {
		mode = gateway.ModeProduction
	}

	opts := []gib.ClientOption{
		gib.WithAutoSign(s.cfg.AutoSign),
		gib.WithLogger(s.log),
		gib.WithMetrics(s.metrics),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, gib.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Endpoint != "" {
		opts = append(opts, gib.WithEndpoint(s.cfg.Endpoint))
	}
	if s.httpClient != nil {
		opts = append(opts, gib.WithHTTPClient(s.httpClient))
	}

	client := gib.NewClient(s.cfg.Credentials, opts...)
	return Selection{
		Gateway:  gateway.Instrument(client, mode, s.metrics, s.log),
		Mode:     mode,
		Endpoint: client.Endpoint(),
	}
}

// demoBanner tells the operator how to leave demo mode
var demoBanner = []string{
	"DEMO MODE: using sample invoices",
	"GİB credentials not configured, serving the built-in demo catalog.",
	"To use the real GİB e-Arşiv service:",
	"1. Edit the .env file",
	"2. Set GIB_USERNAME=<your VKN>",
	"3. Set GIB_PASSWORD=<your password>",
	"4. Set GIB_ENVIRONMENT=test or production",
	"5. Restart the server",
}

func (s *Selector) announce(sel Selection) {
	if sel.Mode.IsReal() {
		s.log.Info("GİB gateway selected",
			zap.String("mode", string(sel.Mode)),
			zap.String("endpoint", sel.Endpoint),
			zap.Object("credentials", s.cfg.Credentials),
			zap.Duration("timeout", s.cfg.Timeout),
			zap.Bool("auto_sign", s.cfg.AutoSign),
		)
		return
	}

	for _, err := range sel.Warnings {
		s.log.Warn("falling back to demo mode", zap.String("reason", err.Error()))
	}
	for _, line := range demoBanner {
		s.log.Warn(line)
	}
	s.log.Info("demo gateway selected",
		zap.String("mode", string(sel.Mode)),
		zap.Int("invoices", demo.SeedCount),
	)
}
