package efatura

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/config"
	"github.com/reyhansunduk/efatura-mcp-server/internal/credentials"
	"github.com/reyhansunduk/efatura-mcp-server/internal/environment"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway/demo"
	"github.com/reyhansunduk/efatura-mcp-server/internal/gateway/gib"
)

// GIBOptions configures a connection to the GİB e-Arşiv service
type GIBOptions struct {
	Username string
	Password string
	// Production selects the production endpoint instead of test.
	Production bool
	// Endpoint overrides the default service URL when set.
	Endpoint   string
	Timeout    time.Duration
	AutoSign   bool
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DefaultGIBOptions returns options for the GİB test environment
func DefaultGIBOptions() GIBOptions {
	return GIBOptions{
		Timeout: gib.DefaultTimeout,
	}
}

// NewDemoGateway returns an in-memory gateway seeded with sample invoices
func NewDemoGateway() Gateway {
	return demo.New()
}

// NewGIBGateway returns a gateway that talks to the GİB service. Every call
// fails with a credential error, without touching the network, while the
// username and password fail the placeholder and VKN checks.
func NewGIBGateway(opts GIBOptions) Gateway {
	env := credentials.EnvTest
	if opts.Production {
		env = credentials.EnvProduction
	}
	creds := credentials.Credentials{
		Username:    opts.Username,
		Password:    opts.Password,
		Environment: env,
	}

	var clientOpts []gib.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, gib.WithEndpoint(opts.Endpoint))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, gib.WithTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, gib.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Logger != nil {
		clientOpts = append(clientOpts, gib.WithLogger(opts.Logger))
	}
	clientOpts = append(clientOpts, gib.WithAutoSign(opts.AutoSign))

	return gib.NewClient(creds, clientOpts...)
}

// FromEnvironment resolves GIB_* settings from the process environment and
// envFile, falling back to the demo gateway when they are unusable. The
// returned warnings explain a fallback.
func FromEnvironment(envFile string, log *zap.Logger) (Gateway, Mode, []error, error) {
	cfg, err := config.Load(config.Options{EnvFile: envFile})
	if err != nil {
		return nil, "", nil, err
	}
	var opts []environment.Option
	if log != nil {
		opts = append(opts, environment.WithLogger(log))
	}
	sel := environment.NewSelector(cfg, opts...).Select()
	return sel.Gateway, sel.Mode, sel.Warnings, nil
}
