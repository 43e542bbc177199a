package mcptest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client/transport"
)

// DefaultReadyTimeout bounds WaitForReady when no timeout is configured.
const DefaultReadyTimeout = 30 * time.Second

// TestServer manages the lifecycle of an MCP server for integration tests
// that need explicit start/stop/restart control on top of the session's own
// scoped lifetime.
type TestServer struct {
	cfg              ServerConfig
	logger           *slog.Logger
	readyTimeout     time.Duration
	sessionOpts      []SessionOption
	transportFactory func() transport.Interface

	mu      sync.Mutex
	session *Session
}

// TestServerOption configures a TestServer.
type TestServerOption func(*TestServer)

// WithReadyTimeout sets the default deadline for WaitForReady.
func WithReadyTimeout(d time.Duration) TestServerOption {
	return func(s *TestServer) { s.readyTimeout = d }
}

// WithServerLogger sets the test server's logger. Defaults to slog.Default().
func WithServerLogger(logger *slog.Logger) TestServerOption {
	return func(s *TestServer) { s.logger = logger }
}

// WithSessionOptions passes extra options to every session the server
// constructs.
func WithSessionOptions(opts ...SessionOption) TestServerOption {
	return func(s *TestServer) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// WithTransportFactory makes each Start build its session over a fresh
// transport from the factory instead of spawning the configured command.
// Restart-friendly counterpart to WithTransport.
func WithTransportFactory(factory func() transport.Interface) TestServerOption {
	return func(s *TestServer) { s.transportFactory = factory }
}

// NewTestServer creates a stopped test server for the given config.
func NewTestServer(cfg ServerConfig, opts ...TestServerOption) *TestServer {
	s := &TestServer{
		cfg:          cfg,
		logger:       slog.Default(),
		readyTimeout: DefaultReadyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start spawns the server and connects an internal session. On failure it
// stops the server for symmetric cleanup before returning a StartError.
func (s *TestServer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.session != nil && s.session.IsConnected() {
		s.mu.Unlock()
		s.logger.Warn("test server is already running", "command", s.cfg.String())
		return nil
	}

	s.logger.Info("starting MCP test server", "command", s.cfg.String())

	opts := append([]SessionOption{WithLogger(s.logger)}, s.sessionOpts...)
	if s.transportFactory != nil {
		opts = append(opts, WithTransport(s.transportFactory()))
	}
	session := NewSession(s.cfg, opts...)
	s.session = session
	s.mu.Unlock()

	if err := session.Connect(ctx); err != nil {
		if stopErr := s.Stop(ctx); stopErr != nil {
			s.logger.Warn("cleanup after failed start reported an error", "error", stopErr)
		}
		return &StartError{Err: err}
	}

	s.logger.Info("MCP test server started")
	return nil
}

// Stop disconnects the internal session and releases the server process.
// Stopping a never-started or already-stopped server is a no-op.
func (s *TestServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()

	if session == nil {
		return nil
	}
	if err := session.Disconnect(); err != nil {
		return fmt.Errorf("failed to stop test server: %w", err)
	}
	s.logger.Info("MCP test server stopped")
	return nil
}

// Restart stops and starts the server. Useful for exercising server
// initialization and cleanup logic.
func (s *TestServer) Restart(ctx context.Context) error {
	s.logger.Info("restarting MCP test server")
	if err := s.Stop(ctx); err != nil {
		s.logger.Warn("stop during restart reported an error", "error", err)
	}
	return s.Start(ctx)
}

// Client returns the connected session. It fails fast with ErrNotStarted
// rather than handing out a half-usable client.
func (s *TestServer) Client() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || !s.session.IsConnected() {
		return nil, fmt.Errorf("%w: call Start first", ErrNotStarted)
	}
	return s.session, nil
}

// IsRunning reports whether the managed session is connected.
func (s *TestServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && s.session.IsConnected()
}

// WaitForReady issues a harmless tool listing as a liveness probe, racing it
// against the deadline. Any failure, including deadline expiry, comes back as
// a single TimeoutError carrying the cause. A non-positive timeout uses the
// configured default.
func (s *TestServer) WaitForReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.readyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := s.Client()
	if err != nil {
		return &TimeoutError{Err: err}
	}
	if _, err := session.ListTools(ctx); err != nil {
		return &TimeoutError{Err: err}
	}
	s.logger.Debug("MCP test server is ready")
	return nil
}

// TestServerFactory creates independently tracked test servers sharing one
// config, and can stop all of them in a single sweep.
type TestServerFactory struct {
	cfg    ServerConfig
	opts   []TestServerOption
	logger *slog.Logger

	mu      sync.Mutex
	servers []*TestServer
}

// NewTestServerFactory creates a factory producing servers with the given
// config and options.
func NewTestServerFactory(cfg ServerConfig, opts ...TestServerOption) *TestServerFactory {
	return &TestServerFactory{cfg: cfg, opts: opts, logger: slog.Default()}
}

// Create returns a new stopped test server tracked by the factory.
func (f *TestServerFactory) Create() *TestServer {
	server := NewTestServer(f.cfg, f.opts...)
	f.mu.Lock()
	f.servers = append(f.servers, server)
	f.mu.Unlock()
	return server
}

// StopAll stops every server the factory created. Individual stop failures
// are logged, not returned, so one failed teardown cannot block the rest.
func (f *TestServerFactory) StopAll(ctx context.Context) {
	f.mu.Lock()
	servers := f.servers
	f.servers = nil
	f.mu.Unlock()

	for _, server := range servers {
		if err := server.Stop(ctx); err != nil {
			f.logger.Warn("failed to stop test server", "error", err)
		}
	}
}
