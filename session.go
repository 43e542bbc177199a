package mcptest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// resource is one entry on the session's scoped-acquisition stack. Resources
// are released in reverse acquisition order on disconnect and on any failure
// part way through Connect.
type resource struct {
	name    string
	release func() error
	// subsumed marks a resource whose release is already performed by a
	// later entry on the stack (the protocol client closes the transport it
	// owns). It is still released directly when the later entry fails.
	subsumed bool
}

// Session owns one live connection to an MCP server process: the spawned
// transport, the protocol handshake, and their teardown. All calls are
// strictly sequential from the caller's perspective; a Session never holds
// two simultaneous handshakes.
type Session struct {
	cfg        ServerConfig
	logger     *slog.Logger
	clientInfo mcp.Implementation

	mu        sync.Mutex
	transport transport.Interface // injected override, nil for stdio
	client    *client.Client
	stack     []resource
	connected bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithTransport replaces the stdio transport with a caller-supplied one, for
// example an in-process transport wrapping a server under test. The session
// still owns the transport's lifecycle once Connect is called.
func WithTransport(t transport.Interface) SessionOption {
	return func(s *Session) { s.transport = t }
}

// WithClientInfo overrides the client name and version sent during the
// handshake.
func WithClientInfo(name, version string) SessionOption {
	return func(s *Session) { s.clientInfo = mcp.Implementation{Name: name, Version: version} }
}

// NewSession creates a disconnected session for the given server config.
func NewSession(cfg ServerConfig, opts ...SessionOption) *Session {
	s := &Session{
		cfg:        cfg,
		logger:     slog.Default(),
		clientInfo: mcp.Implementation{Name: "mcptest", Version: "1.0.0"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect spawns the server transport and performs the protocol handshake.
// Calling it on an already-connected session is a no-op with a warning. If
// any step fails, every resource acquired so far is released in reverse order
// before a single ConnectionError is returned; a failed Connect never leaks a
// live subprocess or open pipe.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		s.logger.Warn("session is already connected", "server", s.cfg.String())
		return nil
	}

	if err := s.cfg.Validate(); err != nil && s.transport == nil {
		return &ConnectionError{Err: err}
	}

	t := s.transport
	if t == nil {
		t = transport.NewStdio(s.cfg.Command, s.cfg.environ(), s.cfg.Args...)
	}

	if err := t.Start(ctx); err != nil {
		s.unwindLocked()
		return &ConnectionError{Err: fmt.Errorf("failed to start transport: %w", err)}
	}
	s.stack = append(s.stack, resource{name: "transport", release: t.Close})

	c := client.NewClient(t)

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = s.clientInfo
	initReq.Params.Capabilities = mcp.ClientCapabilities{}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		s.unwindLocked()
		return &ConnectionError{Err: fmt.Errorf("handshake failed: %w", err)}
	}

	// The protocol client owns the transport from here on; closing the
	// client closes the transport too.
	s.stack[len(s.stack)-1].subsumed = true
	s.stack = append(s.stack, resource{name: "protocol session", release: c.Close})

	s.client = c
	s.connected = true
	s.logger.Debug("session connected", "server", s.cfg.String())
	return nil
}

// Disconnect releases all held resources in reverse acquisition order. It is
// safe to call any number of times, including on a session that never
// connected.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.unwindLocked()
	s.logger.Debug("session disconnected", "server", s.cfg.String())
	return err
}

// unwindLocked pops and releases the resource stack in reverse order,
// returning to the disconnected state regardless of individual release
// failures. Callers must hold s.mu.
func (s *Session) unwindLocked() error {
	var errs []error
	released := false
	for i := len(s.stack) - 1; i >= 0; i-- {
		r := s.stack[i]
		if r.subsumed && released {
			continue
		}
		if err := r.release(); err != nil {
			s.logger.Warn("failed to release resource", "resource", r.name, "error", err)
			errs = append(errs, fmt.Errorf("release %s: %w", r.name, err))
			continue
		}
		released = true
	}
	s.stack = nil
	s.client = nil
	s.connected = false
	return errors.Join(errs...)
}

// IsConnected reports whether the session holds a live handshake.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// handle returns the protocol client or ErrNotConnected.
func (s *Session) handle() (*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.client == nil {
		return nil, fmt.Errorf("%w: call Connect first", ErrNotConnected)
	}
	return s.client, nil
}

// ListTools returns the server's currently advertised tools, in server order.
// Listings are fetched fresh on every call, never cached.
func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	c, err := s.handle()
	if err != nil {
		return nil, err
	}
	result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

// ListResources returns the server's currently advertised resources, in
// server order.
func (s *Session) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	c, err := s.handle()
	if err != nil {
		return nil, err
	}
	result, err := c.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return result.Resources, nil
}

// CallTool invokes the named tool with the given arguments (an empty mapping
// when nil). Protocol failures propagate to the caller untouched; a
// server-reported tool failure is returned as a *ToolError alongside the raw
// result so assertions can inspect both.
func (s *Session) CallTool(ctx context.Context, name string, arguments map[string]any) (*mcp.CallToolResult, error) {
	c, err := s.handle()
	if err != nil {
		return nil, err
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	result, err := c.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.IsError {
		return result, &ToolError{Tool: name, Message: resultText(result)}
	}
	s.logger.Debug("tool call succeeded", "tool", name)
	return result, nil
}

// ReadResource reads the resource at uri. A plain string is accepted and
// validated as a URI before the request is sent. Failures propagate with the
// same contract as CallTool.
func (s *Session) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	c, err := s.handle()
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid resource uri %q: %w", uri, err)
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("invalid resource uri %q: missing scheme", uri)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri

	result, err := c.ReadResource(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resource read succeeded", "uri", uri)
	return result, nil
}

// GetTool looks up a tool by name over the current listing. A missing tool is
// reported through the found flag, not an error.
func (s *Session) GetTool(ctx context.Context, name string) (*mcp.Tool, bool, error) {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range tools {
		if tools[i].Name == name {
			return &tools[i], true, nil
		}
	}
	return nil, false, nil
}

// GetResource looks up a resource by URI over the current listing. A missing
// resource is reported through the found flag, not an error.
func (s *Session) GetResource(ctx context.Context, uri string) (*mcp.Resource, bool, error) {
	resources, err := s.ListResources(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range resources {
		if resources[i].URI == uri {
			return &resources[i], true, nil
		}
	}
	return nil, false, nil
}

// resultText joins the text content items of a result into one string.
func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, item := range result.Content {
		if tc, ok := mcp.AsTextContent(item); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
