package mcptest

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryanjp1/mcp-test-framework/internal/testserver"
)

// newCalculatorTestServer returns a stopped TestServer whose sessions run
// against fresh in-process calculator servers.
func newCalculatorTestServer(t *testing.T) *TestServer {
	t.Helper()
	server := NewTestServer(ServerConfig{},
		WithServerLogger(discardLogger()),
		WithSessionOptions(WithLogger(discardLogger())),
		WithTransportFactory(func() transport.Interface {
			return transport.NewInProcessTransport(testserver.Calculator())
		}),
	)
	t.Cleanup(func() { _ = server.Stop(context.Background()) })
	return server
}

func TestTestServer_Client_FailsBeforeStart(t *testing.T) {
	server := newCalculatorTestServer(t)

	_, err := server.Client()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.False(t, server.IsRunning())
}

func TestTestServer_Lifecycle(t *testing.T) {
	ctx := context.Background()
	server := newCalculatorTestServer(t)

	require.NoError(t, server.Start(ctx))
	assert.True(t, server.IsRunning())

	client, err := server.Client()
	require.NoError(t, err)
	assert.True(t, client.IsConnected())

	require.NoError(t, server.Stop(ctx))
	assert.False(t, server.IsRunning())

	_, err = server.Client()
	assert.ErrorIs(t, err, ErrNotStarted, "a stopped server must not hand out clients")
}

func TestTestServer_Stop_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	server := newCalculatorTestServer(t)

	require.NoError(t, server.Stop(ctx), "stopping a never-started server is a no-op")

	require.NoError(t, server.Start(ctx))
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx))
}

func TestTestServer_Restart(t *testing.T) {
	ctx := context.Background()
	server := newCalculatorTestServer(t)

	require.NoError(t, server.Start(ctx))
	first, err := server.Client()
	require.NoError(t, err)

	require.NoError(t, server.Restart(ctx))
	assert.True(t, server.IsRunning())

	second, err := server.Client()
	require.NoError(t, err)
	assert.NotSame(t, first, second, "restart must build a fresh session")

	_, err = second.ListTools(ctx)
	require.NoError(t, err)
}

func TestTestServer_Start_FailureCleansUp(t *testing.T) {
	ctx := context.Background()
	server := NewTestServer(ServerConfig{Command: "definitely-not-a-real-binary"},
		WithServerLogger(discardLogger()),
		WithSessionOptions(WithLogger(discardLogger())),
	)

	err := server.Start(ctx)

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.False(t, server.IsRunning())

	_, err = server.Client()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestTestServer_WaitForReady(t *testing.T) {
	ctx := context.Background()
	server := newCalculatorTestServer(t)
	require.NoError(t, server.Start(ctx))

	require.NoError(t, server.WaitForReady(ctx, time.Second))
}

func TestTestServer_WaitForReady_FailsWhenStopped(t *testing.T) {
	ctx := context.Background()
	server := newCalculatorTestServer(t)

	err := server.WaitForReady(ctx, 50*time.Millisecond)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorIs(t, err, ErrNotStarted, "the probe failure is carried as the cause")
}

func TestTestServerFactory_TracksAndStopsAll(t *testing.T) {
	ctx := context.Background()
	factory := NewTestServerFactory(ServerConfig{},
		WithServerLogger(discardLogger()),
		WithSessionOptions(WithLogger(discardLogger())),
		WithTransportFactory(func() transport.Interface {
			return transport.NewInProcessTransport(testserver.Calculator())
		}),
	)

	first := factory.Create()
	second := factory.Create()
	require.NoError(t, first.Start(ctx))
	require.NoError(t, second.Start(ctx))

	factory.StopAll(ctx)

	assert.False(t, first.IsRunning())
	assert.False(t, second.IsRunning())
}

func TestTestServerFactory_StopAllToleratesStoppedServers(t *testing.T) {
	factory := NewTestServerFactory(ServerConfig{Command: "python"},
		WithServerLogger(discardLogger()),
	)

	factory.Create() // never started
	factory.StopAll(context.Background())
}
