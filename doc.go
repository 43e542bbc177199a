// Package mcptest is a test framework for Model Context Protocol (MCP)
// servers that speak JSON-RPC over stdio.
//
// It provides a client-side Session with a strict connect/disconnect
// lifecycle, a TestServer wrapper for explicit start/stop/restart control,
// assertion helpers for tool and resource expectations, and a snapshot store
// for comparing tool outputs against saved baselines across test runs.
//
// A typical test looks like:
//
//	func TestCalculator(t *testing.T) {
//		ctx := context.Background()
//		sess := mcptest.NewSession(mcptest.ServerConfig{
//			Command: "python",
//			Args:    []string{"server.py"},
//		})
//		require.NoError(t, sess.Connect(ctx))
//		defer sess.Disconnect()
//
//		result, err := sess.CallTool(ctx, "add", map[string]any{"a": 5, "b": 3})
//		require.NoError(t, err)
//		require.NoError(t, mcptest.AssertToolOutputMatches(result, "8"))
//
//		snap := mcptest.NewSnapshot(t, "__snapshots__")
//		snap.Match(result, "add_response")
//	}
package mcptest
