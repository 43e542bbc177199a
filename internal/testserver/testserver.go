// Package testserver provides in-process MCP servers used as fixtures by the
// framework's own tests and served over stdio by the example binaries.
package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Calculator returns a server exposing add, subtract, multiply and divide
// tools over two numeric arguments. Division by zero is a tool error.
func Calculator() *server.MCPServer {
	s := server.NewMCPServer("example-calculator", "1.0.0", server.WithToolCapabilities(false))

	type binaryOp func(a, b float64) (float64, error)
	register := func(name, description string, op binaryOp) {
		tool := mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithNumber("a", mcp.Required(), mcp.Description("First number")),
			mcp.WithNumber("b", mcp.Required(), mcp.Description("Second number")),
		)
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			a, aOK := numberArg(args, "a")
			b, bOK := numberArg(args, "b")
			if !aOK || !bOK {
				return mcp.NewToolResultError("arguments a and b must be numbers"), nil
			}
			result, err := op(a, b)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(strconv.FormatFloat(result, 'f', -1, 64)), nil
		})
	}

	register("add", "Add two numbers", func(a, b float64) (float64, error) { return a + b, nil })
	register("subtract", "Subtract two numbers", func(a, b float64) (float64, error) { return a - b, nil })
	register("multiply", "Multiply two numbers", func(a, b float64) (float64, error) { return a * b, nil })
	register("divide", "Divide two numbers", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	})

	return s
}

// user is a record in the in-memory user store.
type user struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserStore returns a server with a small in-memory user database: get_user,
// create_user, list_users and delete_user tools plus a users://all resource.
// It is seeded with Alice and Bob.
func UserStore() *server.MCPServer {
	s := server.NewMCPServer("example-user-management", "1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, true),
	)

	var mu sync.Mutex
	users := map[string]user{
		"1": {ID: "1", Name: "Alice", Email: "alice@example.com"},
		"2": {ID: "2", Name: "Bob", Email: "bob@example.com"},
	}

	sortedUsers := func() []user {
		ids := make([]string, 0, len(users))
		for id := range users {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		list := make([]user, 0, len(ids))
		for _, id := range ids {
			list = append(list, users[id])
		}
		return list
	}

	getUser := mcp.NewTool("get_user",
		mcp.WithDescription("Get user by ID"),
		mcp.WithString("id", mcp.Required(), mcp.Description("User ID")),
	)
	s.AddTool(getUser, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		if id == "" {
			return mcp.NewToolResultError("Missing required argument: id"), nil
		}
		mu.Lock()
		u, ok := users[id]
		mu.Unlock()
		if !ok {
			return mcp.NewToolResultError("User not found: " + id), nil
		}
		return jsonResult(u)
	})

	createUser := mcp.NewTool("create_user",
		mcp.WithDescription("Create a new user"),
		mcp.WithString("name", mcp.Required(), mcp.Description("User name")),
		mcp.WithString("email", mcp.Required(), mcp.Description("User email")),
	)
	s.AddTool(createUser, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		name, _ := args["name"].(string)
		email, _ := args["email"].(string)
		if name == "" || email == "" {
			return mcp.NewToolResultError("Missing required arguments: name and email"), nil
		}
		mu.Lock()
		id := strconv.Itoa(len(users) + 1)
		u := user{ID: id, Name: name, Email: email}
		users[id] = u
		mu.Unlock()
		return jsonResult(u)
	})

	listUsers := mcp.NewTool("list_users", mcp.WithDescription("List all users"))
	s.AddTool(listUsers, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mu.Lock()
		list := sortedUsers()
		mu.Unlock()
		return jsonResult(list)
	})

	deleteUser := mcp.NewTool("delete_user",
		mcp.WithDescription("Delete user by ID"),
		mcp.WithString("id", mcp.Required(), mcp.Description("User ID")),
	)
	s.AddTool(deleteUser, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		if id == "" {
			return mcp.NewToolResultError("Missing required argument: id"), nil
		}
		mu.Lock()
		_, ok := users[id]
		if ok {
			delete(users, id)
		}
		mu.Unlock()
		if !ok {
			return mcp.NewToolResultError("User not found: " + id), nil
		}
		return jsonResult(map[string]any{"success": true})
	})

	allUsers := mcp.NewResource("users://all", "All Users",
		mcp.WithResourceDescription("List of all users in the system"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(allUsers, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		mu.Lock()
		list := sortedUsers()
		mu.Unlock()
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	return s
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
