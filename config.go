package mcptest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain validation errors.
var (
	ErrEmptyCommand = errors.New("server command must not be empty")
)

// ServerConfig describes how to launch an MCP server process: the executable,
// its arguments, and environment variable overrides. It is a value object;
// two configs with equal fields are interchangeable and it is never mutated
// after construction.
type ServerConfig struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Validate checks that the config can actually spawn a process.
func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return ErrEmptyCommand
	}
	return nil
}

// String renders the config as the command line it would execute.
func (c ServerConfig) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// environ renders the Env map as KEY=VALUE pairs in a stable order.
func (c ServerConfig) environ() []string {
	if len(c.Env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, c.Env[k]))
	}
	return env
}

// ParseCommandLine builds a ServerConfig from a flat command line such as
// "python server.py". It is a boundary adapter; the core only deals in
// ServerConfig values.
func ParseCommandLine(line string) (ServerConfig, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ServerConfig{}, ErrEmptyCommand
	}
	return ServerConfig{Command: fields[0], Args: fields[1:]}, nil
}

// ConfigFromMap builds a ServerConfig from a loosely-typed map, the shape
// external tooling tends to hand over:
//
//	{"command": "python", "args": ["server.py"], "env": {"DEBUG": "1"}}
//
// Like ParseCommandLine it lives at the boundary only.
func ConfigFromMap(m map[string]any) (ServerConfig, error) {
	cfg := ServerConfig{}

	command, ok := m["command"].(string)
	if !ok || command == "" {
		return ServerConfig{}, fmt.Errorf("%w: missing or invalid \"command\" key", ErrEmptyCommand)
	}
	cfg.Command = command

	switch args := m["args"].(type) {
	case nil:
	case []string:
		cfg.Args = args
	case []any:
		for i, a := range args {
			s, ok := a.(string)
			if !ok {
				return ServerConfig{}, fmt.Errorf("args[%d] is %T, want string", i, a)
			}
			cfg.Args = append(cfg.Args, s)
		}
	default:
		return ServerConfig{}, fmt.Errorf("\"args\" is %T, want a string list", args)
	}

	switch env := m["env"].(type) {
	case nil:
	case map[string]string:
		cfg.Env = env
	case map[string]any:
		cfg.Env = make(map[string]string, len(env))
		for k, v := range env {
			s, ok := v.(string)
			if !ok {
				return ServerConfig{}, fmt.Errorf("env[%q] is %T, want string", k, v)
			}
			cfg.Env[k] = s
		}
	default:
		return ServerConfig{}, fmt.Errorf("\"env\" is %T, want a string map", env)
	}

	return cfg, nil
}
