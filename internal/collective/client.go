// Package collective is a chat client for the shared collective session.
//
// The collective server is an MCP server spoken to over stdio. Every turn
// is a call of its converse tool carrying the fixed session token, so all
// participants see one shared conversation.
package collective

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ViewPrompt is sent to fetch the recent conversation.
const ViewPrompt = "Show me the recent conversation history."

// ErrEmptyResult is returned when the tool answers without content.
var ErrEmptyResult = errors.New("tool returned no content")

// Config holds the settings for joining the collective.
type Config struct {
	// Command and Args start the server; Env is added to its environment.
	Command string
	Args    []string
	Env     map[string]string

	SessionToken string
	AgentUUID    string
	HumanName    string
	Agent        string
	Tool         string
	ViewCount    int
	// Timeout bounds each tool call.
	Timeout time.Duration

	ClientName    string
	ClientVersion string
	Logger        *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Tool == "" {
		c.Tool = "converse"
	}
	if c.ViewCount <= 0 {
		c.ViewCount = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.ClientName == "" {
		c.ClientName = "join-collective"
	}
	if c.ClientVersion == "" {
		c.ClientVersion = "dev"
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// mcpSession is the part of *client.Client this package uses.
type mcpSession interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Client is an initialized MCP session with the collective server.
type Client struct {
	sess   mcpSession
	cfg    Config
	server string
}

// Dial starts the server process and performs the MCP handshake.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Command == "" {
		return nil, errors.New("no server command configured")
	}

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	cfg.Logger.Debug("starting collective server", slog.String("command", cfg.Command), slog.Any("args", cfg.Args))
	c, err := client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cfg.Command, err)
	}

	return newClient(ctx, c, cfg)
}

// newClient initializes sess. sess is closed when initialization fails.
func newClient(ctx context.Context, sess mcpSession, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    cfg.ClientName,
		Version: cfg.ClientVersion,
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	res, err := sess.Initialize(ctx, req)
	if err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	cfg.Logger.Debug("connected to collective",
		slog.String("server", res.ServerInfo.Name),
		slog.String("version", res.ServerInfo.Version),
		slog.String("protocol", res.ProtocolVersion))

	return &Client{sess: sess, cfg: cfg, server: res.ServerInfo.Name}, nil
}

// Server returns the name the server reported during initialization.
func (c *Client) Server() string {
	return c.server
}

// Send posts message to the collective and returns the response text.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	return c.converse(ctx, message)
}

// View returns the recent conversation. count only shapes the caller's
// presentation; the server decides how much history it returns.
func (c *Client) View(ctx context.Context, count int) (string, error) {
	c.cfg.Logger.Debug("viewing conversation", slog.Int("count", count))
	return c.converse(ctx, ViewPrompt)
}

// Close ends the session and stops the server.
func (c *Client) Close() error {
	return c.sess.Close()
}

func (c *Client) converse(ctx context.Context, prompt string) (string, error) {
	turn := uuid.NewString()
	logger := c.cfg.Logger.With(slog.String("turn", turn))

	req := mcp.CallToolRequest{}
	req.Params.Name = c.cfg.Tool
	req.Params.Arguments = map[string]any{
		"prompt":        prompt,
		"session_token": c.cfg.SessionToken,
		"agent_uuid":    c.cfg.AgentUUID,
		"agent":         c.cfg.Agent,
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res, err := c.sess.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s call failed: %w", c.cfg.Tool, err)
	}
	logger.Debug("tool call finished", slog.String("tool", c.cfg.Tool), slog.Duration("elapsed", time.Since(start)))

	text, err := firstText(res)
	if err != nil {
		return "", err
	}
	if res.IsError {
		return "", fmt.Errorf("%s returned an error: %s", c.cfg.Tool, text)
	}

	var payload struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", c.cfg.Tool, err)
	}
	return payload.Response, nil
}

// firstText returns the first content item, which must be text.
func firstText(res *mcp.CallToolResult) (string, error) {
	if res == nil || len(res.Content) == 0 {
		return "", ErrEmptyResult
	}
	switch tc := res.Content[0].(type) {
	case mcp.TextContent:
		return tc.Text, nil
	case *mcp.TextContent:
		return tc.Text, nil
	default:
		return "", fmt.Errorf("unexpected content type %T", res.Content[0])
	}
}
