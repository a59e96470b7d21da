package collective

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collective is an in-memory converse tool recording every call.
type collective struct {
	mu    sync.Mutex
	calls []map[string]any
	reply func(prompt string) *mcp.CallToolResult
}

func (c *collective) handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req.GetArguments())
	c.mu.Unlock()
	return c.reply(req.GetString("prompt", "")), nil
}

func (c *collective) lastCall(t *testing.T) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.calls)
	return c.calls[len(c.calls)-1]
}

func jsonReply(t *testing.T, response string) *mcp.CallToolResult {
	t.Helper()
	data, err := json.Marshal(map[string]string{"response": response})
	require.NoError(t, err)
	return mcp.NewToolResultText(string(data))
}

func testConfig() Config {
	return Config{
		SessionToken: "sid_test",
		AgentUUID:    "HUMAN_TEST",
		HumanName:    "Tester",
		Agent:        "claude-sonnet-4",
		ViewCount:    10,
		Timeout:      5 * time.Second,
	}
}

// newTestClient connects a Client to an in-process server whose converse
// tool answers with reply.
func newTestClient(t *testing.T, reply func(t *testing.T, prompt string) *mcp.CallToolResult) (*Client, *collective) {
	t.Helper()

	coll := &collective{reply: func(prompt string) *mcp.CallToolResult { return reply(t, prompt) }}
	srv := server.NewMCPServer("collective-test", "1.0.0", server.WithToolCapabilities(true))
	srv.AddTool(mcp.NewTool("converse",
		mcp.WithDescription("Talk to the collective"),
		mcp.WithString("prompt", mcp.Required()),
		mcp.WithString("session_token", mcp.Required()),
		mcp.WithString("agent_uuid"),
		mcp.WithString("agent"),
	), coll.handle)

	mc, err := client.NewInProcessClient(srv)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mc.Start(ctx))

	c, err := newClient(ctx, mc, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, coll
}

func TestClient_Initialize(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, _ string) *mcp.CallToolResult { return jsonReply(t, "") })
	assert.Equal(t, "collective-test", c.Server())
}

func TestClient_Send(t *testing.T) {
	c, coll := newTestClient(t, func(t *testing.T, prompt string) *mcp.CallToolResult {
		return jsonReply(t, "echo: "+prompt)
	})

	got, err := c.Send(context.Background(), "hello collective")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello collective", got)

	args := coll.lastCall(t)
	assert.Equal(t, "hello collective", args["prompt"])
	assert.Equal(t, "sid_test", args["session_token"])
	assert.Equal(t, "HUMAN_TEST", args["agent_uuid"])
	assert.Equal(t, "claude-sonnet-4", args["agent"])
}

func TestClient_View(t *testing.T) {
	c, coll := newTestClient(t, func(t *testing.T, _ string) *mcp.CallToolResult {
		return jsonReply(t, "patient0: hi")
	})

	got, err := c.View(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "patient0: hi", got)
	assert.Equal(t, ViewPrompt, coll.lastCall(t)["prompt"])
}

func TestClient_ToolError(t *testing.T) {
	c, _ := newTestClient(t, func(_ *testing.T, _ string) *mcp.CallToolResult {
		return mcp.NewToolResultError("session not found")
	})

	_, err := c.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestClient_UndecodablePayload(t *testing.T) {
	c, _ := newTestClient(t, func(_ *testing.T, _ string) *mcp.CallToolResult {
		return mcp.NewToolResultText("not json")
	})

	_, err := c.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestClient_MissingResponseField(t *testing.T) {
	c, _ := newTestClient(t, func(_ *testing.T, _ string) *mcp.CallToolResult {
		return mcp.NewToolResultText(`{"status":"ok"}`)
	})

	got, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// fakeSession scripts the MCP session for transport-level failures.
type fakeSession struct {
	initErr error
	result  *mcp.CallToolResult
	callErr error
	closed  bool
}

func (f *fakeSession) Initialize(context.Context, mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcp.InitializeResult{ServerInfo: mcp.Implementation{Name: "fake"}}, nil
}

func (f *fakeSession) CallTool(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return f.result, f.callErr
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestNewClient_InitializeFailureClosesSession(t *testing.T) {
	sess := &fakeSession{initErr: errors.New("handshake refused")}

	_, err := newClient(context.Background(), sess, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handshake refused")
	assert.True(t, sess.closed)
}

func TestClient_CallFailures(t *testing.T) {
	tests := []struct {
		name    string
		sess    *fakeSession
		wantErr string
	}{
		{
			name:    "transport error",
			sess:    &fakeSession{callErr: errors.New("broken pipe")},
			wantErr: "broken pipe",
		},
		{
			name:    "empty content",
			sess:    &fakeSession{result: &mcp.CallToolResult{}},
			wantErr: "no content",
		},
		{
			name: "non-text content",
			sess: &fakeSession{result: &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewImageContent("aGk=", "image/png")},
			}},
			wantErr: "unexpected content type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newClient(context.Background(), tt.sess, testConfig())
			require.NoError(t, err)

			_, err = c.Send(context.Background(), "hi")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDial_RequiresCommand(t *testing.T) {
	_, err := Dial(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no server command")
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "converse", cfg.Tool)
	assert.Equal(t, 10, cfg.ViewCount)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "join-collective", cfg.ClientName)
	assert.NotNil(t, cfg.Logger)
}
