package app

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	tcommon "github.com/bobmcallan/nsechat/tests/common"
)

// testHarness provides an in-process MCP client connected to an App built over
// an in-memory store and a mock NSE client.
type testHarness struct {
	t      *testing.T
	app    *App
	client *client.Client
	nse    *tcommon.MockNSEClient
	store  interfaces.MetadataStore
}

// newTestHarness creates the App and an initialized in-process client.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := common.NewSilentLogger()
	nse := tcommon.NewMockNSEClient()
	store := tcommon.NewMemoryStore(t)

	a := New(common.NewDefaultConfig(), logger, store, nse)

	c, err := client.NewInProcessClient(a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Failed to start client: %v", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "nsechat-test",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		t.Fatalf("Failed to initialize MCP: %v", err)
	}

	h := &testHarness{
		t:      t,
		app:    a,
		client: c,
		nse:    nse,
		store:  store,
	}
	t.Cleanup(func() {
		c.Close()
		a.RefreshService.Wait()
	})
	return h
}

// callTool invokes an MCP tool by name with the given arguments.
func (h *testHarness) callTool(name string, args map[string]any) *mcp.CallToolResult {
	h.t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := h.client.CallTool(context.Background(), req)
	if err != nil {
		h.t.Fatalf("CallTool %s: %v", name, err)
	}
	return result
}

// text extracts the first text block of a tool result.
func (h *testHarness) text(result *mcp.CallToolResult) string {
	h.t.Helper()
	if len(result.Content) == 0 {
		h.t.Fatalf("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		h.t.Fatalf("Content[0] is %T, not TextContent", result.Content[0])
	}
	return tc.Text
}
