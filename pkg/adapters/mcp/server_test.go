package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/pkg/adapters/memory"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pickOne = `{
  "title": "Pick One",
  "acts": [{"steps": [
    "Hello",
    {"text": "Pick one", "choices": [{"label": "Back", "to": "a1s1"}, {"label": "Finish", "to": "a1s3"}]},
    "Done"
  ]}]
}`

func newServer() *Server {
	src := memory.NewSource(map[string]string{"pick": pickOne})
	return NewServer(storyboard.New(storyboard.WithSource(src)))
}

func args(kv ...any) map[string]interface{} {
	m := map[string]interface{}{"scenario": "pick", "act": "act1"}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestServer_PlayTools(t *testing.T) {
	ctx := context.Background()
	s := newServer()
	req := mcp.CallToolRequest{}

	resp, err := s.handleSnapshot(ctx, req, args())
	require.NoError(t, err)
	assert.Equal(t, "a1s1", resp.Snapshot.NodeID)

	resp, err = s.handleAdvance(ctx, req, args())
	require.NoError(t, err)
	assert.Equal(t, "a1s2", resp.Snapshot.NodeID)

	resp, err = s.handleChoose(ctx, req, args("index", float64(1)))
	require.NoError(t, err)
	assert.Equal(t, "a1s3", resp.Snapshot.NodeID)
	assert.True(t, resp.Snapshot.Terminal)

	resp, err = s.handleAdvance(ctx, req, args())
	require.NoError(t, err)
	assert.Contains(t, resp.Rejected, "terminal node")
	assert.Equal(t, "a1s3", resp.Snapshot.NodeID)

	resp, err = s.handleGoto(ctx, req, args("node_id", "a1s2"))
	require.NoError(t, err)
	assert.Equal(t, "a1s2", resp.Snapshot.NodeID)

	resp, err = s.handleResetAct(ctx, req, args())
	require.NoError(t, err)
	assert.Equal(t, "a1s1", resp.Snapshot.NodeID)
}

func TestServer_ArgumentErrors(t *testing.T) {
	ctx := context.Background()
	s := newServer()

	_, err := s.handleSnapshot(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.EqualError(t, err, "scenario is required")

	_, err = s.handleChoose(ctx, mcp.CallToolRequest{}, args("index", "one"))
	assert.EqualError(t, err, "index must be a number")

	_, err = s.handleSnapshot(ctx, mcp.CallToolRequest{}, map[string]interface{}{"scenario": "missing"})
	assert.Error(t, err)
}

func toolRequest(arguments map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = arguments
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_IntrospectionTools(t *testing.T) {
	ctx := context.Background()
	s := newServer()

	res, err := s.handleListScenarios(ctx, toolRequest(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"pick","title":"Pick One"}]`, resultText(t, res))

	res, err = s.handleGetGraph(ctx, toolRequest(map[string]any{"scenario": "pick"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"entryNodeId":"a1s1"`)

	res, err = s.handleGetGraph(ctx, toolRequest(map[string]any{"scenario": "pick", "format": "mermaid"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "graph TD")

	res, err = s.handleGetGraph(ctx, toolRequest(map[string]any{"scenario": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
