package tools

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/justinwongcn/garmin-mcp/pkg"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
	"github.com/justinwongcn/garmin-mcp/transport"
)

// TestStdioEndToEnd 用管道替代标准输入输出,走完整的协议链路:
// initialize → initialized → tools/list → tools/call
func TestStdioEndToEnd(t *testing.T) {
	serverToClient, serverWriter := io.Pipe()
	serverReader, clientToServer := io.Pipe()

	trans := transport.NewStdioServerTransport(
		transport.WithStdioServerOptionReadWriter(serverReader, serverWriter))

	srv, err := server.NewServer(trans,
		server.WithServerInfo(protocol.Implementation{Name: "garmin-mcp", Version: "test"}))
	require.NoError(t, err)

	api := &fakeAPI{
		listActivities: func(_ context.Context, offset, limit int, _ string) ([]map[string]any, error) {
			items := make([]map[string]any, 2)
			for i := range items {
				items[i] = map[string]any{
					"activityId": float64(offset + i + 1),
					"distance":   float64(5000),
				}
			}
			return items, nil
		},
	}
	require.NoError(t, RegisterAll(srv, api, pkg.DefaultLogger))

	go func() {
		_ = srv.Run()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	out := bufio.NewReader(serverToClient)
	send := func(msg string) {
		_, err := clientToServer.Write([]byte(msg + "\n"))
		require.NoError(t, err)
	}
	recv := func() string {
		line, err := out.ReadString('\n')
		require.NoError(t, err)
		return line
	}

	send(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"e2e","version":"0.0.1"}}}`)
	resp := recv()
	assert.Equal(t, "2025-03-26", gjson.Get(resp, "result.protocolVersion").String())
	assert.Equal(t, "garmin-mcp", gjson.Get(resp, "result.serverInfo.name").String())

	send(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	send(`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`)
	resp = recv()
	tools := gjson.Get(resp, "result.tools.#.name").Array()
	names := make(map[string]bool, len(tools))
	for _, name := range tools {
		names[name.String()] = true
	}
	for _, want := range []string{"list_activities", "get_sleep", "analyze_training_period"} {
		assert.True(t, names[want], "missing tool %s", want)
	}

	send(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_activities","arguments":{"limit":1}}}`)
	resp = recv()
	require.False(t, gjson.Get(resp, "result.isError").Bool(), "unexpected error: %s", resp)
	envelope := gjson.Get(resp, "result.content.0.text").String()
	assert.EqualValues(t, 1, gjson.Get(envelope, "data.count").Int())
	assert.True(t, gjson.Get(envelope, "pagination.has_more").Bool())
	assert.True(t, gjson.Get(envelope, "metadata.fetched_at").Exists())

	// 非法游标也要走信封而不是协议层错误
	send(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"list_activities","arguments":{"cursor":"invalid-cursor-data"}}}`)
	resp = recv()
	require.True(t, gjson.Get(resp, "result.isError").Bool(), "want tool-level error: %s", resp)
	envelope = gjson.Get(resp, "result.content.0.text").String()
	assert.Equal(t, "validation_error", gjson.Get(envelope, "error.type").String())
}
