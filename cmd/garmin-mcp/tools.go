package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justinwongcn/garmin-mcp/client"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/transport"
)

// newHTTPClient 连接一个运行中的 HTTP 服务端,调试子命令共用
func newHTTPClient(ctx context.Context, serverURL string) (*client.Client, error) {
	t, err := transport.NewStreamableHTTPClientTransport(serverURL)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}
	c, err := client.NewClient(t, client.WithClientInfo(protocol.Implementation{
		Name:    "garmin-mcp-cli",
		Version: serverVersion,
	}))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", serverURL, err)
	}
	return c, nil
}

func toolsCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools of a running HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newHTTPClient(cmd.Context(), serverURL)
			if err != nil {
				return err
			}
			defer c.Close()

			cursor := ""
			for {
				result, err := c.ListTools(cmd.Context(), cursor)
				if err != nil {
					return fmt.Errorf("list tools: %w", err)
				}
				for _, tool := range result.Tools {
					fmt.Printf("%-28s %s\n", tool.Name, tool.Description)
				}
				if result.NextCursor == "" {
					return nil
				}
				cursor = result.NextCursor
			}
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "http://127.0.0.1:8080/mcp", "Server URL")
	return cmd
}

func callCmd() *cobra.Command {
	var (
		serverURL string
		argsJSON  string
	)

	cmd := &cobra.Command{
		Use:   "call <tool-name>",
		Short: "Call a tool on a running HTTP server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arguments map[string]any
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &arguments); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}

			c, err := newHTTPClient(cmd.Context(), serverURL)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.CallTool(cmd.Context(), &protocol.CallToolRequest{
				Name:      args[0],
				Arguments: arguments,
			})
			if err != nil {
				return fmt.Errorf("call tool: %w", err)
			}

			for _, content := range result.Content {
				if text, ok := content.(*protocol.TextContent); ok {
					fmt.Println(text.Text)
				}
			}
			if result.IsError {
				return fmt.Errorf("tool returned an error")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "http://127.0.0.1:8080/mcp", "Server URL")
	cmd.Flags().StringVar(&argsJSON, "args", "", "Tool arguments as a JSON object")
	return cmd
}
