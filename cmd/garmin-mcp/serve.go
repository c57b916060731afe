package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/garmin/tools"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
	"github.com/justinwongcn/garmin-mcp/transport"
)

func serveCmd() *cobra.Command {
	var (
		transportKind string
		addr          string
		stateless     bool
		pageSize      int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, sync, err := newLogger()
			if err != nil {
				return err
			}
			defer sync()

			cfg := garmin.LoadConfig()
			auth := garmin.NewAuthenticator(cfg, logger)
			api := garmin.NewRestClient(cfg, auth, logger)

			var t transport.ServerTransport
			switch transportKind {
			case "stdio":
				t = transport.NewStdioServerTransport()
			case "http":
				mode := transport.Stateful
				if stateless {
					mode = transport.Stateless
				}
				t = transport.NewStreamableHTTPServerTransport(addr,
					transport.WithStreamableHTTPServerTransportOptionLogger(logger),
					transport.WithStreamableHTTPServerTransportOptionStateMode(mode))
			default:
				return fmt.Errorf("unknown transport %q, use 'stdio' or 'http'", transportKind)
			}

			srv, err := server.NewServer(t,
				server.WithServerInfo(protocol.Implementation{
					Name:    "garmin-mcp",
					Version: serverVersion,
				}),
				server.WithInstructions("Query Garmin Connect fitness data: activities, workouts, health metrics, devices, gear, and training analysis. List tools support cursor pagination."),
				server.WithToolListPageSize(pageSize),
				server.WithLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			if err := tools.RegisterAll(srv, api, logger); err != nil {
				return fmt.Errorf("register tools: %w", err)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Infof("received signal %s, shutting down", sig)
				ctx := cmd.Context()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVarP(&transportKind, "transport", "t", "stdio", "Transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address for HTTP transport")
	cmd.Flags().BoolVar(&stateless, "stateless", false, "Run HTTP transport without sessions")
	cmd.Flags().IntVar(&pageSize, "tool-page-size", 0, "Page size for tools/list (0 disables paging)")
	return cmd
}
