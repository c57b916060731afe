// garmin-mcp 是 Garmin Connect 健身数据的 MCP 服务端
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justinwongcn/garmin-mcp/pkg"
)

const serverVersion = "0.1.0"

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:     "garmin-mcp",
		Short:   "Garmin Connect MCP server",
		Version: serverVersion,
		Long: `garmin-mcp exposes Garmin Connect fitness data as MCP tools.

Examples:
  # Serve over stdio (for MCP clients that spawn the server)
  garmin-mcp serve

  # Serve over streamable HTTP
  garmin-mcp serve --transport http --addr :8080

  # Verify credentials and persist an OAuth token
  garmin-mcp auth

  # List tools of a running HTTP server
  garmin-mcp tools --url http://127.0.0.1:8080/mcp
`,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(callCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger 构造日志器
// [注意]: stdio 传输下 stdout 是协议通道,日志必须走 stderr
func newLogger() (pkg.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return pkg.NewZapLogger(l), func() { _ = l.Sync() }, nil
}
