// Package serve runs the HTTP API.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taxtally/deductions/cmd/root"
	"taxtally/deductions/internal/logging"
)

var port int

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the JSON HTTP API: statement upload, classification, merchant search,
per-user overrides and toggles, dashboard summaries and the open-banking
passthrough. The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("container not initialized")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := Addr(port, c.GetConfig().Server.Port)
		root.GetLogger().Info("Serving API", logging.F("addr", addr))
		return c.Server().ListenAndServe(ctx, addr)
	},
}

func init() {
	Cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default server.port from config)")
}

// Addr is the listen address: the flag when set, else the configured port.
func Addr(flagPort, configPort int) string {
	if flagPort > 0 {
		return fmt.Sprintf(":%d", flagPort)
	}
	return fmt.Sprintf(":%d", configPort)
}
