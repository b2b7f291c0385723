package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "twin-editor",
		Short: "Digital-twin layout editor server and tools",
		Long: "twin-editor serves the 2D factory layout editor API and offers offline tools " +
			"to inspect layout files and run editor commands against them.",
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(
		serveCmd(),
		checkCmd(),
		applyCmd(),
	)
	return root
}
