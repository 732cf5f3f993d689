package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "toolhub",
		Short:         "Capability dispatcher with a cached weather toolset for voice assistants",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("TOOLHUB_CONFIG"), "path to the YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level (debug|info|warn|error|off)")

	root.AddCommand(
		newServeCmd(&flags),
		newCallCmd(&flags),
		newToolsCmd(&flags),
		newCacheInfoCmd(&flags),
	)
	return root
}
