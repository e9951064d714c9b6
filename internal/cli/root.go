// Package cli implements the pinpoint command line.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// Execute runs the command line until it finishes or the process is interrupted.
func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pinpoint",
		Short: "multi-provider address resolution with a correctable geocode cache",
		Long: `
pinpoint turns street addresses into coordinates using several geocoding providers,
keeps the answers in a cache, and repairs weak cache entries offline.

Configuration comes from the environment and an optional .env file.
`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newServeCmd(),
		newResolveCmd(),
		newScanCmd(),
		newRegeocodeCmd(),
		newCacheCmd(),
		newOverrideCmd(),
	)

	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
