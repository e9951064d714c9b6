package cli

import (
	"errors"
	"fmt"

	"github.com/UnknownOlympus/pinpoint/internal/address"
	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/spf13/cobra"
)

var (
	errNotCached    = errors.New("address is not cached")
	errEmptyAddress = errors.New("address is empty after normalization")
)

type cacheEntryOutput struct {
	Key    string                `json:"key"`
	Record *models.GeocodeRecord `json:"record,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// addressKey returns the cache key of a raw address.
func addressKey(raw string) (string, error) {
	normalized := address.Normalize(raw)
	if normalized.Empty() {
		return "", errEmptyAddress
	}

	return repository.CacheKey(normalized.Query), nil
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and edit the geocode cache",
	}

	cmd.AddCommand(newCacheGetCmd(), newCacheDeleteCmd(), newCacheListCmd())

	return cmd
}

func newCacheGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <address>",
		Short: "Print the cached record of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			key, err := addressKey(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			rec, err := a.store.Get(ctx, key)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("%w: %s", errNotCached, key)
			}

			return printJSON(cmd.OutOrStdout(), cacheEntryOutput{Key: key, Record: rec})
		},
	}
}

func newCacheDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <address>",
		Short: "Remove the cached record of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			key, err := addressKey(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err = a.store.Delete(ctx, key); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)

			return err
		},
	}
}

func newCacheListCmd() *cobra.Command {
	var (
		flagged   bool
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			var filter repository.Filter
			if flagged {
				filter = a.scanner.Filter(maintenance.ScanOptions{ConfidenceThreshold: threshold})
			}

			entries, err := a.store.List(ctx, filter)
			if err != nil {
				return err
			}

			out := make([]cacheEntryOutput, 0, len(entries))
			for _, entry := range entries {
				view := cacheEntryOutput{Key: entry.Key, Record: entry.Record}
				if entry.Err != nil {
					view.Error = entry.Err.Error()
				}
				out = append(out, view)
			}

			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&flagged, "flagged", false, "only records a scan would flag")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "confidence threshold for --flagged (default: configured threshold)")

	return cmd
}
