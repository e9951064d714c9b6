package cli

import (
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/UnknownOlympus/pinpoint/internal/ranking"
	"github.com/UnknownOlympus/pinpoint/internal/service"
	"github.com/spf13/cobra"
)

type resolveOutput struct {
	Address string        `json:"address"`
	Point   *models.Point `json:"point"`
}

type dryRunOutput struct {
	Address    string                   `json:"address"`
	Normalized models.NormalizedAddress `json:"normalized"`
	Candidates []models.Candidate       `json:"candidates"`
	Chosen     *models.Point            `json:"chosen"`
}

func newResolveCmd() *cobra.Command {
	var (
		rc        service.ResolveContext
		dryRun    bool
		providers []string
	)

	cmd := &cobra.Command{
		Use:   "resolve <address>",
		Short: "Resolve one address",
		Long: `Resolve one address the way the service does.

With --dry-run the cache and the overrides are left alone: every selected provider
is asked, and the full scored candidate list is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if !dryRun {
				point := a.resolver.Resolve(ctx, args[0], rc)
				return printJSON(cmd.OutOrStdout(), resolveOutput{Address: args[0], Point: point})
			}

			normalized, candidates := a.resolver.Candidates(ctx, args[0], rc, providers)
			if candidates == nil {
				candidates = []models.Candidate{}
			}

			return printJSON(cmd.OutOrStdout(), dryRunOutput{
				Address:    args[0],
				Normalized: normalized,
				Candidates: candidates,
				Chosen:     ranking.Select(candidates, ranking.Overrides{}),
			})
		},
	}

	cmd.Flags().StringVar(&rc.JobID, "job", "", "job identifier, selects job overrides")
	cmd.Flags().StringVar(&rc.Zip, "zip", "", "ZIP code known independently of the address")
	cmd.Flags().BoolVar(&rc.ForceRefresh, "force", false, "skip the cache and ask the providers again")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print every scored candidate without touching the cache")
	cmd.Flags().StringSliceVar(&providers, "provider", nil, "providers to ask in a dry run (default: the resolve order)")

	return cmd
}
