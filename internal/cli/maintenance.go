package cli

import (
	"fmt"
	"os"

	"github.com/UnknownOlympus/pinpoint/internal/maintenance"
	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type scanOutput struct {
	Report string            `json:"report"`
	RunID  string            `json:"runId"`
	Totals models.ScanTotals `json:"totals"`
}

type regeocodeOutput struct {
	Summary   string `json:"summary"`
	RunID     string `json:"runId"`
	DryRun    bool   `json:"dryRun"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Updated   int    `json:"updated"`
	Suggested int    `json:"suggested"`
	Errors    int    `json:"errors"`
}

func newScanCmd() *cobra.Command {
	var (
		bbox      string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Audit the geocode cache and write a scan report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var opts maintenance.ScanOptions
			if bbox != "" {
				parsed, err := models.ParseBBox(bbox)
				if err != nil {
					return err
				}
				opts.BBox = &parsed
			}
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
			}
			opts.ConfidenceThreshold = threshold

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			report, path, err := a.scanner.Run(ctx, opts)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), scanOutput{Report: path, RunID: report.RunID, Totals: report.Totals})
		},
	}

	cmd.Flags().StringVar(&bbox, "bbox", "", "region as west,south,east,north (default: configured region)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "confidence threshold (default: configured threshold)")

	return cmd
}

func newRegeocodeCmd() *cobra.Command {
	var (
		opts       maintenance.RegeocodeOptions
		allowWrite bool
	)

	cmd := &cobra.Command{
		Use:   "regeocode",
		Short: "Re-geocode the addresses flagged by a scan report",
		Long: `Re-geocode the addresses flagged by a scan report, the latest one by default.

A chosen point is only replaced by a rooftop candidate, or by an in-region candidate
at or above the confidence threshold. Weaker answers are stored as suggestions.
Writes must be allowed by PINPOINT_REGEOCODE_ALLOW or --allow-write, unless --dry-run is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			opts.AllowWrite = a.cfg.Regeocode.AllowWrite
			if cmd.Flags().Changed("allow-write") {
				opts.AllowWrite = allowWrite
			}
			if len(opts.ProviderOrder) == 0 {
				opts.ProviderOrder = a.cfg.Regeocode.ProviderOrder
			}
			if !cmd.Flags().Changed("delay") {
				opts.Delay = a.cfg.Regeocode.Delay
			}

			var bar *progressbar.ProgressBar
			if isatty.IsTerminal(os.Stderr.Fd()) {
				opts.Progress = func(done, total int) {
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetDescription("Re-geocoding"),
							progressbar.OptionSetWriter(os.Stderr),
							progressbar.OptionShowCount(),
							progressbar.OptionClearOnFinish(),
						)
					}
					_ = bar.Set(done)
				}
			}

			summary, path, err := a.regeocoder.Run(ctx, opts)
			if bar != nil {
				_ = bar.Finish()
			}
			if summary == nil {
				return err
			}

			printErr := printJSON(cmd.OutOrStdout(), regeocodeOutput{
				Summary:   path,
				RunID:     summary.RunID,
				DryRun:    summary.DryRun,
				Total:     summary.Total,
				Processed: summary.Processed,
				Updated:   summary.Updated,
				Suggested: summary.Suggested,
				Errors:    summary.Errors,
			})
			if err != nil {
				return err
			}

			return printErr
		},
	}

	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "scan report to work from (default: the latest)")
	cmd.Flags().StringSliceVar(&opts.ProviderOrder, "providers", nil, "providers to ask, in order (default: configured order)")
	cmd.Flags().BoolVar(&allowWrite, "allow-write", false, "allow cache writes (default: PINPOINT_REGEOCODE_ALLOW)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "query providers and write the summary, but never the cache")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 0, "pause between addresses (default: PINPOINT_REGEOCODE_DELAY)")

	return cmd
}
