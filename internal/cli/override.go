package cli

import (
	"errors"

	"github.com/UnknownOlympus/pinpoint/internal/models"
	"github.com/spf13/cobra"
)

var errOverrideTarget = errors.New("set exactly one of --address and --job")

func newOverrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage manual point corrections",
	}

	cmd.AddCommand(newOverrideSetCmd(), newOverrideListCmd())

	return cmd
}

func newOverrideSetCmd() *cobra.Command {
	var (
		addr, jobID string
		lat, lng    float64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Pin an address or a job to a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (addr == "") == (jobID == "") {
				return errOverrideTarget
			}

			kind, key := models.OverrideByJob, jobID
			if addr != "" {
				var err error
				if key, err = addressKey(addr); err != nil {
					return err
				}
				kind = models.OverrideByAddress
			}

			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			point := models.OverridePoint(lat, lng)
			if err = a.overrides.Set(kind, key, point); err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), models.Override{Kind: kind, Key: key, Point: point})
		},
	}

	cmd.Flags().StringVar(&addr, "address", "", "address to pin")
	cmd.Flags().StringVar(&jobID, "job", "", "job identifier to pin")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func newOverrideListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			overrides, err := a.overrides.List()
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), overrides)
		},
	}
}
