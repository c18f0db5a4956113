package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/siteslot/siteslot/internal/planformat"
)

func publishCmd() *cobra.Command {
	var (
		activate bool
		version  string
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the built website to the next slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cwd, err := newPublisher(cmd.Root().Version)
			if err != nil {
				return err
			}
			out, err := p.Run(cmd.Context(), request(cwd, version, activate))
			if err != nil {
				return err
			}
			if out.Skipped() {
				return nil
			}
			evt := log.Info().Str("slot", out.Slot).Str("version", out.Version).Str("run_id", out.RunID)
			if out.Tag != "" {
				evt = evt.Str("tag", out.Tag)
			}
			if out.ActivatedRecord != "" {
				evt = evt.Str("record", out.ActivatedRecord)
			}
			evt.Msg("Publish complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&activate, "activate", false, "Point the zone record at the slot after publishing")
	cmd.Flags().StringVar(&version, "release-version", "", "Release version (default: version field of package.json)")
	return cmd
}

func planCmd() *cobra.Command {
	var (
		activate bool
		version  string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what publish would do without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cwd, err := newPublisher(cmd.Root().Version)
			if err != nil {
				return err
			}
			plan, err := p.Plan(cmd.Context(), request(cwd, version, activate))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), planformat.Format(plan))
			log.Debug().Msg(planformat.FormatSummary(plan))
			return nil
		},
	}
	cmd.Flags().BoolVar(&activate, "activate", false, "Include the DNS switch in the plan")
	cmd.Flags().StringVar(&version, "release-version", "", "Release version (default: version field of package.json)")
	return cmd
}
