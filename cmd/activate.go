package cmd

import (
	"github.com/spf13/cobra"
)

func activateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <slot>",
		Short: "Point the zone record at a slot's CDN endpoint",
		Long: `Point the configured zone record (default "www") at the CDN endpoint of
the given slot. Only available when idInfo lists multiple ids and a zone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := newPublisher(cmd.Root().Version)
			if err != nil {
				return err
			}
			_, err = p.Activate(cmd.Context(), args[0])
			return err
		},
	}
}
