package cmd

import (
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/siteslot/siteslot/internal/config"
	"github.com/siteslot/siteslot/internal/slot"
	"github.com/siteslot/siteslot/internal/tagname"
)

func slotsCmd() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show the release history per slot and where the next release goes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := workDir()
			if err != nil {
				return err
			}
			infra, err := loadInfra()
			if err != nil {
				return err
			}
			current, err := releaseVersion(infra, cwd, version)
			if err != nil {
				return err
			}

			info := infra.IDInfo.Value
			scheme, ok := info.TagScheme()
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "release %s goes to slot %s (no tag history kept)\n", current, info.IDs()[0])
				return nil
			}

			repo, err := openRepo(infra, cwd)
			if err != nil {
				return err
			}
			tags, err := repo.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			ids := info.IDs()
			renderSlots(cmd.OutOrStdout(), scheme, slot.BuildHistory(scheme, ids, tags), current, slot.Pick(scheme, ids, tags, current))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "release-version", "", "Release version (default: version field of package.json)")
	return cmd
}

// releaseVersion returns override when set, else the package.json version.
func releaseVersion(infra *config.InfraConfig, cwd, override string) (semver.Version, error) {
	if override != "" {
		return semver.Parse(override)
	}
	return config.PackageVersion(infra.CodeDir(cwd))
}

// renderSlots prints the history newest first followed by the decision for
// current.
func renderSlots(w io.Writer, scheme tagname.Scheme, h slot.History, current semver.Version, d slot.Decision) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Version", "Slot", "Tag"})
	for _, v := range h.Versions() {
		tw.AppendRow(table.Row{v, h[v], tagname.Encode(tagname.Tag{Scheme: scheme, ID: h[v], Version: v})})
	}
	if d.Chosen() {
		tw.AppendFooter(table.Row{current.String(), d.ID, "next"})
	} else {
		tw.AppendFooter(table.Row{current.String(), "-", "skipped"})
	}
	tw.Render()
}
