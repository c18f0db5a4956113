package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/siteslot/siteslot/internal/engine"
	"github.com/siteslot/siteslot/internal/naming"
	"github.com/siteslot/siteslot/internal/publish"
	"github.com/siteslot/siteslot/internal/runid"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [slot...]",
		Short: "Inspect the release manifest and files stored in each slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := loadInfra()
			if err != nil {
				return err
			}
			az, err := loadAzure()
			if err != nil {
				return err
			}
			backend := az.backend(infra)
			eng := newEngine()

			ids := args
			if len(ids) == 0 {
				ids = infra.IDInfo.Value.IDs()
			}
			for _, id := range ids {
				if err := infra.CheckSlot(id); err != nil {
					return err
				}
			}
			active, err := publish.ActiveSlot(cmd.Context(), backend, infra)
			if err != nil {
				return err
			}
			statuses := make([]*engine.SlotStatus, 0, len(ids))
			for _, id := range ids {
				tgt, err := backend.Store(naming.ForSlot(infra.Organization, infra.Environment, id))
				if err != nil {
					return err
				}
				st, err := eng.Inspect(cmd.Context(), tgt, "")
				if err != nil {
					return err
				}
				statuses = append(statuses, st)
			}
			renderStatus(cmd.OutOrStdout(), ids, active, statuses)
			return nil
		},
	}
}

// renderStatus prints one row per slot. active marks the slot the zone
// record points at; it is empty when there is no zone.
func renderStatus(w io.Writer, ids []string, active string, statuses []*engine.SlotStatus) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Slot", "Active", "Store", "Version", "Tag", "Published", "Health"})
	for i, st := range statuses {
		version, tag, published := "-", "-", "-"
		if st.Manifest != nil {
			version = st.Manifest.Version
			if st.Manifest.Tag != "" {
				tag = st.Manifest.Tag
			}
			if at, err := runid.Parse(st.Manifest.RunID); err == nil {
				published = at.Format(time.RFC3339)
			}
		}
		mark := ""
		if ids[i] == active {
			mark = "*"
		}
		tw.AppendRow(table.Row{ids[i], mark, st.TargetName, version, tag, published, health(st)})
	}
	tw.Render()
}

func health(st *engine.SlotStatus) string {
	switch {
	case st.MissingManifest:
		return "empty"
	case !st.Healthy:
		return fmt.Sprintf("%d file(s) missing", len(st.MissingFiles))
	case len(st.ExtraFiles) > 0:
		return "ok (extra files)"
	default:
		return "ok"
	}
}
