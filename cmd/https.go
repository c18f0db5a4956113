package cmd

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/siteslot/siteslot/internal/cdn"
	"github.com/siteslot/siteslot/internal/config"
	"github.com/siteslot/siteslot/internal/events"
	"github.com/siteslot/siteslot/internal/naming"
	"github.com/siteslot/siteslot/internal/progress"
)

func httpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "https",
		Short: "Manage CDN-managed HTTPS on a slot's custom domain",
	}
	cmd.AddCommand(httpsChangeCmd("enable", "Enable custom domain HTTPS and wait until it is provisioned", true))
	cmd.AddCommand(httpsChangeCmd("disable", "Disable custom domain HTTPS and wait until it is removed", false))
	return cmd
}

func httpsChangeCmd(verb, short string, enable bool) *cobra.Command {
	var (
		slotID string
		domain string
	)
	cmd := &cobra.Command{
		Use:   verb,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := loadInfra()
			if err != nil {
				return err
			}
			az, err := loadAzure()
			if err != nil {
				return err
			}
			slotID, err = httpsSlot(infra, slotID)
			if err != nil {
				return err
			}
			names := naming.ForSlot(infra.Organization, infra.Environment, slotID)
			mgr, err := cdn.NewHTTPSManager(az.pipeline.Azure.SubscriptionID, az.cred, cdn.Endpoint{
				ResourceGroup: infra.ResourceGroupName,
				Profile:       names.CDNProfile,
				Name:          names.CDNEndpoint,
			})
			if err != nil {
				return err
			}
			return setHTTPS(cmd.Context(), mgr, newEmitter(), domain, enable)
		},
	}
	cmd.Flags().StringVar(&slotID, "slot", "", "Slot whose endpoint owns the domain (default: first configured id)")
	cmd.Flags().StringVar(&domain, "domain", "", "Custom domain resource name on the endpoint")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

// httpsSlot returns the slot named by --slot, or the first configured id.
func httpsSlot(infra *config.InfraConfig, slotID string) (string, error) {
	if slotID == "" {
		return infra.IDInfo.Value.IDs()[0], nil
	}
	if err := infra.CheckSlot(slotID); err != nil {
		return "", fmt.Errorf("--slot: %w", err)
	}
	return slotID, nil
}

// httpsSetter changes a custom domain's HTTPS state.
type httpsSetter interface {
	SetHTTPS(ctx context.Context, domain string, enable bool, onState func(state, substate string)) error
}

// setHTTPS runs the change with a one second tick, reporting the latest
// polled state on every tick.
func setHTTPS(ctx context.Context, mgr httpsSetter, em *events.Emitter, domain string, enable bool) error {
	var last atomic.Value
	last.Store("")
	_, err := progress.Run(ctx, func(ctx context.Context) error {
		return mgr.SetHTTPS(ctx, domain, enable, func(state, _ string) {
			last.Store(state)
		})
	}, time.Second, func(elapsed time.Duration) {
		em.Emit(events.HTTPSProgress{Domain: domain, State: last.Load().(string), Elapsed: elapsed})
	})
	if err != nil {
		return err
	}
	em.Emit(events.HTTPSCompleted{Domain: domain, State: cdn.TargetState(enable)})
	return nil
}
