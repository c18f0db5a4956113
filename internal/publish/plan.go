package publish

import (
	"context"
	"fmt"

	"github.com/siteslot/siteslot/internal/cdn"
	"github.com/siteslot/siteslot/internal/naming"
	"github.com/siteslot/siteslot/internal/planformat"
)

// Plan resolves the slot and diffs the build against the slot's store
// without writing anything.
func (p *Publisher) Plan(ctx context.Context, req Request) (*planformat.Plan, error) {
	res, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	plan := &planformat.Plan{
		Version:          res.Version.String(),
		Slot:             res.Slot,
		Tag:              res.Tag,
		PreviousVersions: res.Previous,
	}
	if res.skipped() {
		return plan, nil
	}

	names := naming.ForSlot(p.Infra.Organization, p.Infra.Environment, res.Slot)
	tgt, err := p.Backend.Store(names)
	if err != nil {
		return nil, err
	}
	b, err := p.scan(req)
	if err != nil {
		return nil, err
	}
	changes, err := p.Engine.Plan(ctx, tgt, b)
	if err != nil {
		return nil, err
	}

	plan.Store = tgt.Name()
	plan.BundleHash = b.BundleHash
	plan.SourceDir = b.SourceDir
	plan.FileChanges = changes
	plan.Steps = append(plan.Steps, planformat.Step{
		Name:   "purge " + names.CDNEndpoint,
		Action: planformat.ActionUpdate,
		Detail: cdn.PurgeAll,
	})
	if res.Tag != "" {
		plan.Steps = append(plan.Steps, planformat.Step{
			Name:   "push tag " + res.Tag,
			Action: planformat.ActionCreate,
		})
	}
	if req.Activate {
		plan.Steps = append(plan.Steps, planformat.Step{
			Name:   fmt.Sprintf("activate %s.%s", res.Zone.Record(), res.Zone.Name),
			Action: planformat.ActionUpdate,
			Detail: "CNAME " + naming.EndpointHost(names.CDNEndpoint),
		})
	}
	return plan, nil
}
