package publish

import (
	"context"
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/siteslot/siteslot/internal/config"
	"github.com/siteslot/siteslot/internal/slot"
	"github.com/siteslot/siteslot/internal/tagname"
)

// resolution is the slot decision for one release.
type resolution struct {
	Version  semver.Version
	Slot     string // empty when the release is skipped
	Tag      string // empty when no tag is recorded
	Previous []string
	Zone     *config.Zone // set for MultipleIDs
}

func (r resolution) skipped() bool {
	return r.Slot == ""
}

// currentVersion returns the override when set, else the package.json
// version under the code directory.
func (p *Publisher) currentVersion(req Request) (semver.Version, error) {
	if req.Version != "" {
		v, err := semver.Parse(req.Version)
		if err != nil {
			return semver.Version{}, fmt.Errorf("publish: version %q: %w", req.Version, err)
		}
		return v, nil
	}
	v, err := config.PackageVersion(p.Infra.CodeDir(req.Cwd))
	if err != nil {
		return semver.Version{}, fmt.Errorf("publish: %w", err)
	}
	return v, nil
}

func (p *Publisher) resolve(ctx context.Context, req Request) (resolution, error) {
	version, err := p.currentVersion(req)
	if err != nil {
		return resolution{}, err
	}
	res := resolution{Version: version}

	switch info := p.Infra.IDInfo.Value.(type) {
	case config.SingleID:
		res.Slot = info.ID
	case config.SingleIDWithTags:
		if err := p.pick(ctx, &res, info.TagInfo, []string{info.ID}); err != nil {
			return resolution{}, err
		}
	case config.MultipleIDs:
		if err := p.pick(ctx, &res, info.TagInfo, info.IDList); err != nil {
			return resolution{}, err
		}
		zone := info.Zone
		res.Zone = &zone
	default:
		return resolution{}, fmt.Errorf("publish: unsupported idInfo %T", info)
	}

	if req.Activate && res.Zone == nil {
		return resolution{}, fmt.Errorf("publish: activation needs idInfo with multiple ids and a zone")
	}
	return res, nil
}

func (p *Publisher) pick(ctx context.Context, res *resolution, scheme tagname.Scheme, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("publish: at least one deployment slot id is required")
	}
	tags, err := p.Repo.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	d := slot.Pick(scheme, ids, tags, res.Version)
	res.Previous = d.PreviousVersions
	if !d.Chosen() {
		return nil
	}
	res.Slot = d.ID
	res.Tag = tagname.Encode(tagname.Tag{Scheme: scheme, ID: d.ID, Version: res.Version.String()})
	return nil
}
