// Package publish runs a release end to end: it picks the slot, syncs the
// build into the slot's store, purges the slot's CDN endpoint, records the
// decision as a git tag, and optionally switches DNS to the slot.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/siteslot/siteslot/internal/bundle"
	"github.com/siteslot/siteslot/internal/cdn"
	"github.com/siteslot/siteslot/internal/config"
	"github.com/siteslot/siteslot/internal/engine"
	"github.com/siteslot/siteslot/internal/events"
	"github.com/siteslot/siteslot/internal/gitref"
	"github.com/siteslot/siteslot/internal/naming"
	"github.com/siteslot/siteslot/internal/progress"
	"github.com/siteslot/siteslot/internal/runid"
)

// DefaultTickInterval is how often purge progress is reported.
const DefaultTickInterval = time.Second

// Publisher holds the collaborators shared by every release.
type Publisher struct {
	Infra   *config.InfraConfig
	Repo    gitref.Repo
	Backend Backend
	Engine  *engine.Engine
	Events  *events.Emitter

	ToolVersion  string
	TickInterval time.Duration
}

// Request describes one invocation.
type Request struct {
	// Cwd anchors the relative code directory.
	Cwd string
	// Version overrides the package.json version when set.
	Version string
	// Excludes are doublestar patterns left out of the upload.
	Excludes []string
	// Activate points the zone record at the chosen slot after publishing.
	Activate bool
}

// scan reads the build directory, reporting every excluded path.
func (p *Publisher) scan(req Request) (*bundle.Bundle, error) {
	b, err := bundle.Scan(p.Infra.BuildDir(req.Cwd), bundle.Options{
		Excludes: req.Excludes,
		OnExcluded: func(rel string) {
			p.Events.Emit(events.PathExcluded{Path: rel})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	return b, nil
}

// Outcome reports what a run did.
type Outcome struct {
	Version          string
	Slot             string // empty when skipped
	Tag              string
	PreviousVersions []string
	RunID            string
	Result           *engine.PublishResult
	ActivatedRecord  string // FQDN, empty unless activated
}

// Skipped reports whether the release was not published.
func (o *Outcome) Skipped() bool {
	return o.Slot == ""
}

func (p *Publisher) tickInterval() time.Duration {
	if p.TickInterval > 0 {
		return p.TickInterval
	}
	return DefaultTickInterval
}

// Run publishes the release. Any failing step aborts the remaining steps;
// nothing already done is rolled back.
func (p *Publisher) Run(ctx context.Context, req Request) (*Outcome, error) {
	res, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Version:          res.Version.String(),
		Slot:             res.Slot,
		Tag:              res.Tag,
		PreviousVersions: res.Previous,
	}
	if res.skipped() {
		p.Events.Emit(events.SlotSkipped{Version: out.Version, PreviousVersions: res.Previous})
		return out, nil
	}
	p.Events.Emit(events.SlotChosen{Slot: res.Slot, Version: out.Version})

	names := naming.ForSlot(p.Infra.Organization, p.Infra.Environment, res.Slot)

	// Content sync.
	tgt, err := p.Backend.Store(names)
	if err != nil {
		return out, err
	}
	b, err := p.scan(req)
	if err != nil {
		return out, err
	}
	// Deploys from an exported tree have no commit to record.
	commit, _ := p.Repo.Head(ctx)

	out.RunID = runid.New()
	out.Result, err = p.Engine.Publish(ctx, tgt, engine.PublishInput{
		Bundle:      b,
		Slot:        res.Slot,
		Version:     out.Version,
		Tag:         res.Tag,
		RunID:       out.RunID,
		ToolVersion: p.ToolVersion,
		Commit:      commit,
		OnUploaded: func(keys []string) {
			p.Events.Emit(events.FilesUploaded{Store: tgt.Name(), Keys: keys})
		},
		OnDeleted: func(keys []string) {
			p.Events.Emit(events.FilesDeleted{Store: tgt.Name(), Keys: keys})
		},
	})
	if err != nil {
		return out, err
	}

	// CDN purge.
	if err := p.purge(ctx, names); err != nil {
		return out, err
	}

	// Release tag.
	if res.Tag != "" {
		p.Events.Emit(events.TagCreating{Tag: res.Tag})
		output, err := p.Repo.PushTag(ctx, res.Tag, tagMessage(out.Version, res.Slot, out.RunID))
		if err != nil {
			return out, fmt.Errorf("publish: %w", err)
		}
		p.Events.Emit(events.TagPushed{Tag: res.Tag, Output: output})
	}

	// DNS switch.
	if req.Activate {
		fqdn, err := p.activate(ctx, *res.Zone, names)
		if err != nil {
			return out, err
		}
		out.ActivatedRecord = fqdn
	}
	return out, nil
}

func tagMessage(version, slot, runID string) string {
	return fmt.Sprintf("Release %s published to slot %s by %s", version, slot, runID)
}

func (p *Publisher) purge(ctx context.Context, names naming.Names) error {
	purger, err := p.Backend.Purger(names)
	if err != nil {
		return err
	}
	paths := []string{cdn.PurgeAll}
	p.Events.Emit(events.CDNPurgeStarting{Endpoint: names.CDNEndpoint, ContentPaths: paths})
	ok, err := progress.Run(ctx, func(ctx context.Context) error {
		return purger.Purge(ctx, paths)
	}, p.tickInterval(), func(elapsed time.Duration) {
		p.Events.Emit(events.CDNPurgeProgress{Endpoint: names.CDNEndpoint, ContentPaths: paths, Elapsed: elapsed})
	})
	p.Events.Emit(events.CDNPurgeCompleted{Endpoint: names.CDNEndpoint, ContentPaths: paths, Success: ok})
	if err != nil {
		return fmt.Errorf("publish: purge %s: %w", names.CDNEndpoint, err)
	}
	return nil
}

func (p *Publisher) activate(ctx context.Context, zone config.Zone, names naming.Names) (string, error) {
	a, err := p.Backend.Activator(zone)
	if err != nil {
		return "", err
	}
	host := naming.EndpointHost(names.CDNEndpoint)
	if err := a.Activate(ctx, zone.Record(), host); err != nil {
		return "", fmt.Errorf("publish: activate: %w", err)
	}
	fqdn := a.FQDN(zone.Record())
	p.Events.Emit(events.DNSActivated{Record: fqdn, Target: host})
	return fqdn, nil
}

// Activate points the zone record at slot's endpoint without publishing.
func (p *Publisher) Activate(ctx context.Context, slotID string) (string, error) {
	m, ok := p.Infra.IDInfo.Value.(config.MultipleIDs)
	if !ok {
		return "", fmt.Errorf("publish: activation needs idInfo with multiple ids and a zone")
	}
	if err := p.Infra.CheckSlot(slotID); err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	return p.activate(ctx, m.Zone, naming.ForSlot(p.Infra.Organization, p.Infra.Environment, slotID))
}

// ActiveSlot returns the slot whose endpoint the zone record points at. It
// returns "" when the layout has no zone or the record points elsewhere.
func ActiveSlot(ctx context.Context, backend Backend, infra *config.InfraConfig) (string, error) {
	m, ok := infra.IDInfo.Value.(config.MultipleIDs)
	if !ok {
		return "", nil
	}
	a, err := backend.Activator(m.Zone)
	if err != nil {
		return "", err
	}
	host, err := a.Current(ctx, m.Zone.Record())
	if err != nil {
		return "", fmt.Errorf("publish: active slot: %w", err)
	}
	host = strings.TrimSuffix(host, ".")
	for _, id := range m.IDList {
		if naming.EndpointHost(naming.CDNEndpoint(infra.Organization, infra.Environment, id)) == host {
			return id, nil
		}
	}
	return "", nil
}
