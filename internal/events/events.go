// Package events carries the notifications a publish run produces and a
// listener that writes them to a zerolog logger.
package events

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/siteslot/siteslot/internal/progress"
)

// Event is one notification. The set of events is closed.
type Event interface {
	event()
}

// SlotChosen reports the slot a release will be published to.
type SlotChosen struct {
	Slot    string
	Version string
}

// SlotSkipped reports that a release is not published.
type SlotSkipped struct {
	Version          string
	PreviousVersions []string
}

// PathExcluded reports a build path left out of the bundle. Directories
// end in "/".
type PathExcluded struct {
	Path string
}

// FilesUploaded reports every key written to a slot's store.
type FilesUploaded struct {
	Store string
	Keys  []string
}

// FilesDeleted reports the orphaned keys removed from a slot's store.
type FilesDeleted struct {
	Store string
	Keys  []string
}

// CDNPurgeStarting is emitted before the purge request is sent.
type CDNPurgeStarting struct {
	Endpoint     string
	ContentPaths []string
}

// CDNPurgeProgress is emitted on every poll tick while the purge runs.
type CDNPurgeProgress struct {
	Endpoint     string
	ContentPaths []string
	Elapsed      time.Duration
}

// CDNPurgeCompleted is emitted once the purge operation settles.
type CDNPurgeCompleted struct {
	Endpoint     string
	ContentPaths []string
	Success      bool
}

// TagCreating is emitted before the release tag is created.
type TagCreating struct {
	Tag string
}

// TagPushed is emitted after the release tag reached the remote.
type TagPushed struct {
	Tag    string
	Output string
}

// DNSActivated reports that a CNAME now points at a slot's endpoint.
type DNSActivated struct {
	Record string
	Target string
}

// HTTPSProgress is emitted while a custom domain's HTTPS state settles.
type HTTPSProgress struct {
	Domain  string
	State   string
	Elapsed time.Duration
}

// HTTPSCompleted reports the final HTTPS provisioning state of a domain.
type HTTPSCompleted struct {
	Domain string
	State  string
}

func (SlotChosen) event()        {}
func (SlotSkipped) event()       {}
func (PathExcluded) event()      {}
func (FilesUploaded) event()     {}
func (FilesDeleted) event()      {}
func (CDNPurgeStarting) event()  {}
func (CDNPurgeProgress) event()  {}
func (CDNPurgeCompleted) event() {}
func (TagCreating) event()       {}
func (TagPushed) event()         {}
func (DNSActivated) event()      {}
func (HTTPSProgress) event()     {}
func (HTTPSCompleted) event()    {}

// Listener receives events synchronously.
type Listener func(Event)

// Emitter fans events out to its listeners in registration order.
type Emitter struct {
	listeners []Listener
}

// NewEmitter returns an Emitter delivering to the given listeners.
func NewEmitter(listeners ...Listener) *Emitter {
	return &Emitter{listeners: listeners}
}

// Emit delivers ev to every listener. A nil Emitter drops the event.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	for _, l := range e.listeners {
		l(ev)
	}
}

// Progress events are logged only on these boundaries.
const (
	PurgeLogPeriod = 10 * time.Second
	HTTPSLogPeriod = time.Minute
)

// LogListener writes events to log. Purge progress is logged on whole
// PurgeLogPeriod boundaries and HTTPS progress on whole HTTPSLogPeriod
// boundaries.
func LogListener(log zerolog.Logger) Listener {
	purgeGate := progress.EveryWhole(PurgeLogPeriod)
	httpsGate := progress.EveryWhole(HTTPSLogPeriod)

	return func(ev Event) {
		switch ev := ev.(type) {
		case SlotChosen:
			log.Info().Str("slot", ev.Slot).Str("version", ev.Version).Msg("Publishing release")
		case SlotSkipped:
			log.Info().Str("version", ev.Version).Strs("previous_versions", ev.PreviousVersions).
				Msg("Skipping publish: release is not newer than the newest published version")
		case PathExcluded:
			log.Debug().Str("path", ev.Path).Msg("Excluded from upload")
		case FilesUploaded:
			log.Info().Str("store", ev.Store).Int("count", len(ev.Keys)).Msgf("Uploaded %d files", len(ev.Keys))
		case FilesDeleted:
			log.Info().Str("store", ev.Store).Int("count", len(ev.Keys)).Msgf("Deleted %d files", len(ev.Keys))
		case CDNPurgeStarting:
			log.Info().Str("endpoint", ev.Endpoint).Strs("paths", ev.ContentPaths).Msg("Starting CDN endpoint purge")
		case CDNPurgeProgress:
			if purgeGate(ev.Elapsed) {
				log.Info().Str("endpoint", ev.Endpoint).Msgf("Waiting for CDN endpoint purge... (~%ds)", int(ev.Elapsed.Round(time.Second).Seconds()))
			}
		case CDNPurgeCompleted:
			evt := log.Info()
			msg := "Completed CDN endpoint purge successfully"
			if !ev.Success {
				evt = log.Warn()
				msg = "Completed CDN endpoint purge unsuccessfully"
			}
			evt.Str("endpoint", ev.Endpoint).Msg(msg)
		case TagCreating:
			log.Info().Str("tag", ev.Tag).Msg("Creating release tag")
		case TagPushed:
			log.Info().Str("tag", ev.Tag).Str("output", ev.Output).Msg("Pushed release tag")
		case DNSActivated:
			log.Info().Str("record", ev.Record).Str("target", ev.Target).Msg("Activated slot")
		case HTTPSProgress:
			if httpsGate(ev.Elapsed) {
				log.Info().Str("domain", ev.Domain).Str("state", ev.State).
					Msgf("Waiting for custom domain HTTPS... (~%dmin)", int(ev.Elapsed.Round(time.Second)/time.Minute))
			}
		case HTTPSCompleted:
			log.Info().Str("domain", ev.Domain).Str("state", ev.State).Msg("Custom domain HTTPS settled")
		}
	}
}
