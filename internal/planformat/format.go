// Package planformat renders a publish plan for a terminal: the slot a
// release goes to, the file diff against the slot's store, and the remote
// steps that follow the upload.
package planformat

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Action is the kind of change a file or step makes.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"
	ActionNoop    Action = "no-op"
)

var symbols = map[Action]string{
	ActionCreate:  "+",
	ActionUpdate:  "~",
	ActionDestroy: "-",
	ActionNoop:    " ",
}

func (a Action) symbol() string {
	if s, ok := symbols[a]; ok {
		return s
	}
	return "?"
}

// FileChange is one file of the diff between a bundle and a store.
type FileChange struct {
	RelPath   string
	Action    Action
	OldHash   string // empty on create or when the old content is unknown
	NewHash   string // empty on destroy
	SizeBytes int64
}

// Step is one remote action a publish performs after the file sync.
type Step struct {
	Name   string
	Action Action
	Detail string
}

// Plan is everything a publish would do.
type Plan struct {
	Version          string
	Slot             string // empty when the release is skipped
	Tag              string // empty when no tag is recorded
	PreviousVersions []string
	Store            string
	RunID            string
	BundleHash       string
	SourceDir        string
	FileChanges      []FileChange
	Steps            []Step
}

// Skipped reports whether the plan publishes nothing.
func (p *Plan) Skipped() bool {
	return p.Slot == ""
}

// files groups the file changes by action, each group sorted by path.
func (p *Plan) files() map[Action][]FileChange {
	groups := lo.GroupBy(p.FileChanges, func(f FileChange) Action { return f.Action })
	for _, g := range groups {
		slices.SortFunc(g, func(a, b FileChange) int { return strings.Compare(a.RelPath, b.RelPath) })
	}
	return groups
}

// Format renders p for display.
func Format(p *Plan) string {
	var b strings.Builder
	if p.Skipped() {
		writeSkipped(&b, p)
	} else {
		writeHeader(&b, p)
		writeFiles(&b, p.files())
		writeSteps(&b, p.Steps)
	}
	return b.String()
}

func writeSkipped(w io.Writer, p *Plan) {
	fmt.Fprintf(w, "  # release %s will be skipped\n", p.Version)
	if len(p.PreviousVersions) > 0 {
		fmt.Fprintf(w, "  # newest released: %s\n", p.PreviousVersions[0])
		fmt.Fprintf(w, "  # known releases:  %s\n", strings.Join(p.PreviousVersions, ", "))
	}
}

func writeHeader(w io.Writer, p *Plan) {
	fmt.Fprintf(w, "  # release %s will be published to slot %q\n", p.Version, p.Slot)
	fields := []struct{ label, value string }{
		{"store", p.Store},
		{"tag", p.Tag},
		{"run_id", p.RunID},
		{"bundle_hash", p.BundleHash},
		{"source_dir", p.SourceDir},
	}
	for _, f := range fields {
		if f.value != "" || f.label == "bundle_hash" {
			fmt.Fprintf(w, "  # %-12s %s\n", f.label+":", f.value)
		}
	}
	fmt.Fprintln(w)
}

func writeFiles(w io.Writer, groups map[Action][]FileChange) {
	adds, changes, deletes := groups[ActionCreate], groups[ActionUpdate], groups[ActionDestroy]
	if len(adds)+len(changes)+len(deletes) == 0 {
		fmt.Fprint(w, "  No file changes.\n\n")
		return
	}
	fmt.Fprintln(w, "  File changes:")
	for _, group := range [][]FileChange{adds, changes, deletes} {
		for _, f := range group {
			fmt.Fprintf(w, "    %s %s", f.Action.symbol(), f.RelPath)
			if f.NewHash != "" {
				fmt.Fprintf(w, "  (%s)", shortHash(f.NewHash))
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "\n  %d to add, %d to change, %d to destroy, %d unchanged.\n\n",
		len(adds), len(changes), len(deletes), len(groups[ActionNoop]))
}

func writeSteps(w io.Writer, steps []Step) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintln(w, "  Steps:")
	for _, s := range steps {
		fmt.Fprintf(w, "    %s %s", s.Action.symbol(), s.Name)
		if s.Detail != "" {
			fmt.Fprintf(w, " (%s)", s.Detail)
		}
		fmt.Fprintln(w)
	}
}

// FormatSummary returns a one-line summary of p.
func FormatSummary(p *Plan) string {
	if p.Skipped() {
		return fmt.Sprintf("release %s: skipped", p.Version)
	}
	g := p.files()
	return fmt.Sprintf("release %s -> %s: %d file(s) to add, %d to change, %d to destroy, %d step(s)",
		p.Version, p.Slot, len(g[ActionCreate]), len(g[ActionUpdate]), len(g[ActionDestroy]), len(p.Steps))
}

// shortHash keeps the digest algorithm and eight hex characters.
func shortHash(h string) string {
	algo, hex, ok := strings.Cut(h, ":")
	if !ok {
		return h[:min(len(h), 15)]
	}
	return algo + ":" + hex[:min(len(hex), 8)]
}
