package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blang/semver/v4"
	"github.com/spf13/viper"

	"github.com/siteslot/siteslot/internal/config"
	"github.com/siteslot/siteslot/internal/engine"
	"github.com/siteslot/siteslot/internal/events"
	"github.com/siteslot/siteslot/internal/manifest"
	"github.com/siteslot/siteslot/internal/slot"
	"github.com/siteslot/siteslot/internal/tagname"
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "json", false)
	log.Debug().Msg("hidden")
	log.Info().Str("slot", "blue").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["message"] != "shown" || entry["slot"] != "blue" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	verbose := newLogger(&buf, "json", true)
	verbose.Debug().Msg("debug")
	if !strings.Contains(buf.String(), `"debug"`) {
		t.Errorf("verbose logger dropped debug: %q", buf.String())
	}
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "console", false)
	logger.Info().Msg("Publishing release")
	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("console output is JSON: %q", out)
	}
	if !strings.Contains(out, "Publishing release") {
		t.Errorf("output = %q", out)
	}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

func TestInitConfig_WellKnownEnv(t *testing.T) {
	t.Setenv(config.InfraConfigEnv, `{"organization":"acme"}`)
	t.Setenv(config.PipelineConfigEnv, `{"azure":{}}`)
	t.Setenv("SITESLOT_GIT_DRIVER", "gogit")
	initConfig()

	if got := viper.GetString("infra-config"); got != `{"organization":"acme"}` {
		t.Errorf("infra-config = %q", got)
	}
	if got := viper.GetString("pipeline-config"); got != `{"azure":{}}` {
		t.Errorf("pipeline-config = %q", got)
	}
	if got := viper.GetString("git-driver"); got != "gogit" {
		t.Errorf("git-driver = %q", got)
	}
}

// ---------------------------------------------------------------------------
// slots
// ---------------------------------------------------------------------------

func TestRenderSlots(t *testing.T) {
	scheme := tagname.Scheme{Prefix: "website-", VersionSeparator: "-v"}
	ids := []string{"blue", "green"}
	tags := []string{"website-blue-v1.0.0", "website-green-v1.1.0", "other-v9.9.9"}

	tests := []struct {
		name    string
		current string
		want    []string
	}{
		{name: "next", current: "1.2.0", want: []string{"WEBSITE-GREEN-V1.1.0", "1.2.0", "BLUE", "NEXT"}},
		{name: "skipped", current: "1.0.5", want: []string{"SKIPPED"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := semver.MustParse(tt.current)
			var buf bytes.Buffer
			renderSlots(&buf, scheme, slot.BuildHistory(scheme, ids, tags), current, slot.Pick(scheme, ids, tags, current))
			out := strings.ToUpper(buf.String())
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
			if strings.Contains(out, "9.9.9") {
				t.Errorf("foreign tag rendered:\n%s", buf.String())
			}
			// Newest first.
			if strings.Index(out, "1.1.0") > strings.Index(out, "1.0.0") {
				t.Errorf("history not newest first:\n%s", buf.String())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func TestRenderStatus(t *testing.T) {
	statuses := []*engine.SlotStatus{
		{
			TargetName: "acmeprodsiteblue",
			Manifest:   &manifest.Manifest{Version: "1.0.0", Tag: "website-blue-v1.0.0", RunID: "run_20260101T000000Z_00000000"},
			Healthy:    true,
		},
		{TargetName: "acmeprodsitegreen", MissingManifest: true},
		{
			TargetName:   "acmeprodsitered",
			Manifest:     &manifest.Manifest{Version: "0.9.0"},
			MissingFiles: []string{"a.js", "b.js"},
		},
	}
	var buf bytes.Buffer
	renderStatus(&buf, []string{"blue", "green", "red"}, "blue", statuses)
	out := buf.String()
	for _, w := range []string{"acmeprodsiteblue", "website-blue-v1.0.0", "2026-01-01T00:00:00Z", "empty", "2 file(s) missing"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
	var marked []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "| * ") {
			marked = append(marked, line)
		}
	}
	if len(marked) != 1 || !strings.Contains(marked[0], "blue") {
		t.Errorf("active rows = %q, want only blue", marked)
	}
}

// ---------------------------------------------------------------------------
// https
// ---------------------------------------------------------------------------

type fakeHTTPS struct {
	states []string
	step   time.Duration
	err    error
}

func (f *fakeHTTPS) SetHTTPS(ctx context.Context, _ string, _ bool, onState func(state, substate string)) error {
	for _, s := range f.states {
		onState(s, "")
		select {
		case <-time.After(f.step):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestHTTPSSlot(t *testing.T) {
	infra := &config.InfraConfig{IDInfo: config.IDInfoField{Value: config.MultipleIDs{
		IDList:  []string{"blue", "green"},
		TagInfo: tagname.Scheme{Prefix: "website-", VersionSeparator: "-v"},
	}}}
	tests := []struct {
		name    string
		flag    string
		want    string
		wantErr bool
	}{
		{name: "default", want: "blue"},
		{name: "configured", flag: "green", want: "green"},
		{name: "typo", flag: "gren", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := httpsSlot(infra, tt.flag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("httpsSlot(%q) error = %v, wantErr %v", tt.flag, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("httpsSlot(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestSetHTTPS(t *testing.T) {
	var got []events.Event
	em := events.NewEmitter(func(ev events.Event) { got = append(got, ev) })
	setter := &fakeHTTPS{states: []string{"Enabling", "Enabling", "Enabled"}, step: 700 * time.Millisecond}

	if err := setHTTPS(context.Background(), setter, em, "www", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected progress and completion events, got %v", got)
	}
	for _, ev := range got[:len(got)-1] {
		p, ok := ev.(events.HTTPSProgress)
		if !ok {
			t.Fatalf("event %T before completion", ev)
		}
		if p.Domain != "www" || p.State == "" {
			t.Errorf("progress = %+v", p)
		}
	}
	done, ok := got[len(got)-1].(events.HTTPSCompleted)
	if !ok || done.State != "Enabled" {
		t.Errorf("last event = %+v, want HTTPSCompleted Enabled", got[len(got)-1])
	}
}

func TestSetHTTPS_Failure(t *testing.T) {
	var got []events.Event
	em := events.NewEmitter(func(ev events.Event) { got = append(got, ev) })
	setter := &fakeHTTPS{err: errors.New("Failed: CertificateNotIssued")}

	if err := setHTTPS(context.Background(), setter, em, "www", true); err == nil {
		t.Fatal("expected error")
	}
	for _, ev := range got {
		if _, ok := ev.(events.HTTPSCompleted); ok {
			t.Error("completion emitted after failure")
		}
	}
}
