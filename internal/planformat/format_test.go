package planformat

import (
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	p := &Plan{
		Version:    "1.4.0",
		Slot:       "green",
		Tag:        "website-green-v1.4.0",
		Store:      "acmeprodsitegreen",
		RunID:      "run_20260213T200102Z_6f2c9a1b",
		BundleHash: "sha256:abcdef0123456789abcdef0123456789",
		SourceDir:  "/home/runner/work/site/frontend/build",
		FileChanges: []FileChange{
			{
				RelPath:   "static/js/main.9a1c.js",
				Action:    ActionCreate,
				NewHash:   "sha256:1111111111111111",
				SizeBytes: 1024,
			},
			{
				RelPath:   "static/css/main.77ee.css",
				Action:    ActionCreate,
				NewHash:   "sha256:2222222222222222",
				SizeBytes: 256,
			},
			{
				RelPath: "index.html",
				Action:  ActionUpdate,
				OldHash: "sha256:3333333333333333",
				NewHash: "sha256:4444444444444444",
			},
			{
				RelPath: "static/js/main.0b2f.js",
				Action:  ActionDestroy,
				OldHash: "sha256:5555555555555555",
			},
			{
				RelPath: "robots.txt",
				Action:  ActionNoop,
				OldHash: "sha256:6666666666666666",
				NewHash: "sha256:6666666666666666",
			},
		},
		Steps: []Step{
			{Name: "purge acme-prod-green", Action: ActionUpdate, Detail: "/*"},
			{Name: "push tag website-green-v1.4.0", Action: ActionCreate},
		},
	}

	output := Format(p)

	// Verify header lines.
	if !strings.Contains(output, `# release 1.4.0 will be published to slot "green"`) {
		t.Errorf("missing slot header:\n%s", output)
	}
	if !strings.Contains(output, "# tag:         website-green-v1.4.0") {
		t.Error("missing tag in header")
	}
	if !strings.Contains(output, "# run_id:      run_20260213T200102Z_6f2c9a1b") {
		t.Error("missing run_id in header")
	}
	if !strings.Contains(output, "# source_dir:") {
		t.Error("missing source_dir in header")
	}

	// Verify file change symbols.
	if !strings.Contains(output, "+ static/js/main.9a1c.js") {
		t.Error("missing + symbol for created file")
	}
	if !strings.Contains(output, "~ index.html") {
		t.Error("missing ~ symbol for updated index.html")
	}
	if !strings.Contains(output, "- static/js/main.0b2f.js") {
		t.Error("missing - symbol for destroyed file")
	}
	if strings.Contains(output, "robots.txt") {
		t.Error("unchanged files should not be listed")
	}

	// Verify summary line.
	if !strings.Contains(output, "2 to add, 1 to change, 1 to destroy, 1 unchanged") {
		t.Errorf("missing or incorrect summary line in output:\n%s", output)
	}

	// Verify steps.
	if !strings.Contains(output, "~ purge acme-prod-green (/*)") {
		t.Errorf("missing purge step in output:\n%s", output)
	}
	if !strings.Contains(output, "+ push tag website-green-v1.4.0") {
		t.Errorf("missing tag step in output:\n%s", output)
	}

	// Verify hash truncation appears for created/updated files (they have NewHash).
	if !strings.Contains(output, "(sha256:11111111)") {
		t.Errorf("missing truncated hash in output:\n%s", output)
	}

	// Destroyed file has no NewHash, so no hash should appear on its line.
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "- static/js/main.0b2f.js") && strings.Contains(line, "sha256:") {
			t.Error("destroyed file should not show a hash")
		}
	}
}

func TestFormatSkipped(t *testing.T) {
	p := &Plan{
		Version:          "1.1.0",
		PreviousVersions: []string{"2.0.0", "1.0.0"},
	}

	output := Format(p)
	if !strings.Contains(output, "# release 1.1.0 will be skipped") {
		t.Errorf("missing skipped header:\n%s", output)
	}
	if !strings.Contains(output, "# newest released: 2.0.0") {
		t.Errorf("missing newest release:\n%s", output)
	}
	if strings.Contains(output, "File changes") {
		t.Errorf("skipped plan should not list files:\n%s", output)
	}

	if got, want := FormatSummary(p), "release 1.1.0: skipped"; got != want {
		t.Errorf("FormatSummary() = %q, want %q", got, want)
	}
}

func TestFormatSummary(t *testing.T) {
	p := &Plan{
		Version: "2.0.0",
		Slot:    "blue",
		FileChanges: []FileChange{
			{RelPath: "a.js", Action: ActionCreate},
			{RelPath: "b.js", Action: ActionCreate},
			{RelPath: "index.html", Action: ActionUpdate},
			{RelPath: "d.js", Action: ActionDestroy},
			{RelPath: "e.js", Action: ActionDestroy},
			{RelPath: "f.js", Action: ActionDestroy},
		},
		Steps: []Step{
			{Name: "purge", Action: ActionUpdate},
			{Name: "tag", Action: ActionCreate},
		},
	}

	summary := FormatSummary(p)

	want := "release 2.0.0 -> blue: 2 file(s) to add, 1 to change, 3 to destroy, 2 step(s)"
	if summary != want {
		t.Errorf("FormatSummary() =\n  %q\nwant:\n  %q", summary, want)
	}
}

func TestFormatEmpty(t *testing.T) {
	p := &Plan{
		Version:    "1.0.0",
		Slot:       "blue",
		BundleHash: "sha256:0000000000000000",
	}

	output := Format(p)

	if !strings.Contains(output, `# release 1.0.0 will be published to slot "blue"`) {
		t.Error("missing header")
	}
	if !strings.Contains(output, "No file changes.") {
		t.Errorf("expected 'No file changes.' in output:\n%s", output)
	}
	if strings.Contains(output, "to add") {
		t.Errorf("unexpected summary line in empty plan output:\n%s", output)
	}
	if strings.Contains(output, "Steps:") {
		t.Errorf("unexpected steps in empty plan output:\n%s", output)
	}
}

func TestFormatNoSourceDir(t *testing.T) {
	p := &Plan{
		Version:    "1.0.0",
		Slot:       "blue",
		BundleHash: "sha256:abcdef01",
	}

	output := Format(p)
	if strings.Contains(output, "source_dir") {
		t.Errorf("source_dir should be omitted when empty, got:\n%s", output)
	}
	if strings.Contains(output, "tag:") {
		t.Errorf("tag should be omitted when empty, got:\n%s", output)
	}
}
