package gitref

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/siteslot/siteslot/internal/tagname"
)

// runFunc runs git with args in dir and returns what it wrote to stdout and
// stderr.
type runFunc func(ctx context.Context, dir string, env []string, args ...string) (stdout, stderr []byte, err error)

// CLI drives the git executable.
type CLI struct {
	Dir    string
	Remote string
	run    runFunc
}

// NewCLI returns a CLI driver for the working copy at dir.
func NewCLI(dir string) *CLI {
	return &CLI{Dir: dir, Remote: DefaultRemote, run: execGit}
}

func execGit(ctx context.Context, dir string, env []string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// identityEnv sets the automation identity for author and committer.
func identityEnv() []string {
	return []string{
		"GIT_AUTHOR_NAME=" + AuthorName,
		"GIT_AUTHOR_EMAIL=" + AuthorEmail,
		"GIT_COMMITTER_NAME=" + AuthorName,
		"GIT_COMMITTER_EMAIL=" + AuthorEmail,
	}
}

// ListTags parses only stdout; warnings from git or ssh arrive on stderr.
func (c *CLI) ListTags(ctx context.Context) ([]string, error) {
	out, _, err := c.run(ctx, c.Dir, nil, "ls-remote", "--tags", "--refs", c.Remote)
	if err != nil {
		return nil, fmt.Errorf("gitref: list tags: %w", err)
	}
	return tagname.ParseRawTagFeed(string(out)), nil
}

// PushTag returns everything both commands printed; git push reports on
// stderr.
func (c *CLI) PushTag(ctx context.Context, name, message string) (string, error) {
	var output strings.Builder

	stdout, stderr, err := c.run(ctx, c.Dir, identityEnv(), "tag", "-a", name, "-m", message)
	output.Write(stdout)
	output.Write(stderr)
	if err != nil {
		return output.String(), fmt.Errorf("gitref: create tag %q: %w", name, err)
	}

	stdout, stderr, err = c.run(ctx, c.Dir, identityEnv(), "push", c.Remote, name)
	output.Write(stdout)
	output.Write(stderr)
	if err != nil {
		return output.String(), fmt.Errorf("gitref: push tag %q: %w", name, err)
	}
	return output.String(), nil
}

func (c *CLI) Head(ctx context.Context) (string, error) {
	out, _, err := c.run(ctx, c.Dir, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("gitref: head: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
