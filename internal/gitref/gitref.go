// Package gitref lists and creates the release tags that record slot
// decisions. Two drivers exist: CLI shells out to git, GoGit uses go-git.
package gitref

import (
	"context"
	"fmt"
)

// Automation identity used as tagger of every release tag.
const (
	AuthorName  = "siteslot automation"
	AuthorEmail = "siteslot@users.noreply.github.com"
)

// DefaultRemote is the remote tags are read from and pushed to.
const DefaultRemote = "origin"

// Repo is a git working copy with a remote.
type Repo interface {
	// ListTags returns the tag names present on the remote.
	ListTags(ctx context.Context) ([]string, error)
	// PushTag creates an annotated tag at HEAD and pushes it to the remote.
	// The returned text is the raw output of the operation.
	PushTag(ctx context.Context, name, message string) (string, error)
	// Head returns the commit hash HEAD points at.
	Head(ctx context.Context) (string, error)
}

// New returns the driver named by driver: "cli" (default) or "gogit".
func New(driver, dir string) (Repo, error) {
	switch driver {
	case "cli", "":
		return NewCLI(dir), nil
	case "gogit":
		return NewGoGit(dir), nil
	default:
		return nil, fmt.Errorf("gitref: unsupported driver %q (must be cli or gogit)", driver)
	}
}
