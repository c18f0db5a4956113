package gitref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// GoGit drives a repository through go-git, without a git executable.
type GoGit struct {
	Dir    string
	Remote string
	// Auth authenticates against the remote. Nil uses the transport default.
	Auth transport.AuthMethod
}

// NewGoGit returns a go-git driver for the working copy at or above dir.
func NewGoGit(dir string) *GoGit {
	return &GoGit{Dir: dir, Remote: DefaultRemote}
}

func tagSignature() *object.Signature {
	return &object.Signature{
		Name:  AuthorName,
		Email: AuthorEmail,
		When:  time.Now().UTC(),
	}
}

func (g *GoGit) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(g.Dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

func (g *GoGit) ListTags(ctx context.Context) ([]string, error) {
	repo, err := g.open()
	if err != nil {
		return nil, fmt.Errorf("gitref: list tags: %w", err)
	}
	remote, err := repo.Remote(g.Remote)
	if err != nil {
		return nil, fmt.Errorf("gitref: list tags: remote %q: %w", g.Remote, err)
	}
	refs, err := remote.ListContext(ctx, &gogit.ListOptions{Auth: g.Auth, PeelingOption: gogit.IgnorePeeled})
	if err != nil {
		// An empty remote advertises no refs.
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("gitref: list tags: %w", err)
	}

	tags := []string{}
	for _, ref := range refs {
		if ref.Name().IsTag() {
			tags = append(tags, ref.Name().Short())
		}
	}
	return tags, nil
}

func (g *GoGit) PushTag(ctx context.Context, name, message string) (string, error) {
	repo, err := g.open()
	if err != nil {
		return "", fmt.Errorf("gitref: push tag: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("gitref: push tag: read head: %w", err)
	}

	if _, err := repo.CreateTag(name, head.Hash(), &gogit.CreateTagOptions{
		Tagger:  tagSignature(),
		Message: message,
	}); err != nil {
		return "", fmt.Errorf("gitref: create tag %q: %w", name, err)
	}

	ref := plumbing.NewTagReferenceName(name)
	var progress bytes.Buffer
	err = repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: g.Remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(ref + ":" + ref)},
		Auth:       g.Auth,
		Progress:   &progress,
	})
	if err != nil {
		return progress.String(), fmt.Errorf("gitref: push tag %q: %w", name, err)
	}
	fmt.Fprintf(&progress, "pushed %s to %s\n", ref, g.Remote)
	return progress.String(), nil
}

func (g *GoGit) Head(context.Context) (string, error) {
	repo, err := g.open()
	if err != nil {
		return "", fmt.Errorf("gitref: head: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("gitref: head: %w", err)
	}
	return head.Hash().String(), nil
}
