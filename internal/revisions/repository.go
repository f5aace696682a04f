// Package revisions reads blog post revision history from per-title git
// repositories maintained by the wiki host.
package revisions

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"simpleblog/api/internal/contributors"
)

const DefaultBranch = "main"

var ErrTitleNotFound = errors.New("title has no revisions")

// Repository locates one git repository per title under baseDir. Each commit
// on the branch is one revision; the commit author is the revision actor.
type Repository struct {
	baseDir string
	branch  string
}

func New(baseDir string) *Repository {
	return &Repository{baseDir: baseDir, branch: DefaultBranch}
}

// RepoName maps a prefixed title to its repository directory name.
func RepoName(prefixedTitle string) string {
	return url.PathEscape(strings.ReplaceAll(strings.TrimSpace(prefixedTitle), " ", "_"))
}

func (r *Repository) Path(prefixedTitle string) string {
	return filepath.Join(r.baseDir, RepoName(prefixedTitle))
}

// Exists reports whether the title has a current revision.
func (r *Repository) Exists(prefixedTitle string) (bool, error) {
	_, _, err := r.head(prefixedTitle)
	if errors.Is(err, ErrTitleNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// History returns up to limit revisions, newest first. A limit of zero or
// less returns the whole history.
func (r *Repository) History(prefixedTitle string, limit int) ([]contributors.Record, error) {
	repo, ref, err := r.head(prefixedTitle)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	capacity := limit
	if capacity <= 0 {
		capacity = 16
	}
	items := make([]contributors.Record, 0, capacity)
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, contributors.Record{
			Actor:     commitObj.Author.Name,
			Revision:  commitObj.Hash.String(),
			Timestamp: commitObj.Author.When,
		})
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func (r *Repository) head(prefixedTitle string) (*git.Repository, *plumbing.Reference, error) {
	repo, err := git.PlainOpen(r.Path(prefixedTitle))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil, ErrTitleNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open repo: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(r.branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil, ErrTitleNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve branch %s: %w", r.branch, err)
	}
	return repo, ref, nil
}
