package revisions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const postTitle = "User blog:Alice/First post"

// commitRevision appends one revision by author to the title's repository,
// creating it on first use the way the wiki host lays it out.
func commitRevision(t *testing.T, repo *Repository, title, author string, when time.Time) {
	t.Helper()
	path := repo.Path(title)

	var gitRepo *git.Repository
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatalf("create repo dir: %v", err)
		}
		gitRepo, err = git.PlainInit(path, false)
		if err != nil {
			t.Fatalf("init repo: %v", err)
		}
		created = true
	} else {
		gitRepo, err = git.PlainOpen(path)
		if err != nil {
			t.Fatalf("open repo: %v", err)
		}
	}

	worktree, err := gitRepo.Worktree()
	if err != nil {
		t.Fatalf("open worktree: %v", err)
	}
	body := fmt.Sprintf("revision by %s at %s\n", author, when.Format(time.RFC3339Nano))
	if err := os.WriteFile(filepath.Join(path, "content.wiki"), []byte(body), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if _, err := worktree.Add("content.wiki"); err != nil {
		t.Fatalf("git add: %v", err)
	}
	hash, err := worktree.Commit("edit", &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: "wiki@localhost", When: when},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if created {
		if err := gitRepo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(DefaultBranch), hash)); err != nil {
			t.Fatalf("set main ref: %v", err)
		}
		if err := gitRepo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(DefaultBranch))); err != nil {
			t.Fatalf("set HEAD: %v", err)
		}
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	repo := New(t.TempDir())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	authors := []string{"Alice", "Bob", "Alice", "Carol", "Bob"}
	for i, author := range authors {
		commitRevision(t, repo, postTitle, author, base.Add(time.Duration(i)*time.Hour))
	}

	history, err := repo.History(postTitle, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != len(authors) {
		t.Fatalf("History() returned %d records, want %d", len(history), len(authors))
	}
	for i, record := range history {
		want := authors[len(authors)-1-i]
		if record.Actor != want {
			t.Fatalf("record %d actor = %q, want %q", i, record.Actor, want)
		}
		if len(record.Revision) != 40 {
			t.Fatalf("record %d revision = %q, want full hash", i, record.Revision)
		}
	}
	if !history[0].Timestamp.After(history[len(history)-1].Timestamp) {
		t.Fatalf("expected newest first: %v .. %v", history[0].Timestamp, history[len(history)-1].Timestamp)
	}
}

func TestHistoryLimit(t *testing.T) {
	repo := New(t.TempDir())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, author := range []string{"Alice", "Bob", "Carol"} {
		commitRevision(t, repo, postTitle, author, base.Add(time.Duration(i)*time.Minute))
	}

	history, err := repo.History(postTitle, 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[0].Actor != "Carol" || history[1].Actor != "Bob" {
		t.Fatalf("History(limit=2) = %+v", history)
	}
}

func TestExists(t *testing.T) {
	repo := New(t.TempDir())

	exists, err := repo.Exists(postTitle)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Fatal("expected missing title not to exist")
	}

	commitRevision(t, repo, postTitle, "Alice", time.Now())
	exists, err = repo.Exists(postTitle)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Fatal("expected title to exist after first revision")
	}
}

func TestExistsFalseWithoutMainBranch(t *testing.T) {
	repo := New(t.TempDir())
	path := repo.Path(postTitle)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("create repo dir: %v", err)
	}
	if _, err := git.PlainInit(path, false); err != nil {
		t.Fatalf("init repo: %v", err)
	}

	exists, err := repo.Exists(postTitle)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Fatal("expected empty repository not to count as existing")
	}
}

func TestHistoryMissingTitle(t *testing.T) {
	repo := New(t.TempDir())
	if _, err := repo.History("User blog:Nobody/Nothing", 10); !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("History() error = %v, want ErrTitleNotFound", err)
	}
}

func TestRepoName(t *testing.T) {
	cases := map[string]string{
		"User blog:Alice/First post": "User_blog:Alice%2FFirst_post",
		" Main Page ":                "Main_Page",
		"User blog:Zoë/Ça va?":       "User_blog:Zo%C3%AB%2F%C3%87a_va%3F",
	}
	for title, want := range cases {
		if got := RepoName(title); got != want {
			t.Fatalf("RepoName(%q) = %q, want %q", title, got, want)
		}
	}
}
