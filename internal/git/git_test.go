package git

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// setupTestRepo creates a temporary git repository for testing.
func setupTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()

	tmpDir := t.TempDir()
	repo, err := git.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatalf("failed to init test repo: %v", err)
	}
	return &Repository{repo: repo}, tmpDir
}

// setupTestRepoWithCommit creates a test repo with an initial commit.
func setupTestRepoWithCommit(t *testing.T) (*Repository, string) {
	t.Helper()

	repo, tmpDir := setupTestRepo(t)
	writeFile(t, tmpDir, "initial.txt", "initial content\n")
	stage(t, repo, "initial.txt")

	worktree, err := repo.repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	_, err = worktree.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("failed to create initial commit: %v", err)
	}
	return repo, tmpDir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func stage(t *testing.T, repo *Repository, name string) {
	t.Helper()
	worktree, err := repo.repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("failed to stage %s: %v", name, err)
	}
}

// =============================================================================
// Open / Root
// =============================================================================

func TestOpen_NotAGitRepo(t *testing.T) {
	_, err := Open(t.TempDir())
	if err != ErrNotAGitRepo {
		t.Errorf("Open() error = %v, want %v", err, ErrNotAGitRepo)
	}
}

func TestOpen_FromSubdirectory(t *testing.T) {
	_, tmpDir := setupTestRepo(t)
	sub := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	repo, err := Open(sub)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	root, err := repo.Root()
	if err != nil {
		t.Fatalf("Root() failed: %v", err)
	}
	want, _ := filepath.EvalSymlinks(tmpDir)
	got, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Errorf("Root() = %q, want %q", got, want)
	}
}

func TestRepository_Root_ReturnsAbsolutePath(t *testing.T) {
	repo, _ := setupTestRepo(t)

	root, err := repo.Root()
	if err != nil {
		t.Fatalf("Root() failed: %v", err)
	}
	if !filepath.IsAbs(root) {
		t.Errorf("Root() = %q, want absolute path", root)
	}
}

// =============================================================================
// Snapshot
// =============================================================================

func TestSnapshot_FreshRepo(t *testing.T) {
	repo, _ := setupTestRepo(t)

	snap, err := repo.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if snap.Branch != "master" {
		t.Errorf("Branch = %q, want %q", snap.Branch, "master")
	}
	if snap.Head != "" {
		t.Errorf("Head = %q, want empty", snap.Head)
	}
	if !snap.Clean() {
		t.Errorf("Clean() = false, want true")
	}
	if !strings.Contains(snap.String(), "head: (no commits)") {
		t.Errorf("String() = %q, want no-commits marker", snap.String())
	}
}

func TestSnapshot_ClassifiesFiles(t *testing.T) {
	repo, tmpDir := setupTestRepoWithCommit(t)

	writeFile(t, tmpDir, "initial.txt", "changed\n")
	writeFile(t, tmpDir, "pkg/new.go", "package pkg\n")
	stage(t, repo, "pkg/new.go")
	writeFile(t, tmpDir, "notes.txt", "scratch\n")

	snap, err := repo.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}

	if len(snap.Head) != shortHashLen {
		t.Errorf("Head = %q, want %d characters", snap.Head, shortHashLen)
	}
	if got := strings.Join(snap.Staged, ","); got != "pkg/new.go" {
		t.Errorf("Staged = %v, want [pkg/new.go]", snap.Staged)
	}
	if got := strings.Join(snap.Modified, ","); got != "initial.txt" {
		t.Errorf("Modified = %v, want [initial.txt]", snap.Modified)
	}
	if got := strings.Join(snap.Untracked, ","); got != "notes.txt" {
		t.Errorf("Untracked = %v, want [notes.txt]", snap.Untracked)
	}
	if snap.Clean() {
		t.Error("Clean() = true, want false")
	}
}

func TestSnapshot_String(t *testing.T) {
	snap := &Snapshot{
		Branch:    "feature/x",
		Head:      "abc1234",
		Staged:    []string{"a.go", "b.go"},
		Untracked: []string{"c.txt"},
	}

	want := "Repository context:\n" +
		"branch: feature/x\n" +
		"head: abc1234\n" +
		"staged: a.go, b.go\n" +
		"untracked: c.txt\n"
	if got := snap.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSnapshot_StringDetachedClean(t *testing.T) {
	snap := &Snapshot{Head: "abc1234"}

	got := snap.String()
	if !strings.Contains(got, "branch: (detached HEAD)") {
		t.Errorf("String() = %q, want detached marker", got)
	}
	if !strings.Contains(got, "working tree clean") {
		t.Errorf("String() = %q, want clean marker", got)
	}
}

// =============================================================================
// Patch
// =============================================================================

func TestPatch_UnifiedDiffFormat(t *testing.T) {
	diff := Patch("main.go", "initial content\n", "modified content\nwith more lines\n")

	for _, want := range []string{
		"--- a/main.go",
		"+++ b/main.go",
		"@@",
		"-initial content",
		"+modified content",
		"+with more lines",
	} {
		if !strings.Contains(diff, want) {
			t.Errorf("Patch() missing %q in:\n%s", want, diff)
		}
	}
}

func TestPatch_Equal(t *testing.T) {
	if got := Patch("x", "same\n", "same\n"); got != "" {
		t.Errorf("Patch() = %q, want empty", got)
	}
}
