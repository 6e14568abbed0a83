// Package git reads local repository state with go-git. It supplies the
// branch and working-tree summary attached to gitops instructions and the
// unified diffs shown for refactors, without shelling out to git.
package git

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	godiffpatch "github.com/sourcegraph/go-diff-patch"
)

// ErrNotAGitRepo is returned when the path is not inside a git repository.
var ErrNotAGitRepo = errors.New("not a git repository")

const shortHashLen = 7

// Repository wraps a go-git repository.
type Repository struct {
	repo *git.Repository
}

// Open opens the repository containing path, searching parent directories
// for the .git folder.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotAGitRepo
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &Repository{repo: repo}, nil
}

// OpenCurrent opens the repository containing the working directory.
func OpenCurrent() (*Repository, error) {
	return Open(".")
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get repository root directory (worktree unavailable): %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// Snapshot summarises the repository for a gitops request.
type Snapshot struct {
	Branch    string // empty when HEAD is detached
	Head      string // short commit hash, empty before the first commit
	Staged    []string
	Modified  []string
	Untracked []string
}

// Clean reports whether the working tree has no changes.
func (s *Snapshot) Clean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 && len(s.Untracked) == 0
}

// String formats the snapshot as the context block appended to an instruction.
func (s *Snapshot) String() string {
	var b strings.Builder
	b.WriteString("Repository context:\n")

	branch := s.Branch
	if branch == "" {
		branch = "(detached HEAD)"
	}
	fmt.Fprintf(&b, "branch: %s\n", branch)
	if s.Head != "" {
		fmt.Fprintf(&b, "head: %s\n", s.Head)
	} else {
		b.WriteString("head: (no commits)\n")
	}

	if s.Clean() {
		b.WriteString("working tree clean\n")
		return b.String()
	}
	writeList(&b, "staged", s.Staged)
	writeList(&b, "modified", s.Modified)
	writeList(&b, "untracked", s.Untracked)
	return b.String()
}

func writeList(b *strings.Builder, label string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(files, ", "))
}

// Snapshot reads the current branch, HEAD and file status.
func (r *Repository) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	head, err := r.repo.Head()
	switch {
	case err == nil:
		if head.Name().IsBranch() {
			snap.Branch = head.Name().Short()
		}
		snap.Head = head.Hash().String()[:shortHashLen]
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch: HEAD is symbolic but points at nothing yet.
		ref, refErr := r.repo.Storer.Reference(plumbing.HEAD)
		if refErr == nil && ref.Type() == plumbing.SymbolicReference {
			snap.Branch = ref.Target().Short()
		}
	default:
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	for path, s := range status {
		switch {
		case s.Staging == git.Untracked && s.Worktree == git.Untracked:
			snap.Untracked = append(snap.Untracked, path)
			continue
		case s.Staging != git.Unmodified:
			snap.Staged = append(snap.Staged, path)
		}
		if s.Worktree != git.Unmodified && s.Worktree != git.Untracked {
			snap.Modified = append(snap.Modified, path)
		}
	}
	sort.Strings(snap.Staged)
	sort.Strings(snap.Modified)
	sort.Strings(snap.Untracked)
	return snap, nil
}

// Patch returns a unified diff from oldContent to newContent for name, or ""
// when they are equal.
func Patch(name, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	return godiffpatch.GeneratePatch(name, oldContent, newContent)
}
