// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary and never
// performs a mutating operation against a repository.
package gitx

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/e-mit/gitscan/internal/model"
)

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests.
type Runner interface {
	// Run executes a git command in the given directory and returns
	// combined stdout/stderr output.
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// GitRunner is the default Runner implementation that shells out to git.
type GitRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
}

// Run executes a git command.
func (g *GitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// CheckReadable verifies that the repository metadata is intact.
// It returns ErrUnreadable when git cannot resolve the metadata directory.
func CheckReadable(ctx context.Context, r Runner, dir string) error {
	out, err := r.Run(ctx, dir, "rev-parse", "--git-dir")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnreadable, firstLine(out))
	}
	return nil
}

// IsBare checks whether the given path is a bare git repository.
func IsBare(ctx context.Context, r Runner, dir string) (bool, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--is-bare-repository")
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

// Head returns the current branch and detached state.
func Head(ctx context.Context, r Runner, dir string) (model.Head, error) {
	out, err := r.Run(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		// Detached HEAD — try to get the commit hash
		hash, hashErr := r.Run(ctx, dir, "rev-parse", "--short", "HEAD")
		if hashErr != nil {
			return model.Head{Detached: true}, nil
		}
		return model.Head{
			Branch:   strings.TrimSpace(hash),
			Detached: true,
		}, nil
	}
	return model.Head{
		Branch:   strings.TrimSpace(out),
		Detached: false,
	}, nil
}

// WorktreeStatus returns the working tree staged/modified/untracked counts.
func WorktreeStatus(ctx context.Context, r Runner, dir string) (*model.Worktree, error) {
	out, err := r.Run(ctx, dir, "status", "--porcelain=v1")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return ParsePorcelainStatus(out), nil
}

// Branches returns all local branches with their upstream configuration.
func Branches(ctx context.Context, r Runner, dir string) ([]model.Branch, error) {
	out, err := r.Run(ctx, dir, "for-each-ref",
		"--format=%(refname:short)|%(upstream:short)|%(upstream:remotename)|%(upstream:track)",
		"refs/heads")
	if err != nil {
		return nil, fmt.Errorf("git for-each-ref: %w", err)
	}
	return ParseBranches(out), nil
}

// Remotes returns all configured remotes for the repo.
func Remotes(ctx context.Context, r Runner, dir string) ([]model.Remote, error) {
	out, err := r.Run(ctx, dir, "remote")
	if err != nil {
		return nil, fmt.Errorf("git remote: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	var remotes []model.Remote
	for _, name := range strings.Split(strings.TrimSpace(out), "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		url, err := r.Run(ctx, dir, "remote", "get-url", name)
		if err != nil {
			continue
		}
		remotes = append(remotes, model.Remote{
			Name: name,
			URL:  strings.TrimSpace(url),
		})
	}
	return remotes, nil
}

// Stashes returns the stash entries with their reflog selectors and labels.
// Bare repositories have no stash; errors yield an empty list.
func Stashes(ctx context.Context, r Runner, dir string) []model.Stash {
	out, err := r.Run(ctx, dir, "stash", "list", "--format=%gd|%gs")
	if err != nil {
		return nil
	}
	return ParseStashList(out)
}

// Tags returns all tag names.
func Tags(ctx context.Context, r Runner, dir string) []string {
	out, err := r.Run(ctx, dir, "tag", "--list")
	if err != nil {
		return nil
	}
	return splitNonEmptyLines(out)
}

// Submodules reads the repository's submodule configuration. It probes
// .gitmodules, not the filesystem, so uninitialized submodules are
// still reported.
func Submodules(ctx context.Context, r Runner, dir string) []model.Submodule {
	out, err := r.Run(ctx, dir, "config", "--file", ".gitmodules",
		"--get-regexp", `^submodule\..*\.path$`)
	if err != nil {
		return nil
	}
	return ParseSubmodules(out)
}

// LastCommit returns the newest commit on the active branch, or nil for
// a repository with no commits.
func LastCommit(ctx context.Context, r Runner, dir string) *model.LastCommit {
	out, err := r.Run(ctx, dir, "log", "-1", "--format=%H|%ct")
	if err != nil {
		return nil
	}
	parts := strings.SplitN(strings.TrimSpace(out), "|", 2)
	if len(parts) != 2 {
		return nil
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return nil
	}
	return &model.LastCommit{
		Hash: strings.TrimSpace(parts[0]),
		Time: time.Unix(ts, 0).UTC(),
	}
}

// RecentCommits returns up to limit commits from the active branch only.
func RecentCommits(ctx context.Context, r Runner, dir string, limit int) []model.Commit {
	if limit <= 0 {
		return nil
	}
	out, err := r.Run(ctx, dir, "log", "-n", strconv.Itoa(limit), "--format=%h|%an|%ct|%s")
	if err != nil {
		return nil
	}
	return ParseCommitLog(out)
}

// RevListCounts returns (ahead, behind) commit counts between a local
// branch and its upstream ref using graph set difference.
func RevListCounts(ctx context.Context, r Runner, dir, branch, upstream string) (int, int, error) {
	out, err := r.Run(ctx, dir, "rev-list", "--left-right", "--count", branch+"..."+upstream)
	if err != nil {
		return 0, 0, fmt.Errorf("git rev-list: %w", err)
	}
	ahead, behind := ParseRevListCount(out)
	return ahead, behind, nil
}

// RepoName derives the display name for a repository path, dropping a
// trailing ".git" for bare checkouts.
func RepoName(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if base == ".git" {
		return filepath.Base(filepath.Dir(filepath.Clean(path)))
	}
	return strings.TrimSuffix(base, ".git")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func splitNonEmptyLines(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
