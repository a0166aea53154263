// Package discovery walks configured root directories to find git
// repositories. Submodules of a discovered repository are cataloged on
// their parent and never reported as top-level repositories.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/e-mit/gitscan/internal/gitx"
	"github.com/e-mit/gitscan/internal/model"
)

// Result represents a discovered git repository.
type Result struct {
	Path       string // absolute path to the repo root
	Bare       bool   // true for a bare repository
	Submodules []model.Submodule
}

// Options configures the discovery scan.
type Options struct {
	Roots          []string
	Exclude        []string // glob patterns to skip
	FollowSymlinks bool
	Runner         gitx.Runner
	Logger         *zap.Logger
}

// Scan walks all roots and returns discovered repos sorted by path.
// Directory-level read errors are skipped so one unreadable subtree
// never fails the whole scan.
func Scan(ctx context.Context, opts Options) ([]Result, error) {
	if opts.Runner == nil {
		opts.Runner = &gitx.GitRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	visited := make(map[string]struct{})
	var results []Result

	for _, root := range opts.Roots {
		if root == "" {
			continue
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		if err := walkRoot(ctx, absRoot, opts, visited, &results); err != nil {
			return nil, err
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// MatchesExclude checks whether a path matches any of the given exclude
// glob patterns.
func MatchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		match, err := doublestar.Match(pattern, slashPath)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

func walkRoot(ctx context.Context, root string, opts Options, visited map[string]struct{}, results *[]Result) error {
	realRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		realRoot = resolved
	}
	if _, ok := visited[realRoot]; ok {
		return nil
	}
	visited[realRoot] = struct{}{}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission denied or vanished directory: skip, keep scanning.
			opts.Logger.Debug("skipping unreadable directory",
				zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// WalkDir reports symlinks as non-directory entries, so they
		// must be handled before the directory check below.
		if d.Type()&os.ModeSymlink != 0 {
			if !opts.FollowSymlinks || (MatchesExclude(path, opts.Exclude) && path != root) {
				return nil
			}
			return followSymlink(ctx, path, opts, visited, results)
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return fs.SkipDir
		}
		if MatchesExclude(path, opts.Exclude) && path != root {
			return fs.SkipDir
		}

		repo, bare := detectRepo(path)
		if !repo {
			return nil
		}

		// The repo subtree is not descended further, so submodule roots
		// can never surface as top-level entries. Their names still get
		// cataloged on the parent from .gitmodules.
		subs := gitx.Submodules(ctx, opts.Runner, path)
		*results = append(*results, Result{
			Path:       path,
			Bare:       bare,
			Submodules: subs,
		})
		opts.Logger.Debug("found repository",
			zap.String("path", path),
			zap.Bool("bare", bare),
			zap.Int("submodules", len(subs)))
		return fs.SkipDir
	})
}

// followSymlink walks the link target as an extra root. It must return
// nil rather than fs.SkipDir: the walker sees the link as a file entry,
// and fs.SkipDir from a file entry would abandon the rest of the
// containing directory.
func followSymlink(ctx context.Context, path string, opts Options, visited map[string]struct{}, results *[]Result) error {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return nil
	}
	return walkRoot(ctx, target, opts, visited, results)
}

// detectRepo reports whether dir is a repository root and whether it is
// bare. A worktree checkout has a .git directory or gitdir file; a bare
// repository is recognized by its HEAD file plus refs and objects
// directories.
func detectRepo(dir string) (bool, bool) {
	gitPath := filepath.Join(dir, ".git")
	if info, err := os.Stat(gitPath); err == nil {
		if info.IsDir() {
			return true, false
		}
		if info.Mode().IsRegular() && isGitdirFile(gitPath) {
			return true, false
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil {
		return false, false
	}
	if info, err := os.Stat(filepath.Join(dir, "refs")); err != nil || !info.IsDir() {
		return false, false
	}
	if info, err := os.Stat(filepath.Join(dir, "objects")); err != nil || !info.IsDir() {
		return false, false
	}
	return true, true
}

func isGitdirFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(data)), "gitdir:")
}
