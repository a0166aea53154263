// Package engine drives the refresh cycle. It coordinates between
// discovery, gitx, fetch, and config: local status is read for every
// repository, remotes are fetched through the orchestrator, and the
// two halves are joined into one snapshot per repository.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/e-mit/gitscan/internal/config"
	"github.com/e-mit/gitscan/internal/discovery"
	"github.com/e-mit/gitscan/internal/fetch"
	"github.com/e-mit/gitscan/internal/gitx"
	"github.com/e-mit/gitscan/internal/model"
	"github.com/e-mit/gitscan/internal/repolist"
	"github.com/e-mit/gitscan/internal/sortutil"
)

const maxWorkerChannelBuffer = 100

// Fetcher runs the remote-fetch half of a refresh cycle.
type Fetcher interface {
	FetchAll(ctx context.Context, repos []fetch.RepoRemotes) map[string][]model.RemoteFetch
}

// SnapshotCallback is invoked for each snapshot as it is finalized.
// Callbacks run on the coordinator goroutine, so callers can safely
// write terminal output without additional synchronization.
type SnapshotCallback func(model.Snapshot)

// Engine is the core orchestrator for gitscan operations.
type Engine struct {
	cfg     *config.Config
	runner  gitx.Runner
	fetches Fetcher
	logger  *zap.Logger
}

// New creates an Engine. A nil runner uses the real git binary, a nil
// fetcher builds the default orchestrator from the config's fetch
// settings, and a nil logger discards log output.
func New(cfg *config.Config, runner gitx.Runner, fetcher Fetcher, logger *zap.Logger) *Engine {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetcher == nil {
		soft := time.Duration(cfg.Fetch.SoftTimeoutSeconds) * time.Second
		hard := time.Duration(cfg.Fetch.HardTimeoutSeconds) * time.Second
		fetcher = fetch.NewOrchestrator(
			fetch.NewFetcher(nil, soft, hard, logger),
			cfg.Fetch.Enabled,
			cfg.Fetch.Concurrency,
			logger,
		)
	}
	return &Engine{cfg: cfg, runner: runner, fetches: fetcher, logger: logger}
}

// Config returns the engine configuration reference.
func (e *Engine) Config() *config.Config { return e.cfg }

// Runner returns the engine git runner.
func (e *Engine) Runner() gitx.Runner { return e.runner }

// ScanOptions configures a discovery run.
type ScanOptions struct {
	Roots          []string
	Exclude        []string
	FollowSymlinks bool
}

// Scan discovers repositories under the given roots and returns the
// entries for the repo list. Exclude patterns fall back to the
// configured defaults when none are given.
func (e *Engine) Scan(ctx context.Context, opts ScanOptions) ([]repolist.Entry, error) {
	if len(opts.Roots) == 0 {
		return nil, errors.New("no scan roots provided")
	}
	exclude := opts.Exclude
	if len(exclude) == 0 {
		exclude = e.cfg.Exclude
	}

	results, err := discovery.Scan(ctx, discovery.Options{
		Roots:          opts.Roots,
		Exclude:        exclude,
		FollowSymlinks: opts.FollowSymlinks,
		Runner:         e.runner,
		Logger:         e.logger,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]repolist.Entry, 0, len(results))
	for _, res := range results {
		entries = append(entries, repolist.Entry{Path: res.Path, Bare: res.Bare})
	}
	sortutil.SortEntries(entries)
	return entries, nil
}

// ReadLocal populates a snapshot from on-disk state only. It never
// touches the network; ahead/behind totals and fetch outcomes are left
// for the refresh cycle to fill in.
func (e *Engine) ReadLocal(ctx context.Context, path string) (*model.Snapshot, error) {
	if err := gitx.CheckReadable(ctx, e.runner, path); err != nil {
		return nil, err
	}
	bare, err := gitx.IsBare(ctx, e.runner, path)
	if err != nil {
		return nil, err
	}
	head, err := gitx.Head(ctx, e.runner, path)
	if err != nil {
		return nil, err
	}
	branches, err := gitx.Branches(ctx, e.runner, path)
	if err != nil {
		return nil, err
	}
	remotes, err := gitx.Remotes(ctx, e.runner, path)
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{
		Path:     path,
		Name:     gitx.RepoName(path),
		Bare:     bare,
		Head:     head,
		Branches: branches,
		Remotes:  remotes,
	}
	if !bare {
		wt, err := gitx.WorktreeStatus(ctx, e.runner, path)
		if err != nil {
			return nil, err
		}
		snap.Worktree = wt
		snap.Stashes = gitx.Stashes(ctx, e.runner, path)
		snap.Submodules = gitx.Submodules(ctx, e.runner, path)
	}
	snap.Tags = gitx.Tags(ctx, e.runner, path)
	snap.LastCommit = gitx.LastCommit(ctx, e.runner, path)
	if snap.LastCommit != nil {
		snap.RecentCommits = gitx.RecentCommits(ctx, e.runner, path, e.cfg.CommitLimit)
	}
	return snap, nil
}

// Refresh runs one full cycle over the given repository paths: local
// reads for every repository, then fetches through the orchestrator,
// then ahead/behind aggregation once both halves have settled. Each
// snapshot is passed to onSnapshot (if non-nil) as it is finalized.
// A repository whose local read fails is reported in-band as an error
// snapshot; per-repository failures never abort the batch.
func (e *Engine) Refresh(ctx context.Context, paths []string, onSnapshot SnapshotCallback) (*model.Report, error) {
	locals := e.readLocals(ctx, paths)

	repoRemotes := make([]fetch.RepoRemotes, 0, len(locals))
	for _, l := range locals {
		if l.err != nil {
			continue
		}
		remotes := make([]string, 0, len(l.snap.Remotes))
		for _, r := range l.snap.Remotes {
			remotes = append(remotes, r.Name)
		}
		repoRemotes = append(repoRemotes, fetch.RepoRemotes{Path: l.snap.Path, Remotes: remotes})
	}
	fetched := e.fetches.FetchAll(ctx, repoRemotes)

	snaps := e.finalize(ctx, locals, fetched, onSnapshot)
	sortutil.SortSnapshots(snaps)

	return &model.Report{
		GeneratedAt: time.Now(),
		Repos:       snaps,
	}, nil
}

// RefreshOne refreshes a single repository with the exact semantics of
// a full refresh: it is a batch of size one.
func (e *Engine) RefreshOne(ctx context.Context, path string, onSnapshot SnapshotCallback) (*model.Snapshot, error) {
	report, err := e.Refresh(ctx, []string{path}, onSnapshot)
	if err != nil {
		return nil, err
	}
	if len(report.Repos) != 1 {
		return nil, fmt.Errorf("expected one snapshot, got %d", len(report.Repos))
	}
	return &report.Repos[0], nil
}

type localResult struct {
	path string
	snap *model.Snapshot
	err  error
}

func (e *Engine) readLocals(ctx context.Context, paths []string) []localResult {
	concurrency := e.concurrency()
	sem := make(chan struct{}, concurrency)
	out := make(chan localResult, workerChannelBufferSize(len(paths)))
	spawned := 0

	for _, path := range paths {
		sem <- struct{}{}
		spawned++
		go func(path string) {
			defer func() { <-sem }()
			snap, err := e.ReadLocal(ctx, path)
			out <- localResult{path: path, snap: snap, err: err}
		}(path)
	}

	results := make([]localResult, 0, spawned)
	for i := 0; i < spawned; i++ {
		results = append(results, <-out)
	}
	return results
}

// finalize joins local and fetch results per repository, computes the
// ahead/behind totals, and emits each finished snapshot in completion
// order on the coordinator goroutine.
func (e *Engine) finalize(ctx context.Context, locals []localResult, fetched map[string][]model.RemoteFetch, onSnapshot SnapshotCallback) []model.Snapshot {
	concurrency := e.concurrency()
	sem := make(chan struct{}, concurrency)
	out := make(chan model.Snapshot, workerChannelBufferSize(len(locals)))
	spawned := 0

	for _, l := range locals {
		sem <- struct{}{}
		spawned++
		go func(l localResult, fetches []model.RemoteFetch) {
			defer func() { <-sem }()
			if l.err != nil {
				// Unreadable metadata replaces any prior snapshot with
				// an error state; no further processing for this repo.
				out <- errorSnapshot(l.path, l.err)
				return
			}
			snap := *l.snap
			snap.Fetches = fetches
			pairs := AheadBehind(ctx, e.runner, snap.Path, snap.Branches, snap.Remotes, fetches)
			snap.TotalAhead, snap.TotalBehind = Totals(pairs)
			snap.Warning = fetchWarning(fetches)
			out <- snap
		}(l, fetchedFor(fetched, l))
	}

	snaps := make([]model.Snapshot, 0, spawned)
	for i := 0; i < spawned; i++ {
		snap := <-out
		if onSnapshot != nil {
			onSnapshot(snap)
		}
		snaps = append(snaps, snap)
	}
	return snaps
}

func (e *Engine) concurrency() int {
	if e.cfg.Fetch.Concurrency > 0 {
		return e.cfg.Fetch.Concurrency
	}
	return 4
}

func fetchedFor(fetched map[string][]model.RemoteFetch, l localResult) []model.RemoteFetch {
	if l.snap == nil {
		return nil
	}
	return fetched[l.snap.Path]
}

func errorSnapshot(path string, err error) model.Snapshot {
	return model.Snapshot{
		Path:       path,
		Name:       gitx.RepoName(path),
		Error:      err.Error(),
		ErrorClass: gitx.ClassifyError(err),
	}
}

// fetchWarning summarizes failed fetch outcomes for display. Skipped
// and successful remotes never raise a warning.
func fetchWarning(fetches []model.RemoteFetch) string {
	var parts []string
	for _, f := range fetches {
		if !f.Outcome.Failed() {
			continue
		}
		part := fmt.Sprintf("%s: %s", f.Remote, f.Outcome)
		if f.Detail != "" {
			part += " (" + f.Detail + ")"
		}
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func workerChannelBufferSize(n int) int {
	if n > maxWorkerChannelBuffer {
		return maxWorkerChannelBuffer
	}
	return n
}
