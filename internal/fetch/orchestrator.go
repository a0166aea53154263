// SPDX-License-Identifier: MIT

package fetch

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/e-mit/gitscan/internal/model"
)

// RemoteFetcher fetches a single remote of a single repository.
type RemoteFetcher interface {
	FetchRemote(ctx context.Context, dir, remote string) Result
}

// RepoRemotes names one repository and the remotes to fetch for it.
type RepoRemotes struct {
	Path    string
	Remotes []string
}

// Orchestrator fans fetches out across repositories. Concurrency is
// bounded over (repository, remote) pairs, so the worst-case wall time
// for n pairs is roughly hard_timeout * ceil(n / concurrency).
type Orchestrator struct {
	fetcher     RemoteFetcher
	enabled     bool
	concurrency int
	logger      *zap.Logger
}

// NewOrchestrator builds an Orchestrator. Concurrency values below one
// are raised to one.
func NewOrchestrator(fetcher RemoteFetcher, enabled bool, concurrency int, logger *zap.Logger) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher:     fetcher,
		enabled:     enabled,
		concurrency: concurrency,
		logger:      logger,
	}
}

type keyedResult struct {
	path   string
	result Result
}

// FetchAll fetches every remote of every repository and returns the
// per-repository results. Failures are recorded per remote and never
// abort the batch. With fetching disabled no processes are launched
// and every remote is reported as skipped; a repository with no
// remotes gets a single skipped row so it still appears in the output.
func (o *Orchestrator) FetchAll(ctx context.Context, repos []RepoRemotes) map[string][]model.RemoteFetch {
	results := make(map[string][]model.RemoteFetch, len(repos))

	if !o.enabled {
		for _, repo := range repos {
			results[repo.Path] = skippedAll(repo, "fetching disabled")
		}
		return results
	}

	sem := make(chan struct{}, o.concurrency)
	out := make(chan keyedResult)
	spawned := 0
	for _, repo := range repos {
		if len(repo.Remotes) == 0 {
			results[repo.Path] = skippedAll(repo, "no remotes configured")
			continue
		}
		for _, remote := range repo.Remotes {
			spawned++
			go func(path, remote string) {
				sem <- struct{}{}
				defer func() { <-sem }()
				r := o.fetcher.FetchRemote(ctx, path, remote)
				out <- keyedResult{path: path, result: r}
			}(repo.Path, remote)
		}
	}

	for i := 0; i < spawned; i++ {
		kr := <-out
		if kr.result.Outcome.Failed() {
			o.logger.Debug("fetch failed",
				zap.String("repo", kr.path),
				zap.String("remote", kr.result.Remote),
				zap.String("outcome", string(kr.result.Outcome)),
				zap.String("detail", kr.result.Detail))
		}
		results[kr.path] = append(results[kr.path], model.RemoteFetch{
			Remote:  kr.result.Remote,
			Outcome: kr.result.Outcome,
			Detail:  kr.result.Detail,
			Slow:    kr.result.Slow,
		})
	}

	for path := range results {
		rs := results[path]
		sort.Slice(rs, func(i, j int) bool { return rs[i].Remote < rs[j].Remote })
	}
	return results
}

func skippedAll(repo RepoRemotes, detail string) []model.RemoteFetch {
	if len(repo.Remotes) == 0 {
		return []model.RemoteFetch{{Outcome: model.FetchSkipped, Detail: detail}}
	}
	rows := make([]model.RemoteFetch, 0, len(repo.Remotes))
	for _, remote := range repo.Remotes {
		rows = append(rows, model.RemoteFetch{
			Remote:  remote,
			Outcome: model.FetchSkipped,
			Detail:  detail,
		})
	}
	return rows
}
