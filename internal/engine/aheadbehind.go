// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"strings"

	"github.com/e-mit/gitscan/internal/gitx"
	"github.com/e-mit/gitscan/internal/model"
)

// BranchCounts is the ahead/behind count for one branch against one
// remote's tracking ref. Pairs exist only during aggregation; the
// snapshot keeps the summed totals.
type BranchCounts struct {
	Branch string
	Remote string
	Ahead  int
	Behind int
}

// Totals sums ahead and behind over all pairs. A branch tracked on two
// remotes contributes once per remote; the double count is the
// documented aggregation policy.
func Totals(pairs []BranchCounts) (ahead, behind int) {
	for _, p := range pairs {
		ahead += p.Ahead
		behind += p.Behind
	}
	return ahead, behind
}

// AheadBehind computes the per-pair counts for one repository using
// the remote-tracking refs currently on disk. Only branches with a
// configured upstream participate, and only against remotes whose
// fetch succeeded or was skipped; auth, network, and timeout failures
// leave that remote's refs stale, so its pairs are dropped rather than
// counted against old data. A pair whose tracking ref does not exist
// contributes nothing.
func AheadBehind(ctx context.Context, r gitx.Runner, dir string, branches []model.Branch, remotes []model.Remote, fetches []model.RemoteFetch) []BranchCounts {
	included := includedRemotes(remotes, fetches)

	var pairs []BranchCounts
	for _, b := range branches {
		if b.Upstream == nil || b.Gone {
			continue
		}
		for _, remote := range remotes {
			if _, ok := included[remote.Name]; !ok {
				continue
			}
			ref := trackingRef(b, remote.Name)
			ahead, behind, err := gitx.RevListCounts(ctx, r, dir, b.Name, ref)
			if err != nil {
				continue
			}
			pairs = append(pairs, BranchCounts{
				Branch: b.Name,
				Remote: remote.Name,
				Ahead:  ahead,
				Behind: behind,
			})
		}
	}
	return pairs
}

// includedRemotes returns the remotes eligible for aggregation. With
// no fetch results at all (local-only read) every remote is eligible,
// since nothing marked its refs suspect.
func includedRemotes(remotes []model.Remote, fetches []model.RemoteFetch) map[string]struct{} {
	included := make(map[string]struct{}, len(remotes))
	if len(fetches) == 0 {
		for _, r := range remotes {
			included[r.Name] = struct{}{}
		}
		return included
	}
	for _, f := range fetches {
		if f.Remote == "" || f.Outcome.Failed() {
			continue
		}
		included[f.Remote] = struct{}{}
	}
	return included
}

// trackingRef names the remote-tracking ref to compare a branch
// against on a given remote. The configured upstream ref wins on its
// own remote; on any other remote the same leaf name is used.
func trackingRef(b model.Branch, remote string) string {
	if b.Upstream.Remote == remote {
		return b.Upstream.Ref
	}
	leaf := strings.TrimPrefix(b.Upstream.Ref, b.Upstream.Remote+"/")
	return remote + "/" + leaf
}
