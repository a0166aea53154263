package model_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e-mit/gitscan/internal/model"
)

var _ = Describe("Snapshot JSON", func() {
	It("round-trips a full snapshot", func() {
		now := time.Now().UTC().Truncate(time.Second)
		snap := model.Snapshot{
			Path: "/tmp/repo",
			Name: "repo",
			Head: model.Head{Branch: "main"},
			Worktree: &model.Worktree{
				Dirty: true, Staged: 1, Modified: 2, Untracked: 3,
			},
			Branches: []model.Branch{
				{Name: "main", Upstream: &model.Upstream{Remote: "origin", Ref: "origin/main"}},
				{Name: "spike"},
			},
			Remotes:       []model.Remote{{Name: "origin", URL: "git@github.com:org/repo.git"}},
			Stashes:       []model.Stash{{Ref: "stash@{0}", Label: "WIP on main: abc123 fix"}},
			Tags:          []string{"v1.0.0"},
			Submodules:    []model.Submodule{{Name: "libfoo", Path: "vendor/libfoo"}},
			LastCommit:    &model.LastCommit{Hash: "deadbeef", Time: now},
			RecentCommits: []model.Commit{{Hash: "dead", Author: "a", Time: now, Subject: "fix"}},
			TotalAhead:    2,
			TotalBehind:   1,
			Fetches:       []model.RemoteFetch{{Remote: "origin", Outcome: model.FetchSuccess}},
		}

		data, err := json.Marshal(snap)
		Expect(err).NotTo(HaveOccurred())

		var decoded model.Snapshot
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded.Path).To(Equal(snap.Path))
		Expect(decoded.Worktree).NotTo(BeNil())
		Expect(decoded.Branches[0].Upstream.Remote).To(Equal("origin"))
		Expect(decoded.Branches[1].Upstream).To(BeNil())
		Expect(decoded.TotalAhead).To(Equal(2))
	})

	It("round-trips a report", func() {
		report := model.Report{
			GeneratedAt: time.Now().UTC(),
			Repos:       []model.Snapshot{{Path: "/tmp/repo1", Name: "repo1"}},
		}
		data, err := json.Marshal(report)
		Expect(err).NotTo(HaveOccurred())

		var decoded model.Report
		Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded.Repos).To(HaveLen(1))
	})
})

var _ = Describe("FetchOutcome", func() {
	It("treats auth, network and timeout as failures", func() {
		Expect(model.FetchAuth.Failed()).To(BeTrue())
		Expect(model.FetchNetwork.Failed()).To(BeTrue())
		Expect(model.FetchTimeout.Failed()).To(BeTrue())
	})

	It("does not treat success or skipped as failures", func() {
		Expect(model.FetchSuccess.Failed()).To(BeFalse())
		Expect(model.FetchSkipped.Failed()).To(BeFalse())
	})
})

var _ = Describe("Snapshot.Degraded", func() {
	It("reflects warnings and errors", func() {
		var s model.Snapshot
		Expect(s.Degraded()).To(BeFalse())
		s.Warning = "fetch timeout on origin"
		Expect(s.Degraded()).To(BeTrue())
	})
})
