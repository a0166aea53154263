package gitx_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e-mit/gitscan/internal/gitx"
)

var _ = Describe("ParsePorcelainStatus", func() {
	It("reports a clean worktree for empty output", func() {
		wt := gitx.ParsePorcelainStatus("")
		Expect(wt.Dirty).To(BeFalse())
		Expect(wt.Staged).To(BeZero())
		Expect(wt.Modified).To(BeZero())
		Expect(wt.Untracked).To(BeZero())
	})

	It("keeps staged, modified and untracked independent", func() {
		out := "M  staged.go\n" +
			" M modified.go\n" +
			"MM both.go\n" +
			"?? new.go\n"
		wt := gitx.ParsePorcelainStatus(out)
		Expect(wt.Staged).To(Equal(2))
		Expect(wt.Modified).To(Equal(2))
		Expect(wt.Untracked).To(Equal(1))
		Expect(wt.Dirty).To(BeTrue())
	})

	It("counts renames and deletions as staged changes", func() {
		out := "R  old.go -> new.go\nD  gone.go\n"
		wt := gitx.ParsePorcelainStatus(out)
		Expect(wt.Staged).To(Equal(2))
		Expect(wt.Modified).To(BeZero())
	})
})

var _ = Describe("ParseBranches", func() {
	It("returns nil for empty output", func() {
		Expect(gitx.ParseBranches("")).To(BeNil())
	})

	It("flags gone upstreams", func() {
		branches := gitx.ParseBranches("old|origin/old|origin|[gone]")
		Expect(branches).To(HaveLen(1))
		Expect(branches[0].Gone).To(BeTrue())
		Expect(branches[0].Upstream.Ref).To(Equal("origin/old"))
	})

	It("leaves upstream nil when unconfigured", func() {
		branches := gitx.ParseBranches("local|||")
		Expect(branches[0].Upstream).To(BeNil())
	})
})

var _ = Describe("ParseStashList", func() {
	It("splits ref from label on the first pipe", func() {
		stashes := gitx.ParseStashList("stash@{0}|WIP on main: fix a|b thing")
		Expect(stashes).To(HaveLen(1))
		Expect(stashes[0].Ref).To(Equal("stash@{0}"))
		Expect(stashes[0].Label).To(Equal("WIP on main: fix a|b thing"))
	})
})

var _ = Describe("ParseSubmodules", func() {
	It("extracts the name between prefix and suffix", func() {
		subs := gitx.ParseSubmodules("submodule.vendor.lib.path third_party/lib")
		Expect(subs).To(HaveLen(1))
		Expect(subs[0].Name).To(Equal("vendor.lib"))
		Expect(subs[0].Path).To(Equal("third_party/lib"))
	})

	It("skips malformed lines", func() {
		Expect(gitx.ParseSubmodules("garbage")).To(BeEmpty())
	})
})

var _ = Describe("ParseCommitLog", func() {
	It("drops lines with bad timestamps", func() {
		commits := gitx.ParseCommitLog("1abc|Alice|notanumber|subject\n2def|Bob|1700000000|ok")
		Expect(commits).To(HaveLen(1))
		Expect(commits[0].Hash).To(Equal("2def"))
	})
})

var _ = Describe("ParseRevListCount", func() {
	It("parses tab-separated counts", func() {
		ahead, behind := gitx.ParseRevListCount("2\t5")
		Expect(ahead).To(Equal(2))
		Expect(behind).To(Equal(5))
	})

	It("parses space-separated counts", func() {
		ahead, behind := gitx.ParseRevListCount("2 5")
		Expect(ahead).To(Equal(2))
		Expect(behind).To(Equal(5))
	})

	It("returns zeros for malformed output", func() {
		ahead, behind := gitx.ParseRevListCount("")
		Expect(ahead).To(BeZero())
		Expect(behind).To(BeZero())
	})
})
