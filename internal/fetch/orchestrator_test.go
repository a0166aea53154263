package fetch_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e-mit/gitscan/internal/fetch"
	"github.com/e-mit/gitscan/internal/model"
)

// recordingFetcher returns canned results keyed "dir:remote" and
// tracks how many fetches run at once.
type recordingFetcher struct {
	results map[string]fetch.Result
	delay   time.Duration

	mu          sync.Mutex
	calls       []string
	inFlight    int32
	maxInFlight int32
}

func (f *recordingFetcher) FetchRemote(_ context.Context, dir, remote string) fetch.Result {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, dir+":"+remote)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if r, ok := f.results[dir+":"+remote]; ok {
		return r
	}
	return fetch.Result{Remote: remote, Outcome: model.FetchSuccess}
}

var _ = Describe("Orchestrator", func() {
	It("fetches every remote of every repository", func() {
		f := &recordingFetcher{results: map[string]fetch.Result{
			"/a:origin":   {Remote: "origin", Outcome: model.FetchSuccess},
			"/a:upstream": {Remote: "upstream", Outcome: model.FetchSuccess},
			"/b:origin":   {Remote: "origin", Outcome: model.FetchAuth, Detail: "Authentication failed"},
		}}
		o := fetch.NewOrchestrator(f, true, 4, nil)

		results := o.FetchAll(context.Background(), []fetch.RepoRemotes{
			{Path: "/a", Remotes: []string{"origin", "upstream"}},
			{Path: "/b", Remotes: []string{"origin"}},
		})

		Expect(results).To(HaveLen(2))
		Expect(results["/a"]).To(HaveLen(2))
		Expect(results["/a"][0].Remote).To(Equal("origin"))
		Expect(results["/a"][1].Remote).To(Equal("upstream"))
		Expect(results["/b"][0].Outcome).To(Equal(model.FetchAuth))
	})

	It("records one remote's failure without disturbing the others", func() {
		f := &recordingFetcher{results: map[string]fetch.Result{
			"/a:bad": {Remote: "bad", Outcome: model.FetchNetwork, Detail: "Connection refused"},
		}}
		o := fetch.NewOrchestrator(f, true, 2, nil)

		results := o.FetchAll(context.Background(), []fetch.RepoRemotes{
			{Path: "/a", Remotes: []string{"bad", "good"}},
		})

		Expect(results["/a"][0].Outcome).To(Equal(model.FetchNetwork))
		Expect(results["/a"][1].Outcome).To(Equal(model.FetchSuccess))
	})

	It("launches nothing when fetching is disabled", func() {
		f := &recordingFetcher{}
		o := fetch.NewOrchestrator(f, false, 4, nil)

		results := o.FetchAll(context.Background(), []fetch.RepoRemotes{
			{Path: "/a", Remotes: []string{"origin"}},
		})

		Expect(f.calls).To(BeEmpty())
		Expect(results["/a"]).To(HaveLen(1))
		Expect(results["/a"][0].Outcome).To(Equal(model.FetchSkipped))
		Expect(results["/a"][0].Detail).To(Equal("fetching disabled"))
	})

	It("reports a repository with no remotes as skipped", func() {
		f := &recordingFetcher{}
		o := fetch.NewOrchestrator(f, true, 4, nil)

		results := o.FetchAll(context.Background(), []fetch.RepoRemotes{
			{Path: "/local-only"},
		})

		Expect(f.calls).To(BeEmpty())
		Expect(results["/local-only"]).To(HaveLen(1))
		Expect(results["/local-only"][0].Outcome).To(Equal(model.FetchSkipped))
		Expect(results["/local-only"][0].Detail).To(Equal("no remotes configured"))
	})

	It("never runs more fetches at once than the concurrency limit", func() {
		f := &recordingFetcher{delay: 20 * time.Millisecond}
		o := fetch.NewOrchestrator(f, true, 2, nil)

		repos := make([]fetch.RepoRemotes, 0, 6)
		for _, path := range []string{"/a", "/b", "/c", "/d", "/e", "/f"} {
			repos = append(repos, fetch.RepoRemotes{Path: path, Remotes: []string{"origin"}})
		}
		results := o.FetchAll(context.Background(), repos)

		Expect(results).To(HaveLen(6))
		Expect(atomic.LoadInt32(&f.maxInFlight)).To(BeNumerically("<=", 2))
	})
})
