package fetch_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e-mit/gitscan/internal/fetch"
	"github.com/e-mit/gitscan/internal/model"
)

// fakeProcess simulates a fetch child process that exits after a fixed
// delay, or never exits until killed when the delay is negative.
type fakeProcess struct {
	delay  time.Duration
	err    error
	output string

	once   sync.Once
	killed chan struct{}
}

func newFakeProcess(delay time.Duration, err error, output string) *fakeProcess {
	return &fakeProcess{delay: delay, err: err, output: output, killed: make(chan struct{})}
}

func (p *fakeProcess) Wait() error {
	if p.delay < 0 {
		<-p.killed
		return errors.New("signal: killed")
	}
	select {
	case <-time.After(p.delay):
		return p.err
	case <-p.killed:
		return errors.New("signal: killed")
	}
}

func (p *fakeProcess) Kill() error {
	p.once.Do(func() { close(p.killed) })
	return nil
}

func (p *fakeProcess) Output() string { return p.output }

// fakeStarter hands out one process per remote name.
type fakeStarter struct {
	mu    sync.Mutex
	procs map[string]*fakeProcess
}

func (s *fakeStarter) Start(_ context.Context, _, remote string) (fetch.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc, ok := s.procs[remote]
	if !ok {
		return nil, errors.New("could not resolve host: unknown remote")
	}
	return proc, nil
}

var _ = Describe("Fetcher", func() {
	const (
		soft = 30 * time.Millisecond
		hard = 120 * time.Millisecond
	)

	newFetcher := func(procs map[string]*fakeProcess) *fetch.Fetcher {
		return fetch.NewFetcher(&fakeStarter{procs: procs}, soft, hard, nil)
	}

	It("reports success for a fast clean fetch", func() {
		f := newFetcher(map[string]*fakeProcess{
			"origin": newFakeProcess(time.Millisecond, nil, ""),
		})
		r := f.FetchRemote(context.Background(), "/repo", "origin")
		Expect(r.Outcome).To(Equal(model.FetchSuccess))
		Expect(r.Slow).To(BeFalse())
		Expect(r.Detail).To(BeEmpty())
	})

	It("flags a fetch that crosses the soft threshold but still completes", func() {
		f := newFetcher(map[string]*fakeProcess{
			"origin": newFakeProcess(soft+20*time.Millisecond, nil, ""),
		})
		r := f.FetchRemote(context.Background(), "/repo", "origin")
		Expect(r.Outcome).To(Equal(model.FetchSuccess))
		Expect(r.Slow).To(BeTrue())
	})

	It("kills a hung fetch at the hard threshold and reports a timeout", func() {
		proc := newFakeProcess(-1, nil, "")
		f := newFetcher(map[string]*fakeProcess{"origin": proc})

		start := time.Now()
		r := f.FetchRemote(context.Background(), "/repo", "origin")
		elapsed := time.Since(start)

		Expect(r.Outcome).To(Equal(model.FetchTimeout))
		Expect(r.Slow).To(BeTrue())
		Expect(elapsed).To(BeNumerically(">=", hard))
		Expect(elapsed).To(BeNumerically("<", hard+500*time.Millisecond))
		Eventually(proc.killed).Should(BeClosed())
	})

	It("classifies an authentication failure from the error output", func() {
		f := newFetcher(map[string]*fakeProcess{
			"origin": newFakeProcess(time.Millisecond, errors.New("exit status 128"),
				"fatal: Authentication failed for 'https://example.com/repo.git/'"),
		})
		r := f.FetchRemote(context.Background(), "/repo", "origin")
		Expect(r.Outcome).To(Equal(model.FetchAuth))
		Expect(r.Detail).To(ContainSubstring("Authentication failed"))
	})

	It("classifies an unreachable host as a network failure", func() {
		f := newFetcher(map[string]*fakeProcess{
			"origin": newFakeProcess(time.Millisecond, errors.New("exit status 128"),
				"ssh: connect to host example.com port 22: Connection refused\nfatal: Could not read from remote repository."),
		})
		r := f.FetchRemote(context.Background(), "/repo", "origin")
		Expect(r.Outcome).To(Equal(model.FetchNetwork))
		Expect(r.Detail).To(Equal("fatal: Could not read from remote repository."))
	})

	It("treats a failure to start the process as a network failure", func() {
		f := newFetcher(map[string]*fakeProcess{})
		r := f.FetchRemote(context.Background(), "/repo", "origin")
		Expect(r.Outcome).To(Equal(model.FetchNetwork))
		Expect(r.Detail).To(ContainSubstring("could not resolve host"))
	})

	It("kills the fetch and reports a timeout when the context is cancelled", func() {
		proc := newFakeProcess(-1, nil, "")
		f := newFetcher(map[string]*fakeProcess{"origin": proc})

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		r := f.FetchRemote(ctx, "/repo", "origin")
		Expect(r.Outcome).To(Equal(model.FetchTimeout))
		Eventually(proc.killed).Should(BeClosed())
	})
})
