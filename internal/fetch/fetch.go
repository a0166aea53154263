// Package fetch refreshes remote-tracking refs. Each fetch runs as a
// monitored child process under a two-threshold policy: past the soft
// threshold it is flagged slow but left running, at the hard threshold
// it is killed and reported as a timeout. A timeout usually means the
// fetch hung on a credential prompt rather than a slow network.
package fetch

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/e-mit/gitscan/internal/gitx"
	"github.com/e-mit/gitscan/internal/model"
)

// Result is the outcome of fetching one remote.
type Result struct {
	Remote  string
	Outcome model.FetchOutcome
	// Detail carries the trailing git error text for failed fetches.
	Detail string
	// Slow reports that the fetch crossed the soft threshold.
	Slow bool
}

// Process is a running fetch that can be waited on or killed.
type Process interface {
	// Wait blocks until the process exits.
	Wait() error
	// Kill terminates the process. Wait unblocks afterwards.
	Kill() error
	// Output returns the combined output collected so far.
	Output() string
}

// Starter launches fetch processes. The indirection allows tests to
// substitute controllable fakes.
type Starter interface {
	Start(ctx context.Context, dir, remote string) (Process, error)
}

// GitStarter starts real `git fetch` child processes.
type GitStarter struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
}

type gitProcess struct {
	cmd *exec.Cmd
	buf *bytes.Buffer
}

func (p *gitProcess) Wait() error { return p.cmd.Wait() }

func (p *gitProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	// The whole process group must die, otherwise an ssh or askpass
	// child blocked on a credential prompt outlives the killed git.
	if err := syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (p *gitProcess) Output() string { return p.buf.String() }

// Start launches `git fetch <remote>` for one repository. Only that
// remote's tracking refs are updated; the working tree, index and
// local branch refs are untouched.
func (g *GitStarter) Start(_ context.Context, dir, remote string) (Process, error) {
	var buf bytes.Buffer
	cmd := g.command(dir, remote)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &gitProcess{cmd: cmd, buf: &buf}, nil
}

// command builds the fetch invocation. The child leads its own process
// group so a hard-timeout kill reaches helper processes too.
func (g *GitStarter) command(dir, remote string) *exec.Cmd {
	bin := g.GitBin
	if bin == "" {
		bin = "git"
	}
	cmd := exec.Command(bin, "-C", dir, "fetch", remote, "--no-recurse-submodules")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd
}

// Fetcher runs single-remote fetches under the escalation policy.
type Fetcher struct {
	starter Starter
	soft    time.Duration
	hard    time.Duration
	logger  *zap.Logger
}

// NewFetcher builds a Fetcher. A nil starter uses real git processes;
// a nil logger discards log output.
func NewFetcher(starter Starter, soft, hard time.Duration, logger *zap.Logger) *Fetcher {
	if starter == nil {
		starter = &GitStarter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{starter: starter, soft: soft, hard: hard, logger: logger}
}

// FetchRemote fetches one remote and classifies the outcome. The fetch
// escalates Running → SlowWarning → TimedOut/Completed; a killed fetch
// is always reaped before returning so no child process leaks. Refs
// already received before a kill are kept.
func (f *Fetcher) FetchRemote(ctx context.Context, dir, remote string) Result {
	proc, err := f.starter.Start(ctx, dir, remote)
	if err != nil {
		return Result{
			Remote:  remote,
			Outcome: model.FetchNetwork,
			Detail:  err.Error(),
		}
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	softTimer := time.NewTimer(f.soft)
	defer softTimer.Stop()
	hardTimer := time.NewTimer(f.hard)
	defer hardTimer.Stop()

	slow := false
	for {
		select {
		case err := <-done:
			return f.completed(remote, slow, err, proc.Output())

		case <-softTimer.C:
			slow = true
			f.logger.Warn("fetch is slow but still running",
				zap.String("repo", dir),
				zap.String("remote", remote),
				zap.Duration("elapsed", f.soft))

		case <-hardTimer.C:
			_ = proc.Kill()
			<-done
			f.logger.Warn("fetch killed at hard timeout",
				zap.String("repo", dir),
				zap.String("remote", remote),
				zap.Duration("limit", f.hard))
			return Result{
				Remote:  remote,
				Outcome: model.FetchTimeout,
				Detail:  "exceeded hard timeout; likely waiting for credentials",
				Slow:    true,
			}

		case <-ctx.Done():
			_ = proc.Kill()
			<-done
			return Result{
				Remote:  remote,
				Outcome: model.FetchTimeout,
				Detail:  ctx.Err().Error(),
				Slow:    slow,
			}
		}
	}
}

func (f *Fetcher) completed(remote string, slow bool, err error, output string) Result {
	if err == nil {
		return Result{Remote: remote, Outcome: model.FetchSuccess, Slow: slow}
	}
	return Result{
		Remote:  remote,
		Outcome: gitx.ClassifyFetchOutput(output),
		Detail:  lastLine(output),
		Slow:    slow,
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
