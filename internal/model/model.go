// Package model defines the core data types used throughout gitscan.
package model

import "time"

// Remote represents a single git remote.
type Remote struct {
	// Name is the configured remote name (for example, "origin").
	Name string `json:"name" yaml:"name"`
	// URL is the remote fetch URL.
	URL string `json:"url" yaml:"url"`
}

// Upstream names the remote tracking branch a local branch compares against.
type Upstream struct {
	// Remote is the remote name part of the upstream ref.
	Remote string `json:"remote" yaml:"remote"`
	// Ref is the short upstream ref (for example, "origin/main").
	Ref string `json:"ref" yaml:"ref"`
}

// Branch is a local branch with its optional upstream configuration.
type Branch struct {
	// Name is the short local branch name.
	Name string `json:"name" yaml:"name"`
	// Upstream is nil when the branch has no configured upstream.
	Upstream *Upstream `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	// Gone reports an upstream that is configured but no longer exists.
	Gone bool `json:"gone,omitempty" yaml:"gone,omitempty"`
}

// Head represents the current HEAD state of a repo.
type Head struct {
	// Branch is the current branch name, or a short hash when detached.
	Branch string `json:"branch" yaml:"branch"`
	// Detached reports whether HEAD is detached.
	Detached bool `json:"detached" yaml:"detached"`
}

// Worktree represents the working tree status. Nil for bare repos.
type Worktree struct {
	// Dirty indicates whether the worktree has any local modifications.
	Dirty bool `json:"dirty" yaml:"dirty"`
	// Staged is the count of staged (index) file changes.
	Staged int `json:"staged" yaml:"staged"`
	// Modified is the count of tracked files modified in the working tree.
	Modified int `json:"modified" yaml:"modified"`
	// Untracked is the count of untracked files.
	Untracked int `json:"untracked" yaml:"untracked"`
}

// Stash describes one saved stash entry.
type Stash struct {
	// Ref is the reflog selector (for example, "stash@{0}").
	Ref string `json:"ref" yaml:"ref"`
	// Label is the stash subject line.
	Label string `json:"label" yaml:"label"`
}

// Submodule names a nested repository referenced by its parent.
type Submodule struct {
	// Name is the submodule name from .gitmodules.
	Name string `json:"name" yaml:"name"`
	// Path is the submodule path relative to the parent repo root.
	Path string `json:"path" yaml:"path"`
}

// Commit is one entry of the recent-commit summary for the active branch.
type Commit struct {
	// Hash is the abbreviated commit hash.
	Hash string `json:"hash" yaml:"hash"`
	// Author is the commit author name.
	Author string `json:"author" yaml:"author"`
	// Time is the commit timestamp.
	Time time.Time `json:"time" yaml:"time"`
	// Subject is the first line of the commit message.
	Subject string `json:"subject" yaml:"subject"`
}

// FetchOutcome classifies the result of fetching one remote.
type FetchOutcome string

const (
	FetchSuccess FetchOutcome = "success"
	// FetchAuth marks credential rejection reported by git itself.
	FetchAuth FetchOutcome = "auth"
	// FetchNetwork marks immediate DNS/connection failures.
	FetchNetwork FetchOutcome = "network"
	// FetchTimeout marks a fetch killed at the hard threshold,
	// typically a credential prompt hung without a terminal.
	FetchTimeout FetchOutcome = "timeout"
	// FetchSkipped marks remotes that were never attempted.
	FetchSkipped FetchOutcome = "skipped"
)

// Failed reports whether the outcome excludes the remote from
// ahead/behind aggregation and raises the snapshot warning.
func (o FetchOutcome) Failed() bool {
	return o == FetchAuth || o == FetchNetwork || o == FetchTimeout
}

// RemoteFetch is the per-remote fetch result attached to a snapshot.
type RemoteFetch struct {
	// Remote is the remote name the fetch ran against.
	Remote string `json:"remote" yaml:"remote"`
	// Outcome is the classified fetch result.
	Outcome FetchOutcome `json:"outcome" yaml:"outcome"`
	// Detail carries the trailing git error text when the fetch failed.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	// Slow reports that the fetch crossed the soft threshold but completed.
	Slow bool `json:"slow,omitempty" yaml:"slow,omitempty"`
}

// LastCommit identifies the most recent commit on the active branch.
type LastCommit struct {
	// Hash is the full commit hash.
	Hash string `json:"hash" yaml:"hash"`
	// Time is the commit timestamp.
	Time time.Time `json:"time" yaml:"time"`
}

// Snapshot is the full status report for a single repository. All fields
// are rebuilt from scratch on every refresh cycle; a snapshot is never
// patched incrementally.
type Snapshot struct {
	// Path is the absolute local filesystem path to the repository.
	Path string `json:"path" yaml:"path"`
	// Name is the display name derived from the path.
	Name string `json:"name" yaml:"name"`
	// Bare indicates whether the repository has no working tree.
	Bare bool `json:"bare" yaml:"bare"`
	// Head describes the current HEAD branch/detached state.
	Head Head `json:"head" yaml:"head"`
	// Worktree is nil for bare repositories.
	Worktree *Worktree `json:"worktree" yaml:"worktree"`
	// Branches lists all local branches with upstream configuration.
	Branches []Branch `json:"branches" yaml:"branches"`
	// Remotes contains all configured remotes.
	Remotes []Remote `json:"remotes" yaml:"remotes"`
	// Stashes lists saved stash entries.
	Stashes []Stash `json:"stashes,omitempty" yaml:"stashes,omitempty"`
	// Tags lists tag names.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	// Submodules lists nested repositories referenced by this one.
	Submodules []Submodule `json:"submodules,omitempty" yaml:"submodules,omitempty"`
	// LastCommit is nil for repositories with no commits.
	LastCommit *LastCommit `json:"last_commit,omitempty" yaml:"last_commit,omitempty"`
	// RecentCommits holds the most recent commits on the active branch.
	RecentCommits []Commit `json:"recent_commits,omitempty" yaml:"recent_commits,omitempty"`
	// TotalAhead sums ahead counts over all included branch×remote pairs.
	TotalAhead int `json:"total_ahead" yaml:"total_ahead"`
	// TotalBehind sums behind counts over all included branch×remote pairs.
	TotalBehind int `json:"total_behind" yaml:"total_behind"`
	// Fetches records the per-remote fetch outcome for this cycle.
	Fetches []RemoteFetch `json:"fetches,omitempty" yaml:"fetches,omitempty"`
	// Warning is a human-readable summary set when any fetch degraded.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
	// Error holds repository-level failure text (unreadable metadata).
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// ErrorClass is a coarse category for Error (for example, unreadable).
	ErrorClass string `json:"error_class,omitempty" yaml:"error_class,omitempty"`
}

// Degraded reports whether the snapshot carries an error or warning.
func (s *Snapshot) Degraded() bool {
	return s.Error != "" || s.Warning != ""
}

// Report is the top-level output of a full refresh cycle.
type Report struct {
	// GeneratedAt is the timestamp when this report was produced.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	// Repos is the ordered set of repository snapshots.
	Repos []Snapshot `json:"repos" yaml:"repos"`
}
