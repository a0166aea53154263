package gitx

import (
	"strconv"
	"strings"
	"time"

	"github.com/e-mit/gitscan/internal/model"
)

// ParsePorcelainStatus parses the output of `git status --porcelain=v1`
// into a Worktree struct. Staged, modified and untracked are tracked
// independently, not collapsed into one flag.
func ParsePorcelainStatus(output string) *model.Worktree {
	wt := &model.Worktree{}
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 2 {
			continue
		}
		x := line[0]
		y := line[1]

		if x == '?' && y == '?' {
			wt.Untracked++
			continue
		}
		if x != ' ' && x != '?' {
			wt.Staged++
		}
		if y != ' ' && y != '?' {
			wt.Modified++
		}
	}
	wt.Dirty = wt.Staged > 0 || wt.Modified > 0 || wt.Untracked > 0
	return wt
}

// ParseBranches parses the pipe-delimited output of:
//
//	git for-each-ref refs/heads --format="%(refname:short)|%(upstream:short)|%(upstream:remotename)|%(upstream:track)"
func ParseBranches(output string) []model.Branch {
	if strings.TrimSpace(output) == "" {
		return nil
	}
	var branches []model.Branch
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		branch := model.Branch{Name: parts[0]}
		if len(parts) > 2 && parts[1] != "" {
			branch.Upstream = &model.Upstream{
				Remote: parts[2],
				Ref:    parts[1],
			}
		}
		if len(parts) > 3 && strings.Contains(parts[3], "[gone]") {
			branch.Gone = true
		}
		branches = append(branches, branch)
	}
	return branches
}

// ParseStashList parses `git stash list --format=%gd|%gs` output.
func ParseStashList(output string) []model.Stash {
	if strings.TrimSpace(output) == "" {
		return nil
	}
	var stashes []model.Stash
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		stash := model.Stash{Ref: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			stash.Label = strings.TrimSpace(parts[1])
		}
		stashes = append(stashes, stash)
	}
	return stashes
}

// ParseSubmodules parses the output of:
//
//	git config --file .gitmodules --get-regexp ^submodule\..*\.path$
//
// Each line looks like "submodule.<name>.path <path>".
func ParseSubmodules(output string) []model.Submodule {
	if strings.TrimSpace(output) == "" {
		return nil
	}
	var subs []model.Submodule
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
		if len(fields) != 2 {
			continue
		}
		key := fields[0]
		if !strings.HasPrefix(key, "submodule.") || !strings.HasSuffix(key, ".path") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, "submodule."), ".path")
		subs = append(subs, model.Submodule{
			Name: name,
			Path: strings.TrimSpace(fields[1]),
		})
	}
	return subs
}

// ParseCommitLog parses `git log --format=%h|%an|%ct|%s` output.
// Subjects containing "|" survive because the split is bounded.
func ParseCommitLog(output string) []model.Commit {
	if strings.TrimSpace(output) == "" {
		return nil
	}
	var commits []model.Commit
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil {
			continue
		}
		commits = append(commits, model.Commit{
			Hash:    strings.TrimSpace(parts[0]),
			Author:  strings.TrimSpace(parts[1]),
			Time:    time.Unix(ts, 0).UTC(),
			Subject: parts[3],
		})
	}
	return commits
}

// ParseRevListCount parses the output of:
//
//	git rev-list --left-right --count <branch>...<upstream>
//
// Returns (ahead, behind).
func ParseRevListCount(output string) (int, int) {
	output = strings.TrimSpace(output)
	if output == "" {
		return 0, 0
	}
	parts := strings.SplitN(output, "\t", 2)
	if len(parts) != 2 {
		// Some git versions separate with spaces.
		parts = strings.Fields(output)
		if len(parts) != 2 {
			return 0, 0
		}
	}
	ahead, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
	behind, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
	return ahead, behind
}
