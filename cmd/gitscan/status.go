// SPDX-License-Identifier: MIT
package gitscan

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/e-mit/gitscan/internal/cliio"
	"github.com/e-mit/gitscan/internal/config"
	"github.com/e-mit/gitscan/internal/engine"
	"github.com/e-mit/gitscan/internal/fetch"
	"github.com/e-mit/gitscan/internal/model"
	"github.com/e-mit/gitscan/internal/repolist"
	"github.com/e-mit/gitscan/internal/tableutil"
	"github.com/e-mit/gitscan/internal/termstyle"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report status for every repository in the repo list",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgPath, err := loadConfigForCommand()
		if err != nil {
			return err
		}

		noFetch, _ := cmd.Flags().GetBool("no-fetch")
		repoOverride, _ := cmd.Flags().GetString("repo")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		commitCount, _ := cmd.Flags().GetInt("commits")
		if commitCount > 0 {
			cfg.CommitLimit = commitCount
		}

		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		paths, err := statusPaths(cmd, cfg, cfgPath, repoOverride, logger)
		if err != nil {
			return err
		}

		eng := newStatusEngine(cfg, noFetch, logger)
		report, err := eng.Refresh(cmd.Context(), paths, nil)
		if err != nil {
			return err
		}

		switch format {
		case "json", "yaml":
			if err := writeStructured(cmd, format, report); err != nil {
				return err
			}
		case "table":
			setColorOutputMode(cmd, format)
			if err := writeStatusTable(cmd, report, noHeaders); err != nil {
				return err
			}
			if commitCount > 0 {
				writeRecentCommits(cmd, report)
			}
		default:
			return fmt.Errorf("unsupported format %q", format)
		}

		raiseExitCode(statusExitCode(report))
		infof(cmd, "status completed: %d repos", len(report.Repos))
		return nil
	},
}

// newStatusEngine builds an engine whose orchestrator honors both the
// configured fetch toggle and a per-invocation --no-fetch override.
func newStatusEngine(cfg *config.Config, noFetch bool, logger *zap.Logger) *engine.Engine {
	enabled := cfg.Fetch.Enabled && !noFetch
	soft := time.Duration(cfg.Fetch.SoftTimeoutSeconds) * time.Second
	hard := time.Duration(cfg.Fetch.HardTimeoutSeconds) * time.Second
	orch := fetch.NewOrchestrator(
		fetch.NewFetcher(nil, soft, hard, logger),
		enabled,
		cfg.Fetch.Concurrency,
		logger,
	)
	return engine.New(cfg, nil, orch, logger)
}

// statusPaths resolves the repository paths for this run. A missing
// repo list triggers first-run discovery: the user is prompted for a
// directory, which is scanned and persisted before the cycle starts.
func statusPaths(cmd *cobra.Command, cfg *config.Config, cfgPath, repoOverride string, logger *zap.Logger) ([]string, error) {
	if repoOverride != "" {
		abs, err := absPath(repoOverride)
		if err != nil {
			return nil, err
		}
		return []string{abs}, nil
	}

	list, listPath, err := loadRepoList(cfg, cfgPath)
	if err == nil {
		return list.Paths(), nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	infof(cmd, "no repo list found at %s", listPath)
	prompter := cliio.NewPrompter(cmd.OutOrStdout(), cmd.InOrStdin())
	line, err := prompter.Line("Directory to scan for git repositories: ")
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, fmt.Errorf("no repo list and no scan root provided (run gitscan scan first)")
	}
	root, err := absPath(line)
	if err != nil {
		return nil, err
	}

	eng := engine.New(cfg, nil, nil, logger)
	entries, err := eng.Scan(cmd.Context(), engine.ScanOptions{Roots: []string{root}})
	if err != nil {
		return nil, err
	}
	list = &repolist.List{}
	list.Replace(entries)

	save, err := prompter.YesNo(fmt.Sprintf("Save %d repos to %s? [y/N] ", len(entries), listPath))
	if err != nil {
		return nil, err
	}
	if save {
		if err := repolist.Save(list, listPath); err != nil {
			return nil, err
		}
		infof(cmd, "saved %d repos to %s", len(entries), listPath)
	}
	return list.Paths(), nil
}

func writeStatusTable(cmd *cobra.Command, report *model.Report, noHeaders bool) error {
	w := tableutil.New(cmd.OutOrStdout(), true)
	headers := "NAME\tBRANCH\tDIRTY\tSTASH\tTAGS\tSUBS\tREMOTES\tAHEAD\tBEHIND\tFETCH\tAGE\tWARNING"
	if err := tableutil.PrintHeaders(w, noHeaders, headers); err != nil {
		return err
	}
	now := time.Now()
	for _, repo := range report.Repos {
		if _, err := fmt.Fprintf(w, "%s\n", strings.Join(statusRow(repo, now), "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func statusRow(repo model.Snapshot, now time.Time) []string {
	if repo.Error != "" {
		return []string{
			repo.Name,
			"-", "-", "-", "-", "-", "-", "-", "-", "-", "-",
			termstyle.Colorize(colorOutputEnabled, repo.ErrorClass+": "+repo.Error, termstyle.Error),
		}
	}

	branch := repo.Head.Branch
	if repo.Head.Detached {
		branch = "detached:" + branch
	}
	if repo.Bare {
		branch = termstyle.Colorize(colorOutputEnabled, "bare", termstyle.Info)
	}

	dirty := "-"
	if repo.Worktree != nil {
		dirty = dirtyCell(repo.Worktree)
	}

	stash := "-"
	if n := len(repo.Stashes); n > 0 {
		stash = termstyle.Colorize(colorOutputEnabled, fmt.Sprintf("%d", n), termstyle.Warn)
	}

	age := "-"
	if repo.LastCommit != nil {
		age = formatAge(repo.LastCommit.Time, now)
	}

	warning := repo.Warning
	if warning != "" {
		warning = termstyle.Colorize(colorOutputEnabled, warning, termstyle.Warn)
	}

	return []string{
		repo.Name,
		branch,
		dirty,
		stash,
		fmt.Sprintf("%d", len(repo.Tags)),
		fmt.Sprintf("%d", len(repo.Submodules)),
		fmt.Sprintf("%d", len(repo.Remotes)),
		countCell(repo.TotalAhead),
		countCell(repo.TotalBehind),
		fetchCell(repo.Fetches),
		age,
		warning,
	}
}

// dirtyCell summarizes the working tree as S/M/U letters so staged,
// modified, and untracked changes stay distinguishable in one column.
func dirtyCell(wt *model.Worktree) string {
	if !wt.Dirty {
		return termstyle.Colorize(colorOutputEnabled, "clean", termstyle.Clean)
	}
	var flags []string
	if wt.Staged > 0 {
		flags = append(flags, "S")
	}
	if wt.Modified > 0 {
		flags = append(flags, "M")
	}
	if wt.Untracked > 0 {
		flags = append(flags, "U")
	}
	return termstyle.Colorize(colorOutputEnabled, strings.Join(flags, ""), termstyle.Warn)
}

func countCell(n int) string {
	if n == 0 {
		return "0"
	}
	return termstyle.Colorize(colorOutputEnabled, fmt.Sprintf("%d", n), termstyle.Warn)
}

// fetchCell reduces the per-remote outcomes to the worst one observed.
func fetchCell(fetches []model.RemoteFetch) string {
	if len(fetches) == 0 {
		return "-"
	}
	worst := model.FetchSuccess
	for _, f := range fetches {
		if outcomeRank(f.Outcome) > outcomeRank(worst) {
			worst = f.Outcome
		}
	}
	color := termstyle.Clean
	if worst.Failed() {
		color = termstyle.Error
	} else if worst == model.FetchSkipped {
		color = termstyle.Detail
	}
	return termstyle.Colorize(colorOutputEnabled, string(worst), color)
}

func outcomeRank(o model.FetchOutcome) int {
	switch o {
	case model.FetchSuccess:
		return 0
	case model.FetchSkipped:
		return 1
	case model.FetchNetwork:
		return 2
	case model.FetchAuth:
		return 3
	case model.FetchTimeout:
		return 4
	default:
		return 5
	}
}

func writeRecentCommits(cmd *cobra.Command, report *model.Report) {
	for _, repo := range report.Repos {
		if len(repo.RecentCommits) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", repo.Name)
		for _, c := range repo.RecentCommits {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s  %s  %s\n",
				c.Hash, c.Time.Format("2006-01-02"), c.Author, c.Subject)
		}
	}
}

// statusExitCode maps report health to the shell exit code: warnings
// raise 1, per-repository errors raise 2.
func statusExitCode(report *model.Report) int {
	code := 0
	for _, repo := range report.Repos {
		switch {
		case repo.Error != "" && code < 2:
			code = 2
		case repo.Warning != "" && code < 1:
			code = 1
		}
	}
	return code
}

func init() {
	statusCmd.Flags().Bool("no-fetch", false, "skip remote fetches; report from existing tracking refs")
	statusCmd.Flags().String("repo", "", "refresh a single repository path instead of the full list")
	statusCmd.Flags().Int("commits", 0, "print the N most recent commits per repository after the table")
	addFormatFlag(statusCmd, "output format: table, json, or yaml")
	addNoHeadersFlag(statusCmd)

	rootCmd.AddCommand(statusCmd)
}
