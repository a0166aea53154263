package gitscan

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/e-mit/gitscan/internal/engine"
	"github.com/e-mit/gitscan/internal/fetch"
	"github.com/e-mit/gitscan/internal/model"
	"github.com/e-mit/gitscan/internal/tableutil"
	"github.com/e-mit/gitscan/internal/termstyle"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every remote of every listed repository",
	Long:  "Fetch updates the remote-tracking refs for all repositories in the repo list and reports the per-remote outcome. Working trees, indexes, and local branch refs are never modified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgPath, err := loadConfigForCommand()
		if err != nil {
			return err
		}

		if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
			cfg.Fetch.Concurrency = v
		}
		if v, _ := cmd.Flags().GetInt("soft-timeout"); v > 0 {
			cfg.Fetch.SoftTimeoutSeconds = v
		}
		if v, _ := cmd.Flags().GetInt("hard-timeout"); v > 0 {
			cfg.Fetch.HardTimeoutSeconds = v
		}
		if cfg.Fetch.SoftTimeoutSeconds > cfg.Fetch.HardTimeoutSeconds {
			return fmt.Errorf("soft timeout %ds exceeds hard timeout %ds",
				cfg.Fetch.SoftTimeoutSeconds, cfg.Fetch.HardTimeoutSeconds)
		}
		// The fetch command always fetches, even when the config
		// disables fetching for status runs.
		cfg.Fetch.Enabled = true

		repoOverride, _ := cmd.Flags().GetString("repo")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")

		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		paths, err := statusPaths(cmd, cfg, cfgPath, repoOverride, logger)
		if err != nil {
			return err
		}

		soft := time.Duration(cfg.Fetch.SoftTimeoutSeconds) * time.Second
		hard := time.Duration(cfg.Fetch.HardTimeoutSeconds) * time.Second
		orch := fetch.NewOrchestrator(
			fetch.NewFetcher(nil, soft, hard, logger),
			true,
			cfg.Fetch.Concurrency,
			logger,
		)
		eng := engine.New(cfg, nil, orch, logger)

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
			if err := writeFetchTable(cmd, report, noHeaders); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format %q", format)
		}

		raiseExitCode(statusExitCode(report))
		infof(cmd, "fetch completed: %d repos", len(report.Repos))
		return nil
	},
}

func writeFetchTable(cmd *cobra.Command, report *model.Report, noHeaders bool) error {
	w := tableutil.New(cmd.OutOrStdout(), true)
	if err := tableutil.PrintHeaders(w, noHeaders, "NAME\tREMOTE\tOUTCOME\tSLOW\tDETAIL"); err != nil {
		return err
	}
	for _, repo := range report.Repos {
		if repo.Error != "" {
			cell := termstyle.Colorize(colorOutputEnabled, repo.ErrorClass, termstyle.Error)
			if _, err := fmt.Fprintf(w, "%s\t-\t%s\t-\t%s\n", repo.Name, cell, repo.Error); err != nil {
				return err
			}
			continue
		}
		for _, f := range repo.Fetches {
			remote := f.Remote
			if remote == "" {
				remote = "-"
			}
			slow := "no"
			if f.Slow {
				slow = termstyle.Colorize(colorOutputEnabled, "yes", termstyle.Warn)
			}
			color := termstyle.Clean
			if f.Outcome.Failed() {
				color = termstyle.Error
			} else if f.Outcome == model.FetchSkipped {
				color = ""
			}
			outcome := termstyle.Colorize(colorOutputEnabled, string(f.Outcome), color)
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", repo.Name, remote, outcome, slow, f.Detail); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

func init() {
	fetchCmd.Flags().String("repo", "", "fetch a single repository path instead of the full list")
	fetchCmd.Flags().Int("concurrency", 0, "override the fetch concurrency limit")
	fetchCmd.Flags().Int("soft-timeout", 0, "override the slow-fetch threshold in seconds")
	fetchCmd.Flags().Int("hard-timeout", 0, "override the kill threshold in seconds")
	addFormatFlag(fetchCmd, "output format: table, json, or yaml")
	addNoHeadersFlag(fetchCmd)

	rootCmd.AddCommand(fetchCmd)
}
