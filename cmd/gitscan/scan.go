package gitscan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e-mit/gitscan/internal/cliio"
	"github.com/e-mit/gitscan/internal/engine"
	"github.com/e-mit/gitscan/internal/repolist"
)

var scanCmd = &cobra.Command{
	Use:   "scan [roots...]",
	Short: "Discover git repositories and save the repo list",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgPath, err := loadConfigForCommand()
		if err != nil {
			return err
		}

		rootsFlag, _ := cmd.Flags().GetString("roots")
		roots := append(append([]string{}, args...), splitCSV(rootsFlag)...)
		if len(roots) == 0 {
			line, err := cliio.NewPrompter(cmd.OutOrStdout(), cmd.InOrStdin()).Line("Directory to scan for git repositories: ")
			if err != nil {
				return err
			}
			if line == "" {
				return fmt.Errorf("no scan roots provided")
			}
			roots = []string{line}
		}
		for i, root := range roots {
			abs, err := absPath(root)
			if err != nil {
				return err
			}
			roots[i] = abs
		}

		exclude, _ := cmd.Flags().GetString("exclude")
		followSymlinks, _ := cmd.Flags().GetBool("follow-symlinks")
		writeList, _ := cmd.Flags().GetBool("write-list")
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")

		logger := newLogger()
		defer func() { _ = logger.Sync() }()
		eng := engine.New(cfg, nil, nil, logger)

		entries, err := eng.Scan(cmd.Context(), engine.ScanOptions{
			Roots:          roots,
			Exclude:        splitCSV(exclude),
			FollowSymlinks: followSymlinks,
		})
		if err != nil {
			return err
		}

		listPath := ""
		if writeList {
			// The repo list is replaced wholesale: repositories that
			// disappeared from disk drop out of the set.
			var list *repolist.List
			list, listPath, err = loadRepoList(cfg, cfgPath)
			if err != nil {
				list = &repolist.List{}
			}
			list.Replace(entries)
			if err := repolist.Save(list, listPath); err != nil {
				return err
			}
		}

		switch format {
		case "json", "yaml":
			if err := writeStructured(cmd, format, entries); err != nil {
				return err
			}
		case "table":
			if err := writeScanTable(cmd, entries, noHeaders); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format %q", format)
		}

		if writeList {
			infof(cmd, "scan completed: %d repos saved to %s", len(entries), listPath)
		} else {
			infof(cmd, "scan completed: %d repos", len(entries))
		}
		return nil
	},
}

func writeScanTable(cmd *cobra.Command, entries []repolist.Entry, noHeaders bool) error {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		bare := "no"
		if entry.Bare {
			bare = "yes"
		}
		rows = append(rows, []string{entry.Path, bare})
	}
	return cliio.WriteTable(cmd.OutOrStdout(), false, noHeaders, []string{"PATH", "BARE"}, rows)
}

func init() {
	scanCmd.Flags().String("roots", "", "comma-separated root directories to scan")
	scanCmd.Flags().String("exclude", "", "comma-separated glob patterns to exclude")
	scanCmd.Flags().Bool("follow-symlinks", false, "follow symbolic links during scan")
	scanCmd.Flags().Bool("write-list", true, "write discovered repos to the repo list")
	addFormatFlag(scanCmd, "output format: table, json, or yaml")
	addNoHeadersFlag(scanCmd)

	rootCmd.AddCommand(scanCmd)
}
