package gitscan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/e-mit/gitscan/internal/config"
	"github.com/e-mit/gitscan/internal/launcher"
)

var openCmd = &cobra.Command{
	Use:   "open <kind> <repo>",
	Short: "Open a repository in an external tool",
	Long:  "Open starts the configured external tool (folder, terminal, ide, or difftool) for a repository. The repo argument is a path, or the name of a repository from the saved repo list. Command templates come from the launchers section of the config file; {path} is replaced with the repository path.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgPath, err := loadConfigForCommand()
		if err != nil {
			return err
		}

		kind, err := parseLauncherKind(args[0])
		if err != nil {
			return err
		}
		path, err := resolveRepoArg(cfg, cfgPath, args[1])
		if err != nil {
			return err
		}

		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		l := launcher.New(cfg.Launchers, logger)
		if err := l.Launch(kind, path); err != nil {
			return err
		}
		infof(cmd, "opened %s for %s", kind, path)
		return nil
	},
}

// resolveRepoArg maps the repo argument onto a concrete path. A saved
// repo list entry wins, matched by absolute path first and then by
// repository name; anything unmatched is treated as a plain path.
func resolveRepoArg(cfg *config.Config, cfgPath, arg string) (string, error) {
	abs, err := absPath(arg)
	if err != nil {
		return "", err
	}
	list, _, err := loadRepoList(cfg, cfgPath)
	if err != nil {
		return abs, nil
	}
	if entry := list.Find(abs); entry != nil {
		return entry.Path, nil
	}

	var matches []string
	for _, p := range list.Paths() {
		if filepath.Base(p) == arg {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return abs, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("repo name %q is ambiguous: %s", arg, strings.Join(matches, ", "))
	}
}

func parseLauncherKind(raw string) (launcher.Kind, error) {
	kind := launcher.Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range launcher.Kinds() {
		if kind == known {
			return kind, nil
		}
	}
	names := make([]string, 0, len(launcher.Kinds()))
	for _, known := range launcher.Kinds() {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("unknown launcher kind %q (expected one of: %s)", raw, strings.Join(names, ", "))
}

func init() {
	rootCmd.AddCommand(openCmd)
}
