// Package launcher starts external tools against a repository path.
// Each launcher kind maps to a user-configured command template; the
// tool runs detached and its exit status is never fed back into the
// status model.
package launcher

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/e-mit/gitscan/internal/config"
)

// Kind names a launcher capability.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindTerminal Kind = "terminal"
	KindIDE      Kind = "ide"
	KindDifftool Kind = "difftool"
)

// Kinds lists the supported launcher kinds in display order.
func Kinds() []Kind {
	return []Kind{KindFolder, KindTerminal, KindIDE, KindDifftool}
}

// PathToken is the placeholder replaced with the repository path in
// command templates.
const PathToken = "{path}"

// Launcher resolves command templates and starts external tools.
type Launcher struct {
	templates config.Launchers
	logger    *zap.Logger

	// start is overridable for tests.
	start func(name string, args ...string) error
}

// New builds a Launcher from the configured command templates.
func New(templates config.Launchers, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		templates: templates,
		logger:    logger,
		start:     startDetached,
	}
}

// Launch starts the tool configured for the given kind against the
// repository path. It returns once the process has started; the tool
// keeps running after gitscan exits.
func (l *Launcher) Launch(kind Kind, repoPath string) error {
	tmpl, ok := l.templates[string(kind)]
	if !ok || strings.TrimSpace(tmpl) == "" {
		return fmt.Errorf("no launcher configured for %q", kind)
	}
	argv := BuildCommand(tmpl, repoPath)
	if len(argv) == 0 {
		return fmt.Errorf("empty launcher command for %q", kind)
	}
	l.logger.Debug("launching external tool",
		zap.String("kind", string(kind)),
		zap.Strings("argv", argv))
	if err := l.start(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("launch %s: %w", kind, err)
	}
	return nil
}

// BuildCommand expands the path token in a command template and splits
// it into argv. A template without the token gets the path appended as
// its final argument.
func BuildCommand(tmpl, repoPath string) []string {
	fields := strings.Fields(tmpl)
	if len(fields) == 0 {
		return nil
	}
	expanded := false
	argv := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if strings.Contains(f, PathToken) {
			f = strings.ReplaceAll(f, PathToken, repoPath)
			expanded = true
		}
		argv = append(argv, f)
	}
	if !expanded && len(argv) > 0 {
		argv = append(argv, repoPath)
	}
	return argv
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child in the background so it never lingers as a zombie
	// while gitscan is still running.
	go func() { _ = cmd.Wait() }()
	return nil
}
