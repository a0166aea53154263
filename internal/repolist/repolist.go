// SPDX-License-Identifier: MIT
// Package repolist persists the discovered repository set between runs
// so a refresh does not need a fresh filesystem scan.
package repolist

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// Filename is the repo list file stored beside the config file.
const Filename = "repos.yaml"

// Entry is a single repository in the persisted set.
type Entry struct {
	// Path is the absolute repository root path, the unique key.
	Path string `yaml:"path"`
	// Bare records whether the repository was discovered as bare.
	Bare bool `yaml:"bare,omitempty"`
}

// List is the ordered collection of all known repository paths. It is
// replaced wholesale by a new discovery run, never patched.
type List struct {
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
	Repos     []Entry   `yaml:"repos"`
}

// Load reads the repo list file from the given path. A missing file
// surfaces as an os.IsNotExist error so callers can trigger first-run
// discovery.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list List
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Save writes the repo list to the given path.
func Save(list *List, path string) error {
	if list == nil {
		return errors.New("repo list is nil")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(list)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Replace swaps in a freshly discovered set of entries, dropping
// everything the new scan did not report.
func (l *List) Replace(entries []Entry) {
	l.Repos = append([]Entry(nil), entries...)
	l.UpdatedAt = time.Now()
}

// Paths returns the ordered repository paths.
func (l *List) Paths() []string {
	paths := make([]string, 0, len(l.Repos))
	for _, entry := range l.Repos {
		paths = append(paths, entry.Path)
	}
	return paths
}

// Find returns the entry for the given path, or nil.
func (l *List) Find(path string) *Entry {
	for i := range l.Repos {
		if l.Repos[i].Path == path {
			return &l.Repos[i]
		}
	}
	return nil
}
