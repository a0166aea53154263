package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e-mit/gitscan/internal/config"
	"github.com/e-mit/gitscan/internal/repolist"
)

var _ = Describe("DefaultConfig", func() {
	It("carries usable fetch defaults", func() {
		cfg := config.DefaultConfig()
		Expect(cfg.Fetch.Enabled).To(BeTrue())
		Expect(cfg.Fetch.SoftTimeoutSeconds).To(BeNumerically("<", cfg.Fetch.HardTimeoutSeconds))
		Expect(cfg.Fetch.Concurrency).To(BeNumerically(">", 0))
		Expect(cfg.CommitLimit).To(Equal(5))
	})
})

var _ = Describe("Load", func() {
	It("returns defaults for a missing file", func() {
		cfg, err := config.Load(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Fetch.Concurrency).To(Equal(8))
	})

	It("overlays file values on defaults", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		body := "fetch:\n  enabled: false\n  soft_timeout_seconds: 5\n  hard_timeout_seconds: 30\n  concurrency: 2\ncommit_limit: 3\n"
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Fetch.Enabled).To(BeFalse())
		Expect(cfg.Fetch.Concurrency).To(Equal(2))
		Expect(cfg.CommitLimit).To(Equal(3))
	})

	It("rejects a soft timeout above the hard timeout", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		body := "fetch:\n  soft_timeout_seconds: 99\n  hard_timeout_seconds: 30\n"
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())

		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown kind", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte("kind: SomethingElse\n"), 0o644)).To(Succeed())

		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Save", func() {
	It("round-trips through Load", func() {
		path := filepath.Join(GinkgoT().TempDir(), "deep", "config.yaml")
		cfg := config.DefaultConfig()
		cfg.Fetch.Concurrency = 3
		Expect(config.Save(&cfg, path)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Fetch.Concurrency).To(Equal(3))
	})
})

var _ = Describe("ResolveConfigPath", func() {
	It("prefers the explicit override", func() {
		path, err := config.ResolveConfigPath("/etc/gitscan/config.yaml", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/etc/gitscan/config.yaml"))
	})

	It("finds the nearest local dotfile in a parent directory", func() {
		root := GinkgoT().TempDir()
		nested := filepath.Join(root, "a", "b")
		Expect(os.MkdirAll(nested, 0o755)).To(Succeed())
		local := filepath.Join(root, config.LocalConfigFilename)
		Expect(os.WriteFile(local, []byte(""), 0o644)).To(Succeed())

		path, err := config.ResolveConfigPath("", nested)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(local))
	})

	It("honors the environment override", func() {
		GinkgoT().Setenv(config.EnvConfig, "/custom/dir")
		path, err := config.ResolveConfigPath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join("/custom/dir", "config.yaml")))
	})
})

var _ = Describe("RepoListPathFor", func() {
	It("defaults to the file beside the config", func() {
		cfg := config.DefaultConfig()
		got := config.RepoListPathFor(&cfg, "/home/u/.config/gitscan/config.yaml", repolist.Filename)
		Expect(got).To(Equal("/home/u/.config/gitscan/" + repolist.Filename))
	})

	It("resolves a relative override against the config directory", func() {
		cfg := config.DefaultConfig()
		cfg.RepoListPath = "state/repos.yaml"
		got := config.RepoListPathFor(&cfg, "/home/u/.config/gitscan/config.yaml", repolist.Filename)
		Expect(got).To(Equal("/home/u/.config/gitscan/state/repos.yaml"))
	})

	It("keeps an absolute override as-is", func() {
		cfg := config.DefaultConfig()
		cfg.RepoListPath = "/var/lib/gitscan/repos.yaml"
		got := config.RepoListPathFor(&cfg, "/anywhere/config.yaml", repolist.Filename)
		Expect(got).To(Equal("/var/lib/gitscan/repos.yaml"))
	})
})
