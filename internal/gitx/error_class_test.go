// SPDX-License-Identifier: MIT
package gitx_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/e-mit/gitscan/internal/gitx"
	"github.com/e-mit/gitscan/internal/model"
)

var _ = Describe("ClassifyError", func() {
	It("returns empty for nil", func() {
		Expect(gitx.ClassifyError(nil)).To(Equal(""))
	})

	It("classifies context errors as timeout", func() {
		Expect(gitx.ClassifyError(context.DeadlineExceeded)).To(Equal("timeout"))
		Expect(gitx.ClassifyError(context.Canceled)).To(Equal("timeout"))
	})

	It("classifies wrapped ErrUnreadable", func() {
		err := fmt.Errorf("%w: fatal: not a git repository", gitx.ErrUnreadable)
		Expect(gitx.ClassifyError(err)).To(Equal("unreadable"))
	})

	It("classifies auth failures by message", func() {
		Expect(gitx.ClassifyError(errors.New("fatal: Authentication failed for 'https://x'"))).To(Equal("auth"))
		Expect(gitx.ClassifyError(errors.New("git@github.com: Permission denied (publickey)"))).To(Equal("auth"))
	})

	It("classifies network failures by message", func() {
		Expect(gitx.ClassifyError(errors.New("fatal: Could not resolve host: github.com"))).To(Equal("network"))
	})

	It("falls back to unknown", func() {
		Expect(gitx.ClassifyError(errors.New("something odd"))).To(Equal("unknown"))
	})
})

var _ = Describe("ClassifyFetchOutput", func() {
	It("maps credential errors to auth", func() {
		Expect(gitx.ClassifyFetchOutput("fatal: could not read Username for 'https://x': terminal prompts disabled")).
			To(Equal(model.FetchAuth))
	})

	It("maps everything else to network", func() {
		Expect(gitx.ClassifyFetchOutput("fatal: unable to access 'https://x': Could not resolve host")).
			To(Equal(model.FetchNetwork))
		Expect(gitx.ClassifyFetchOutput("some other failure")).
			To(Equal(model.FetchNetwork))
	})
})
