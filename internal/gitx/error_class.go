// SPDX-License-Identifier: MIT
package gitx

import (
	"context"
	"errors"
	"strings"

	"github.com/e-mit/gitscan/internal/model"
)

// ErrUnreadable marks corrupt or missing repository metadata. A refresh
// cycle for such a repository stops at the local read.
var ErrUnreadable = errors.New("repository unreadable")

// ClassifyError maps git/process errors into broad actionable categories.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	if errors.Is(err, ErrUnreadable) {
		return "unreadable"
	}

	msg := strings.ToLower(err.Error())
	// Heuristics are intentionally broad to keep categories actionable for users.
	switch {
	case containsAny(msg, "permission denied", "authentication failed", "access denied", "publickey", "could not read username", "could not read password", "credential"):
		return "auth"
	case containsAny(msg, "could not resolve host", "network is unreachable", "connection refused", "connection timed out", "failed to connect", "temporary failure in name resolution", "unable to access"):
		return "network"
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return "timeout"
	case containsAny(msg, "not a git repository", "bad object", "corrupt", "object file"):
		return "unreadable"
	default:
		return "unknown"
	}
}

// ClassifyFetchOutput inspects the stderr of a completed-but-failed fetch
// and maps it onto a fetch outcome. Anything that is not recognizably an
// authentication problem counts as a network failure: the process came
// back on its own, so it cannot have been a hang.
func ClassifyFetchOutput(stderr string) model.FetchOutcome {
	lower := strings.ToLower(stderr)

	switch {
	case containsAny(lower, "authentication failed", "permission denied", "access denied", "publickey", "could not read username", "could not read password", "invalid credentials"):
		return model.FetchAuth
	default:
		return model.FetchNetwork
	}
}

func containsAny(msg string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
