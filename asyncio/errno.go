// File: asyncio/errno.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Maps a cooperative failure (cancellation, timeout, or any other
// reactor/callback failure) to the errno the legacy callers expect.

package asyncio

import (
	"errors"

	"go.uber.org/zap"

	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/xlog"
)

// FailureKind classifies a pending cooperative failure.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureCanceled
	FailureTimeout
	FailureOther
)

// Classify inspects err (as produced by a Waker) and reports its kind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, api.ErrCanceled):
		return FailureCanceled
	case errors.Is(err, api.ErrOperationTimeout):
		return FailureTimeout
	default:
		return FailureOther
	}
}

// ToErrno implements the exception-to-errno mapper: ECANCELED for
// cancellation, ETIMEDOUT for a waker timeout, else EINTR (the failure is
// logged as a warning here in that case). A nil failure also maps to
// EINTR, the "no failure pending" branch, without a warning.
func ToErrno(err error) Errno {
	switch Classify(err) {
	case FailureCanceled:
		return ECANCELED
	case FailureTimeout:
		return ETIMEDOUT
	case FailureOther:
		xlog.L().Warn("asyncio: cooperative failure mapped to EINTR", zap.Error(err))
		return EINTR
	default:
		return EINTR
	}
}
