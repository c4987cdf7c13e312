//go:build unix

// File: asyncio/errno_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package asyncio

import "golang.org/x/sys/unix"

// Errno is the numeric error code surfaced through the legacy interfaces,
// bit-compatible with the host's errno values on unix platforms.
type Errno = unix.Errno

const (
	EINVAL    = unix.EINVAL
	ENOMEM    = unix.ENOMEM
	EINTR     = unix.EINTR
	ECANCELED = unix.ECANCELED
	ETIMEDOUT = unix.ETIMEDOUT
)
