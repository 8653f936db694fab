//go:build unix

package mediaio

import (
	"errors"

	"golang.org/x/sys/unix"
)

// averror mirrors the AVERROR(e) macro.
func averror(errno unix.Errno) int32 {
	return -int32(errno)
}

var (
	averrorEINTR  = averror(unix.EINTR)
	averrorEAGAIN = averror(unix.EAGAIN)
	averrorEIO    = averror(unix.EIO)
	averrorEINVAL = averror(unix.EINVAL)
	averrorENOSYS = averror(unix.ENOSYS)
	averrorENOMEM = averror(unix.ENOMEM)
)

func isInterrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}

func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
