package mediaio

import (
	"errors"
	"io"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// The three trampolines below are the only entry points the engine has into
// Go. They are shared by every bridge and recover the stream from the opaque
// handle. The engine calls them serially on the goroutine driving the
// context; nothing here locks.

// readPacket is installed as AVIOContext.read_packet.
func readPacket(opaque, buf uintptr, size int32) int32 {
	box := lookupStream(opaque)
	if box == nil || box.r == nil {
		return averrorEIO
	}
	return readStream(box, cBytes(buf, size))
}

// writePacket is installed as AVIOContext.write_packet.
func writePacket(opaque, buf uintptr, size int32) int32 {
	box := lookupStream(opaque)
	if box == nil || box.w == nil {
		return averrorEIO
	}
	return writeStream(box, cBytes(buf, size))
}

// seekPacket is installed as AVIOContext.seek.
func seekPacket(opaque uintptr, offset int64, whence int32) int64 {
	box := lookupStream(opaque)
	if box == nil || box.s == nil {
		return int64(averrorENOSYS)
	}
	return seekStream(box, offset, whence)
}

func cBytes(buf uintptr, size int32) []byte {
	if buf == 0 || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size))
}

// readStream fills p from the stream. A read that produces no bytes is end of
// stream and is reported as AVERROR_EOF, never as a zero length. An error
// returned together with data is held back and reported by the next call.
func readStream(box *streamBox, p []byte) int32 {
	if err := box.deferredErr; err != nil {
		box.deferredErr = nil
		return readStatus(box, err)
	}
	n, err := box.r.Read(p)
	if n > 0 {
		box.deferredErr = err
		return int32(n)
	}
	return readStatus(box, err)
}

func readStatus(box *streamBox, err error) int32 {
	if err == nil || errors.Is(err, io.EOF) {
		return averrorEOF
	}
	box.lastErr = err
	return statusFromError(err)
}

func writeStream(box *streamBox, p []byte) int32 {
	n, err := box.w.Write(p)
	if err != nil {
		box.lastErr = err
		return statusFromError(err)
	}
	return int32(n)
}

func seekStream(box *streamBox, offset int64, whence int32) int64 {
	whence &^= avseekForce

	if whence == avseekSize {
		size, err := streamSize(box.s)
		if err != nil {
			return int64(averrorENOSYS)
		}
		return size
	}

	switch whence {
	case io.SeekStart, io.SeekCurrent, io.SeekEnd:
	default:
		return int64(averrorEINVAL)
	}

	pos, err := box.s.Seek(offset, int(whence))
	if err != nil {
		box.lastErr = err
		return int64(averrorEIO)
	}
	return pos
}

// streamSize reports the total size of s and leaves the position where it was.
func streamSize(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if cur != end {
		if _, err := s.Seek(cur, io.SeekStart); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "streamSize",
				"position": cur,
				"size":     end,
				"error":    err,
			}).Warn("Failed to restore stream position after size query")
			return 0, err
		}
	}
	return end, nil
}
