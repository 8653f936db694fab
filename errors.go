package mediaio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotSupported is returned when an optional operation is not supported.
	ErrNotSupported = errors.New("operation not supported")

	// ErrOutOfMemory is returned when the native engine cannot allocate a buffer or context.
	ErrOutOfMemory = errors.New("native allocation failed")

	// ErrEngineUnavailable is returned when libavformat/libavutil cannot be loaded.
	ErrEngineUnavailable = errors.New("ffmpeg libraries not available")

	// ErrClosed is returned by operations on a closed bridge or context.
	ErrClosed = errors.New("already closed")

	// ErrNotWritable is returned when an output is opened on a bridge without write capability.
	ErrNotWritable = errors.New("stream bridge is not writable")

	// ErrNotReadable is returned when an input is opened on a bridge without read capability.
	ErrNotReadable = errors.New("stream bridge is not readable")
)

// Native status codes. Negative values follow libavutil's AVERROR convention.
const (
	averrorEOF int32 = -0x20464F45 // FFERRTAG('E','O','F',' ')

	avseekSize  = 0x10000
	avseekForce = 0x20000

	avioFlagWrite = 2
)

// Error is a native status code returned by libavformat.
type Error struct {
	Op      string // native call that failed, e.g. "avformat_open_input"
	Code    int    // negative AVERROR value
	Message string // av_strerror text, may be empty
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("error code %d", e.Code)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Is lets callers match end-of-stream and allocation failures with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case io.EOF:
		return e.Code == int(averrorEOF)
	case ErrOutOfMemory:
		return e.Code == int(averrorENOMEM)
	}
	return false
}

func newError(eng engine, op string, code int32) *Error {
	e := &Error{Op: op, Code: int(code)}
	if eng != nil {
		e.Message = eng.strerror(code)
	}
	return e
}

type timeout interface {
	Timeout() bool
}

// statusFromError maps a Go I/O failure onto the status code the engine
// expects from a read or write callback.
func statusFromError(err error) int32 {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return averrorEOF
	}
	if isInterrupted(err) {
		return averrorEINTR
	}
	if wouldBlock(err) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return averrorEAGAIN
	}
	var t timeout
	if errors.As(err, &t) && t.Timeout() {
		return averrorEAGAIN
	}
	return averrorEIO
}
