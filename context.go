package mediaio

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Mode identifies how an opened format context was set up and therefore how
// it is torn down.
type Mode int

const (
	ModeInput          Mode = iota // native-opened input, no bridge
	ModeOutput                     // native-opened output, no bridge
	ModeInputCustomIO              // input driven by a StreamBridge
	ModeOutputCustomIO             // output driven by a StreamBridge
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	case ModeInputCustomIO:
		return "input/custom-io"
	case ModeOutputCustomIO:
		return "output/custom-io"
	default:
		return "unknown"
	}
}

// teardownPolicy decides which native resources the close path may touch.
// The four implementations below are the only ones; each is created when a
// context opens and consumed once when it closes.
type teardownPolicy interface {
	mode() Mode
	teardown(eng engine, ctx *uintptr) error
}

type inputDefault struct{}

func (inputDefault) mode() Mode { return ModeInput }

func (inputDefault) teardown(eng engine, ctx *uintptr) error {
	eng.closeInput(ctx)
	return nil
}

// outputDefault closes pb and frees the context separately: output contexts
// do not own their I/O handle the way input contexts do.
type outputDefault struct{}

func (outputDefault) mode() Mode { return ModeOutput }

func (outputDefault) teardown(eng engine, ctx *uintptr) error {
	var err error
	if pb := eng.formatIO(*ctx); pb != 0 {
		if code := eng.closeIO(pb); code < 0 {
			err = newError(eng, "avio_close", code)
		}
	}
	eng.freeFormatContext(*ctx)
	*ctx = 0
	return err
}

// inputBridged never calls closeIO: pb belongs to the bridge. The engine
// marks contexts opened on a caller-supplied pb as custom I/O, so
// closeInput leaves it alone.
type inputBridged struct {
	bridge *StreamBridge
}

func (inputBridged) mode() Mode { return ModeInputCustomIO }

func (p inputBridged) teardown(eng engine, ctx *uintptr) error {
	eng.closeInput(ctx)
	return p.bridge.Close()
}

// outputBridged frees only the context struct, then lets the bridge release
// pb, its buffer and the stream. Pending bytes are flushed first so nothing
// written through the context is lost.
type outputBridged struct {
	bridge *StreamBridge
}

func (outputBridged) mode() Mode { return ModeOutputCustomIO }

func (p outputBridged) teardown(eng engine, ctx *uintptr) error {
	if pb := p.bridge.Pointer(); pb != 0 {
		eng.ioFlush(pb)
	}
	flushErr := p.bridge.Err()
	eng.freeFormatContext(*ctx)
	*ctx = 0
	return errors.Join(flushErr, p.bridge.Close())
}

// formatContext couples an opened AVFormatContext with its teardown policy.
type formatContext struct {
	eng    engine
	ptr    uintptr
	mode   Mode
	policy teardownPolicy
}

func newFormatContext(eng engine, ptr uintptr, policy teardownPolicy) *formatContext {
	logrus.WithFields(logrus.Fields{
		"function": "newFormatContext",
		"mode":     policy.mode().String(),
	}).Debug("Format context opened")
	return &formatContext{eng: eng, ptr: ptr, mode: policy.mode(), policy: policy}
}

// pb returns the I/O context installed in the format context.
func (c *formatContext) pb() uintptr {
	if c.ptr == 0 {
		return 0
	}
	return c.eng.formatIO(c.ptr)
}

func (c *formatContext) close() error {
	if c.ptr == 0 {
		return nil
	}
	policy := c.policy
	c.policy = nil
	err := policy.teardown(c.eng, &c.ptr)
	c.ptr = 0

	logrus.WithFields(logrus.Fields{
		"function": "formatContext.close",
		"mode":     c.mode.String(),
	}).Debug("Format context closed")
	return err
}
