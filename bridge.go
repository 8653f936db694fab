package mediaio

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// StreamBridge owns a native AVIOContext whose callbacks read from, write to
// or seek a Go stream.
//
// A bridge owns three things: the native I/O buffer, the AVIOContext struct
// and the boxed stream. Close releases them together, in that order, exactly
// once. If the stream implements io.Closer it is closed as part of the
// release. The bridge owns the stream from the moment a constructor is
// called, so a failed construction closes it too.
//
// The engine invokes the stream on whichever goroutine drives the context
// that the bridge is installed in. The bridge does no locking of its own; a
// stream shared between goroutines must synchronize internally.
type StreamBridge struct {
	eng     engine
	ioctx   uintptr
	opaque  uintptr
	caps    Capability
	release func(opaque uintptr) error
}

// NewReadBridge creates a bridge over a read-only, non-seekable stream.
func NewReadBridge(r io.Reader) (*StreamBridge, error) {
	return newDefaultBridge(&streamBox{r: r}, r, CapRead)
}

// NewReadSeekBridge creates a bridge over a readable, seekable stream.
func NewReadSeekBridge(rs io.ReadSeeker) (*StreamBridge, error) {
	return newDefaultBridge(&streamBox{r: rs, s: rs}, rs, CapRead|CapSeek)
}

// NewReadWriteSeekBridge creates a bridge over a readable, writable, seekable stream.
func NewReadWriteSeekBridge(rws io.ReadWriteSeeker) (*StreamBridge, error) {
	return newDefaultBridge(&streamBox{r: rws, w: rws, s: rws}, rws, CapRead|CapWrite|CapSeek)
}

// NewReadWriteBridge creates a bridge over a readable, writable, non-seekable stream.
func NewReadWriteBridge(rw io.ReadWriter) (*StreamBridge, error) {
	return newDefaultBridge(&streamBox{r: rw, w: rw}, rw, CapRead|CapWrite)
}

// NewWriteBridge creates a bridge over a write-only, non-seekable stream.
func NewWriteBridge(w io.Writer) (*StreamBridge, error) {
	return newDefaultBridge(&streamBox{w: w}, w, CapWrite)
}

// NewWriteSeekBridge creates a bridge over a writable, seekable stream.
func NewWriteSeekBridge(ws io.WriteSeeker) (*StreamBridge, error) {
	return newDefaultBridge(&streamBox{w: ws, s: ws}, ws, CapWrite|CapSeek)
}

func newDefaultBridge(box *streamBox, stream any, caps Capability) (*StreamBridge, error) {
	eng, err := engineLoader()
	if err != nil {
		releaseFor(stream)(0)
		return nil, err
	}
	return newStreamBridge(eng, box, stream, caps)
}

// releaseFor returns the release function for a concrete stream. It drops the
// registry entry and closes the stream if it is an io.Closer.
func releaseFor(stream any) func(opaque uintptr) error {
	return func(opaque uintptr) error {
		if opaque != 0 {
			unregisterStream(opaque)
		}
		if c, ok := stream.(io.Closer); ok {
			return c.Close()
		}
		return nil
	}
}

func newStreamBridge(eng engine, box *streamBox, stream any, caps Capability) (*StreamBridge, error) {
	release := releaseFor(stream)

	buf := eng.malloc(IOBufferSize)
	if buf == 0 {
		release(0)
		return nil, fmt.Errorf("allocate %d byte I/O buffer: %w", IOBufferSize, ErrOutOfMemory)
	}

	opaque := registerStream(box)
	ioctx := eng.allocIOContext(buf, IOBufferSize, caps.Has(CapWrite), opaque, caps)
	if ioctx == 0 {
		eng.freeBuffer(buf)
		release(opaque)
		return nil, fmt.Errorf("allocate AVIOContext: %w", ErrOutOfMemory)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "newStreamBridge",
		"capabilities": caps.String(),
		"opaque":       opaque,
	}).Debug("Stream bridge allocated")

	return &StreamBridge{
		eng:     eng,
		ioctx:   ioctx,
		opaque:  opaque,
		caps:    caps,
		release: release,
	}, nil
}

// Pointer returns the native AVIOContext pointer.
//
// The pointer is owned by the bridge and is valid only until Close. Callers
// must not free it or change its buffer or opaque fields.
func (b *StreamBridge) Pointer() uintptr {
	return b.ioctx
}

// Capabilities returns the callbacks installed on the native context.
func (b *StreamBridge) Capabilities() Capability {
	return b.caps
}

// Err returns the stream failure recorded since the previous call to Err, if
// any, and clears it.
func (b *StreamBridge) Err() error {
	if box := lookupStream(b.opaque); box != nil {
		return box.takeErr()
	}
	return nil
}

// Close frees the native buffer, then the AVIOContext, then releases the
// stream. Calling Close again is a no-op.
func (b *StreamBridge) Close() error {
	if b == nil || b.ioctx == 0 {
		return nil
	}

	b.eng.freeIOBuffer(b.ioctx)
	b.eng.freeIOContext(&b.ioctx)
	b.ioctx = 0

	opaque := b.opaque
	b.opaque = 0
	err := b.release(opaque)

	fields := logrus.Fields{
		"function": "StreamBridge.Close",
		"opaque":   opaque,
	}
	if err != nil {
		fields["error"] = err
		logrus.WithFields(fields).Warn("Stream close failed during bridge teardown")
		return fmt.Errorf("close stream: %w", err)
	}
	logrus.WithFields(fields).Debug("Stream bridge released")
	return nil
}

func (b *StreamBridge) String() string {
	return fmt.Sprintf("StreamBridge{ioctx: %#x, caps: %s}", b.ioctx, b.caps)
}
