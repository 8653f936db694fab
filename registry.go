package mediaio

import (
	"io"
	"sync"
)

// streamBox holds a host stream behind the opaque handle handed to the engine.
// Only the interfaces matching the bridge's capabilities are set.
type streamBox struct {
	r io.Reader
	w io.Writer
	s io.Seeker

	// lastErr is the most recent failure translated for the engine. It is
	// cleared when read through takeErr.
	lastErr error

	// deferredErr came back from Read together with data. It is reported on
	// the next read callback instead of calling the reader again.
	deferredErr error
}

// takeErr returns the recorded stream failure and clears it, so a failure is
// reported once and a recovered stream stops reporting it.
func (b *streamBox) takeErr() error {
	err := b.lastErr
	b.lastErr = nil
	return err
}

// Global registry for opaque handles. The engine only ever sees the handle,
// never a Go pointer.
var (
	streamsMu     sync.RWMutex
	streams       = make(map[uintptr]*streamBox)
	streamCounter uintptr
)

func registerStream(box *streamBox) uintptr {
	streamsMu.Lock()
	defer streamsMu.Unlock()
	streamCounter++
	// Zero is reserved for NULL.
	if streamCounter == 0 {
		streamCounter++
	}
	streams[streamCounter] = box
	return streamCounter
}

func lookupStream(opaque uintptr) *streamBox {
	streamsMu.RLock()
	box := streams[opaque]
	streamsMu.RUnlock()
	return box
}

func unregisterStream(opaque uintptr) *streamBox {
	streamsMu.Lock()
	defer streamsMu.Unlock()
	box, ok := streams[opaque]
	if !ok {
		return nil
	}
	delete(streams, opaque)
	return box
}

// registeredStreams returns the number of live boxed streams.
func registeredStreams() int {
	streamsMu.RLock()
	defer streamsMu.RUnlock()
	return len(streams)
}
