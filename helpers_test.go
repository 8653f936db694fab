package mediaio

import (
	"errors"
	"io"
	"testing"

	"github.com/thesyncim/mediaio/memio"
)

// useFakeEngine routes every constructor in the package to a fresh
// fakeEngine for the duration of t.
func useFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()
	f := newFakeEngine()
	prev := engineLoader
	engineLoader = func() (engine, error) { return f, nil }
	t.Cleanup(func() { engineLoader = prev })
	return f
}

// trackedStream is a memio.Buffer that counts Close calls and, when log is
// set, appends "release" to it so tests can check teardown order.
type trackedStream struct {
	*memio.Buffer
	closes   int
	closeErr error
	log      *[]string
}

func newTrackedStream(data []byte) *trackedStream {
	return &trackedStream{Buffer: memio.NewBuffer(data)}
}

func (s *trackedStream) Close() error {
	s.closes++
	if s.log != nil {
		*s.log = append(*s.log, "release")
	}
	return s.closeErr
}

// failingStream fails every operation with err.
type failingStream struct {
	err    error
	closes int
}

func (s *failingStream) Read([]byte) (int, error)       { return 0, s.err }
func (s *failingStream) Write([]byte) (int, error)      { return 0, s.err }
func (s *failingStream) Seek(int64, int) (int64, error) { return 0, s.err }

func (s *failingStream) Close() error {
	s.closes++
	return nil
}

var errStream = errors.New("stream broke")

// flakyStream is a trackedStream whose next failures Read or Write calls
// return err instead of touching the buffer.
type flakyStream struct {
	*trackedStream
	err      error
	failures int
}

func (s *flakyStream) Read(p []byte) (int, error) {
	if s.failures > 0 {
		s.failures--
		return 0, s.err
	}
	return s.trackedStream.Read(p)
}

func (s *flakyStream) Write(p []byte) (int, error) {
	if s.failures > 0 {
		s.failures--
		return 0, s.err
	}
	return s.trackedStream.Write(p)
}

// scriptedRead is one result returned by scriptedReader.
type scriptedRead struct {
	data string
	err  error
}

// scriptedReader returns its steps in order, then (0, nil) forever.
type scriptedReader struct {
	steps []scriptedRead
	calls int
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	r.calls++
	if len(r.steps) == 0 {
		return 0, nil
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	return copy(p, step.data), step.err
}

// timeoutError reports itself as a timeout, like net.Error.
type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

var _ io.ReadWriteSeeker = (*failingStream)(nil)
