package mediaio

import (
	"fmt"
	"io"
	"math"
)

// Output is an opened muxing context.
//
// Write and Flush push raw bytes through the context's AVIOContext. Bytes
// are staged in the engine's buffer and reach the stream when the buffer
// fills, on Flush, or on Close.
type Output struct {
	fc     *formatContext
	bridge *StreamBridge
}

var _ io.WriteCloser = (*Output)(nil)

// Pointer returns the native AVFormatContext pointer, valid until Close.
func (out *Output) Pointer() uintptr { return out.fc.ptr }

// Mode reports how the output was opened.
func (out *Output) Mode() Mode { return out.fc.mode }

// FormatName returns the short name of the selected container.
func (out *Output) FormatName() string {
	if out.fc.ptr == 0 {
		return ""
	}
	return out.fc.eng.formatName(out.fc.ptr, true)
}

// Write stages p in the context's I/O buffer. Errors raised by a bridged
// stream while draining the buffer are reported here or by Flush.
func (out *Output) Write(p []byte) (int, error) {
	pb := out.fc.pb()
	if pb == 0 {
		return 0, ErrClosed
	}
	written := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > math.MaxInt32 {
			chunk = chunk[:math.MaxInt32]
		}
		out.fc.eng.ioWrite(pb, chunk)
		if err := out.streamErr(); err != nil {
			return written, err
		}
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

// Flush drains the I/O buffer to the stream.
func (out *Output) Flush() error {
	pb := out.fc.pb()
	if pb == 0 {
		return ErrClosed
	}
	out.fc.eng.ioFlush(pb)
	return out.streamErr()
}

// Close tears the context down according to how it was opened. Bridged
// outputs are flushed first.
func (out *Output) Close() error {
	return out.fc.close()
}

func (out *Output) streamErr() error {
	if out.bridge == nil {
		return nil
	}
	if err := out.bridge.Err(); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}

func (out *Output) String() string {
	return fmt.Sprintf("Output{format: %q, mode: %s}", out.FormatName(), out.Mode())
}
