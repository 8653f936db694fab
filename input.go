package mediaio

import (
	"fmt"
	"io"
	"math"
)

// Input is an opened demuxing context.
//
// Read and Seek operate on the context's byte stream (its AVIOContext)
// directly, bypassing the demuxer. They are useful for raw access to a
// bridged stream and for probing.
type Input struct {
	fc     *formatContext
	bridge *StreamBridge
}

var _ io.ReadSeekCloser = (*Input)(nil)

// Pointer returns the native AVFormatContext pointer, valid until Close.
func (in *Input) Pointer() uintptr { return in.fc.ptr }

// Mode reports how the input was opened.
func (in *Input) Mode() Mode { return in.fc.mode }

// FormatName returns the short name of the detected container.
func (in *Input) FormatName() string {
	if in.fc.ptr == 0 {
		return ""
	}
	return in.fc.eng.formatName(in.fc.ptr, false)
}

// Read reads raw bytes through the context's AVIOContext.
func (in *Input) Read(p []byte) (int, error) {
	pb := in.fc.pb()
	if pb == 0 {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > math.MaxInt32 {
		p = p[:math.MaxInt32]
	}

	n := in.fc.eng.ioRead(pb, p)
	switch {
	case n == averrorEOF || n == 0:
		return 0, io.EOF
	case n < 0:
		return 0, in.ioError("avio_read", n)
	}
	return int(n), nil
}

// Seek repositions the context's AVIOContext.
func (in *Input) Seek(offset int64, whence int) (int64, error) {
	pb := in.fc.pb()
	if pb == 0 {
		return 0, ErrClosed
	}
	pos := in.fc.eng.ioSeek(pb, offset, int32(whence))
	if pos < 0 {
		return 0, in.ioError("avio_seek", int32(pos))
	}
	return pos, nil
}

// Size returns the total size of the underlying stream, if known.
func (in *Input) Size() (int64, error) {
	pb := in.fc.pb()
	if pb == 0 {
		return 0, ErrClosed
	}
	size := in.fc.eng.ioSize(pb)
	if size < 0 {
		return 0, in.ioError("avio_size", int32(size))
	}
	return size, nil
}

// Close tears the context down according to how it was opened.
func (in *Input) Close() error {
	return in.fc.close()
}

func (in *Input) ioError(op string, code int32) error {
	if in.bridge != nil {
		return streamError(in.fc.eng, op, code, in.bridge)
	}
	return newError(in.fc.eng, op, code)
}

func (in *Input) String() string {
	return fmt.Sprintf("Input{format: %q, mode: %s}", in.FormatName(), in.Mode())
}
