package mediaio

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// OpenInput opens path with libavformat's own I/O and reads its stream info.
func OpenInput(path string) (*Input, error) {
	eng, err := engineLoader()
	if err != nil {
		return nil, err
	}
	return openInput(eng, path)
}

// OpenInputStream opens an input whose bytes come from bridge.
//
// filename is optional and only used as a hint for format probing. The
// returned Input owns the bridge. On failure the bridge is closed before
// OpenInputStream returns.
func OpenInputStream(bridge *StreamBridge, filename string) (*Input, error) {
	if bridge == nil {
		return nil, errors.New("nil stream bridge")
	}
	return openInputStream(bridge.eng, bridge, filename)
}

// CreateOutput creates an output for path, guessing the container from its
// extension, and opens the file for writing with libavformat's own I/O.
func CreateOutput(path string) (*Output, error) {
	return CreateOutputAs(path, "")
}

// CreateOutputAs is CreateOutput with an explicit container short name such
// as "mp4" or "mpegts".
func CreateOutputAs(path, format string) (*Output, error) {
	eng, err := engineLoader()
	if err != nil {
		return nil, err
	}
	return createOutput(eng, path, format)
}

// CreateOutputStream creates an output whose bytes go to bridge.
//
// The container is chosen from format if set, otherwise guessed from
// filename. The bridge must be writable. The returned Output owns the
// bridge. On failure the bridge is closed before CreateOutputStream returns.
func CreateOutputStream(bridge *StreamBridge, filename, format string) (*Output, error) {
	if bridge == nil {
		return nil, errors.New("nil stream bridge")
	}
	return createOutputStream(bridge.eng, bridge, filename, format)
}

func openInput(eng engine, path string) (*Input, error) {
	var ctx uintptr
	if code := eng.openInput(&ctx, path); code < 0 {
		return nil, newError(eng, "avformat_open_input", code)
	}
	if code := eng.findStreamInfo(ctx); code < 0 {
		eng.closeInput(&ctx)
		return nil, newError(eng, "avformat_find_stream_info", code)
	}
	return &Input{fc: newFormatContext(eng, ctx, inputDefault{})}, nil
}

func openInputStream(eng engine, bridge *StreamBridge, filename string) (*Input, error) {
	if err := checkBridge(bridge, CapRead, ErrNotReadable); err != nil {
		return nil, err
	}

	ctx := eng.allocFormatContext()
	if ctx == 0 {
		bridge.Close()
		return nil, fmt.Errorf("allocate AVFormatContext: %w", ErrOutOfMemory)
	}
	eng.setFormatIO(ctx, bridge.Pointer())

	// The engine frees ctx on failure but leaves a caller-supplied pb alone.
	if code := eng.openInput(&ctx, filename); code < 0 {
		err := streamError(eng, "avformat_open_input", code, bridge)
		bridge.Close()
		return nil, err
	}
	if code := eng.findStreamInfo(ctx); code < 0 {
		err := streamError(eng, "avformat_find_stream_info", code, bridge)
		eng.closeInput(&ctx)
		bridge.Close()
		return nil, err
	}

	return &Input{
		fc:     newFormatContext(eng, ctx, inputBridged{bridge: bridge}),
		bridge: bridge,
	}, nil
}

func createOutput(eng engine, path, format string) (*Output, error) {
	var ctx uintptr
	if code := eng.allocOutputContext(&ctx, format, path); code < 0 {
		return nil, newError(eng, "avformat_alloc_output_context2", code)
	}
	if code := eng.openIO(ctx, path, avioFlagWrite); code < 0 {
		eng.freeFormatContext(ctx)
		return nil, newError(eng, "avio_open", code)
	}
	return &Output{fc: newFormatContext(eng, ctx, outputDefault{})}, nil
}

func createOutputStream(eng engine, bridge *StreamBridge, filename, format string) (*Output, error) {
	if err := checkBridge(bridge, CapWrite, ErrNotWritable); err != nil {
		return nil, err
	}

	var ctx uintptr
	if code := eng.allocOutputContext(&ctx, format, filename); code < 0 {
		bridge.Close()
		return nil, newError(eng, "avformat_alloc_output_context2", code)
	}
	eng.setFormatIO(ctx, bridge.Pointer())

	return &Output{
		fc:     newFormatContext(eng, ctx, outputBridged{bridge: bridge}),
		bridge: bridge,
	}, nil
}

// checkBridge verifies bridge can serve a context that needs want. A bridge
// that fails the check is closed, matching the ownership rules of the open
// functions.
func checkBridge(bridge *StreamBridge, want Capability, missing error) error {
	if bridge.Pointer() == 0 {
		return fmt.Errorf("stream bridge: %w", ErrClosed)
	}
	if !bridge.Capabilities().Has(want) {
		logrus.WithFields(logrus.Fields{
			"function":     "checkBridge",
			"capabilities": bridge.Capabilities().String(),
			"required":     want.String(),
		}).Warn("Stream bridge rejected")
		bridge.Close()
		return missing
	}
	return nil
}

// streamError builds the error for a failed native call on a bridged context,
// attaching the stream failure that caused it when there is one.
func streamError(eng engine, op string, code int32, bridge *StreamBridge) error {
	nerr := newError(eng, op, code)
	if cause := bridge.Err(); cause != nil {
		return fmt.Errorf("%w: %w", nerr, cause)
	}
	return nerr
}
