package mediaio

import "fmt"

// IOBufferSize is the size of the native buffer backing every bridged AVIOContext.
const IOBufferSize = 16 * 1024

// engine is the set of libavformat/libavutil primitives the bridge and the
// context glue are built on. Pointers are native addresses; zero is NULL.
//
// The production implementations live in engine_purego.go and engine_cgo.go.
// Tests substitute a recording fake.
type engine interface {
	// malloc allocates size bytes with av_malloc.
	malloc(size int) uintptr

	// freeBuffer releases memory obtained from malloc (av_free).
	freeBuffer(ptr uintptr)

	// allocIOContext wraps avio_alloc_context. The read, write and seek
	// trampolines are installed only for the capabilities in caps.
	allocIOContext(buf uintptr, size int, writeFlag bool, opaque uintptr, caps Capability) uintptr

	// freeIOBuffer frees ioctx->buffer and clears the field (av_freep).
	freeIOBuffer(ioctx uintptr)

	// freeIOContext frees the AVIOContext struct and zeroes *ioctx.
	freeIOContext(ioctx *uintptr)

	allocFormatContext() uintptr
	setFormatIO(ctx, ioctx uintptr)
	formatIO(ctx uintptr) uintptr

	// openInput wraps avformat_open_input. On failure the engine frees the
	// context and zeroes *ctx.
	openInput(ctx *uintptr, url string) int32
	findStreamInfo(ctx uintptr) int32

	// closeInput is the combined "close input and free context" primitive.
	closeInput(ctx *uintptr)

	allocOutputContext(ctx *uintptr, format, filename string) int32

	// openIO opens ctx->pb on url (avio_open).
	openIO(ctx uintptr, url string, flags int32) int32

	// closeIO is the generic I/O-handle close (avio_close). It must never be
	// called on a pb owned by a StreamBridge.
	closeIO(pb uintptr) int32

	freeFormatContext(ctx uintptr)

	ioRead(pb uintptr, p []byte) int32
	ioWrite(pb uintptr, p []byte)
	ioFlush(pb uintptr)
	ioSeek(pb uintptr, offset int64, whence int32) int64
	ioSize(pb uintptr) int64

	formatName(ctx uintptr, output bool) string
	strerror(code int32) string

	version() uint32
	configuration() string
	license() string
}

// engineLoader returns the process-wide engine, loading it on first use.
var engineLoader = loadEngine

// IsAvailable reports whether libavformat and libavutil could be loaded.
func IsAvailable() bool {
	_, err := engineLoader()
	return err == nil
}

// Version returns the libavformat version number (LIBAVFORMAT_VERSION_INT).
func Version() uint32 {
	eng, err := engineLoader()
	if err != nil {
		return 0
	}
	return eng.version()
}

// VersionString returns the libavformat version as "major.minor.micro", or
// the empty string when the libraries are not loaded.
func VersionString() string {
	v := Version()
	if v == 0 {
		return ""
	}
	return formatVersion(v)
}

func formatVersion(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>16, (v>>8)&0xff, v&0xff)
}

// Configuration returns the build-time configuration string of libavformat.
func Configuration() string {
	eng, err := engineLoader()
	if err != nil {
		return ""
	}
	return eng.configuration()
}

// License returns the license libavformat was built under.
func License() string {
	eng, err := engineLoader()
	if err != nil {
		return ""
	}
	return eng.license()
}
