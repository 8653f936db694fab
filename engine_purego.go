//go:build (darwin || linux) && !(cgo && ffmpeg_cgo)

// FFmpeg engine backed by libavformat/libavutil loaded with purego.
//
// Library locations checked (in order):
//   - MEDIAIO_AVUTIL_LIB_PATH / MEDIAIO_AVFORMAT_LIB_PATH environment variables
//   - MEDIAIO_LIB_PATH directory
//   - build/ next to the executable, module root and source tree
//   - System library paths (versioned sonames first)

package mediaio

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"
)

var (
	ffmpegOnce    sync.Once
	ffmpegEngine  *puregoEngine
	ffmpegInitErr error
)

// Field offsets on LP64 targets. These leading fields have kept their
// position since FFmpeg 5.
const (
	avioContextBufferOffset    = 8  // AVIOContext.buffer
	formatContextIFormatOffset = 8  // AVFormatContext.iformat
	formatContextOFormatOffset = 16 // AVFormatContext.oformat
	formatContextPBOffset      = 32 // AVFormatContext.pb
	formatNameOffset           = 0  // AVInputFormat.name / AVOutputFormat.name

	avErrorMaxStringSize = 64
)

// libavutil / libavformat function pointers
var (
	avMalloc   func(size uintptr) uintptr
	avFree     func(ptr uintptr)
	avFreep    func(ptr uintptr)
	avStrerror func(errnum int32, errbuf *byte, size uintptr) int32

	avioAllocContext func(buffer uintptr, bufferSize, writeFlag int32, opaque, readPacket, writePacket, seek uintptr) uintptr
	avioContextFree  func(s *uintptr)
	avioOpen         func(s uintptr, url *byte, flags int32) int32
	avioClose        func(s uintptr) int32
	avioRead         func(s uintptr, buf *byte, size int32) int32
	avioWrite        func(s uintptr, buf *byte, size int32)
	avioFlush        func(s uintptr)
	avioSeek         func(s uintptr, offset int64, whence int32) int64
	avioSize         func(s uintptr) int64

	avformatAllocContext        func() uintptr
	avformatOpenInput           func(ps *uintptr, url *byte, fmt, options uintptr) int32
	avformatFindStreamInfo      func(ic, options uintptr) int32
	avformatCloseInput          func(ps *uintptr)
	avformatAllocOutputContext2 func(ctx *uintptr, oformat uintptr, formatName, filename *byte) int32
	avformatFreeContext         func(s uintptr)
	avformatVersion             func() uint32
	avformatConfiguration       func() uintptr
	avformatLicense             func() uintptr
)

// Trampolines handed to avio_alloc_context. purego callbacks are never
// released, so three are created once and shared by every bridge.
var (
	ioCallbacksOnce     sync.Once
	readPacketCallback  uintptr
	writePacketCallback uintptr
	seekCallback        uintptr
)

func initIOCallbacks() {
	ioCallbacksOnce.Do(func() {
		readPacketCallback = purego.NewCallback(readPacket)
		writePacketCallback = purego.NewCallback(writePacket)
		seekCallback = purego.NewCallback(seekPacket)
	})
}

// loadEngine loads libavutil and libavformat once.
func loadEngine() (engine, error) {
	ffmpegOnce.Do(func() {
		ffmpegEngine, ffmpegInitErr = loadFFmpegLibs()
		if ffmpegInitErr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "loadEngine",
				"error":    ffmpegInitErr,
			}).Debug("FFmpeg libraries not loaded")
		}
	})
	if ffmpegInitErr != nil {
		return nil, ffmpegInitErr
	}
	return ffmpegEngine, nil
}

func loadFFmpegLibs() (*puregoEngine, error) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		return nil, fmt.Errorf("%w: purego engine requires a 64-bit target", ErrEngineUnavailable)
	}

	avutil, err := openSharedLib(sharedLibPaths("MEDIAIO_AVUTIL_LIB_PATH", "libavutil", []string{"60", "59", "58", "57"}))
	if err != nil {
		return nil, fmt.Errorf("%w: libavutil: %w", ErrEngineUnavailable, err)
	}
	avformat, err := openSharedLib(sharedLibPaths("MEDIAIO_AVFORMAT_LIB_PATH", "libavformat", []string{"62", "61", "60", "59"}))
	if err != nil {
		purego.Dlclose(avutil)
		return nil, fmt.Errorf("%w: libavformat: %w", ErrEngineUnavailable, err)
	}

	if err := registerFFmpegSymbols(avutil, avformat); err != nil {
		purego.Dlclose(avformat)
		purego.Dlclose(avutil)
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	initIOCallbacks()

	logrus.WithFields(logrus.Fields{
		"function": "loadFFmpegLibs",
		"version":  formatVersion(avformatVersion()),
	}).Debug("FFmpeg libraries loaded")

	return &puregoEngine{avutil: avutil, avformat: avformat}, nil
}

func openSharedLib(paths []string) (uintptr, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return 0, lastErr
	}
	return 0, errors.New("not found in any standard location")
}

// registerFFmpegSymbols binds every function pointer. RegisterLibFunc panics
// on a missing symbol, which is turned into an error here so an incompatible
// library is reported instead of crashing the process.
func registerFFmpegSymbols(avutil, avformat uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register symbols: %v", r)
		}
	}()

	purego.RegisterLibFunc(&avMalloc, avutil, "av_malloc")
	purego.RegisterLibFunc(&avFree, avutil, "av_free")
	purego.RegisterLibFunc(&avFreep, avutil, "av_freep")
	purego.RegisterLibFunc(&avStrerror, avutil, "av_strerror")

	purego.RegisterLibFunc(&avioAllocContext, avformat, "avio_alloc_context")
	purego.RegisterLibFunc(&avioContextFree, avformat, "avio_context_free")
	purego.RegisterLibFunc(&avioOpen, avformat, "avio_open")
	purego.RegisterLibFunc(&avioClose, avformat, "avio_close")
	purego.RegisterLibFunc(&avioRead, avformat, "avio_read")
	purego.RegisterLibFunc(&avioWrite, avformat, "avio_write")
	purego.RegisterLibFunc(&avioFlush, avformat, "avio_flush")
	purego.RegisterLibFunc(&avioSeek, avformat, "avio_seek")
	purego.RegisterLibFunc(&avioSize, avformat, "avio_size")

	purego.RegisterLibFunc(&avformatAllocContext, avformat, "avformat_alloc_context")
	purego.RegisterLibFunc(&avformatOpenInput, avformat, "avformat_open_input")
	purego.RegisterLibFunc(&avformatFindStreamInfo, avformat, "avformat_find_stream_info")
	purego.RegisterLibFunc(&avformatCloseInput, avformat, "avformat_close_input")
	purego.RegisterLibFunc(&avformatAllocOutputContext2, avformat, "avformat_alloc_output_context2")
	purego.RegisterLibFunc(&avformatFreeContext, avformat, "avformat_free_context")
	purego.RegisterLibFunc(&avformatVersion, avformat, "avformat_version")
	purego.RegisterLibFunc(&avformatConfiguration, avformat, "avformat_configuration")
	purego.RegisterLibFunc(&avformatLicense, avformat, "avformat_license")

	return nil
}

// puregoEngine implements engine on top of the registered function pointers.
type puregoEngine struct {
	avutil   uintptr
	avformat uintptr
}

func (e *puregoEngine) malloc(size int) uintptr { return avMalloc(uintptr(size)) }

func (e *puregoEngine) freeBuffer(ptr uintptr) { avFree(ptr) }

func (e *puregoEngine) allocIOContext(buf uintptr, size int, writeFlag bool, opaque uintptr, caps Capability) uintptr {
	var read, write, seek uintptr
	if caps.Has(CapRead) {
		read = readPacketCallback
	}
	if caps.Has(CapWrite) {
		write = writePacketCallback
	}
	if caps.Has(CapSeek) {
		seek = seekCallback
	}
	var flag int32
	if writeFlag {
		flag = 1
	}
	return avioAllocContext(buf, int32(size), flag, opaque, read, write, seek)
}

func (e *puregoEngine) freeIOBuffer(ioctx uintptr) {
	avFreep(ioctx + avioContextBufferOffset)
}

func (e *puregoEngine) freeIOContext(ioctx *uintptr) { avioContextFree(ioctx) }

func (e *puregoEngine) allocFormatContext() uintptr { return avformatAllocContext() }

func (e *puregoEngine) setFormatIO(ctx, ioctx uintptr) {
	writePtr(ctx+formatContextPBOffset, ioctx)
}

func (e *puregoEngine) formatIO(ctx uintptr) uintptr {
	return readPtr(ctx + formatContextPBOffset)
}

func (e *puregoEngine) openInput(ctx *uintptr, url string) int32 {
	curl := cString(url)
	ret := avformatOpenInput(ctx, curl, 0, 0)
	runtime.KeepAlive(curl)
	return ret
}

func (e *puregoEngine) findStreamInfo(ctx uintptr) int32 { return avformatFindStreamInfo(ctx, 0) }

func (e *puregoEngine) closeInput(ctx *uintptr) { avformatCloseInput(ctx) }

func (e *puregoEngine) allocOutputContext(ctx *uintptr, format, filename string) int32 {
	cformat, cfilename := cString(format), cString(filename)
	ret := avformatAllocOutputContext2(ctx, 0, cformat, cfilename)
	runtime.KeepAlive(cformat)
	runtime.KeepAlive(cfilename)
	return ret
}

func (e *puregoEngine) openIO(ctx uintptr, url string, flags int32) int32 {
	curl := cString(url)
	ret := avioOpen(ctx+formatContextPBOffset, curl, flags)
	runtime.KeepAlive(curl)
	return ret
}

func (e *puregoEngine) closeIO(pb uintptr) int32 { return avioClose(pb) }

func (e *puregoEngine) freeFormatContext(ctx uintptr) { avformatFreeContext(ctx) }

func (e *puregoEngine) ioRead(pb uintptr, p []byte) int32 {
	return avioRead(pb, &p[0], int32(len(p)))
}

func (e *puregoEngine) ioWrite(pb uintptr, p []byte) {
	if len(p) == 0 {
		return
	}
	avioWrite(pb, &p[0], int32(len(p)))
}

func (e *puregoEngine) ioFlush(pb uintptr) { avioFlush(pb) }

func (e *puregoEngine) ioSeek(pb uintptr, offset int64, whence int32) int64 {
	return avioSeek(pb, offset, whence)
}

func (e *puregoEngine) ioSize(pb uintptr) int64 { return avioSize(pb) }

func (e *puregoEngine) formatName(ctx uintptr, output bool) string {
	offset := uintptr(formatContextIFormatOffset)
	if output {
		offset = formatContextOFormatOffset
	}
	format := readPtr(ctx + offset)
	if format == 0 {
		return ""
	}
	return goStringFromPtr(readPtr(format + formatNameOffset))
}

func (e *puregoEngine) strerror(code int32) string {
	// av_strerror fills buf with a generic message even when it fails.
	var buf [avErrorMaxStringSize]byte
	avStrerror(code, &buf[0], uintptr(len(buf)))
	if n := bytes.IndexByte(buf[:], 0); n >= 0 {
		return string(buf[:n])
	}
	return string(buf[:])
}

func (e *puregoEngine) version() uint32 { return avformatVersion() }

func (e *puregoEngine) configuration() string { return goStringFromPtr(avformatConfiguration()) }

func (e *puregoEngine) license() string { return goStringFromPtr(avformatLicense()) }
