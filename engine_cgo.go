//go:build cgo && ffmpeg_cgo

// FFmpeg engine linked against libavformat/libavutil with cgo.
//
// Build with -tags ffmpeg_cgo to use this variant instead of purego. It links
// the system FFmpeg found through pkg-config and avoids the function pointer
// indirection of the purego engine.

package mediaio

/*
#cgo pkg-config: libavformat libavutil

#include <stdint.h>
#include <stdlib.h>
#include <libavformat/avformat.h>
#include <libavformat/avio.h>
#include <libavutil/error.h>
#include <libavutil/mem.h>

#if LIBAVFORMAT_VERSION_MAJOR >= 61
#define MEDIAIO_WRITE_CONST const
#else
#define MEDIAIO_WRITE_CONST
#endif

extern int mediaioReadPacket(uintptr_t opaque, uint8_t *buf, int size);
extern int mediaioWritePacket(uintptr_t opaque, uint8_t *buf, int size);
extern int64_t mediaioSeek(uintptr_t opaque, int64_t offset, int whence);

static int mediaio_read(void *opaque, uint8_t *buf, int size) {
	return mediaioReadPacket((uintptr_t)opaque, buf, size);
}

static int mediaio_write(void *opaque, MEDIAIO_WRITE_CONST uint8_t *buf, int size) {
	return mediaioWritePacket((uintptr_t)opaque, (uint8_t *)buf, size);
}

static int64_t mediaio_seek(void *opaque, int64_t offset, int whence) {
	return mediaioSeek((uintptr_t)opaque, offset, whence);
}

static AVIOContext *mediaio_alloc_context(unsigned char *buf, int size, int write_flag,
                                          uintptr_t opaque, int has_read, int has_write, int has_seek) {
	return avio_alloc_context(buf, size, write_flag, (void *)opaque,
		has_read ? mediaio_read : NULL,
		has_write ? mediaio_write : NULL,
		has_seek ? mediaio_seek : NULL);
}

static const char *mediaio_format_name(AVFormatContext *ctx, int output) {
	if (output) {
		return ctx->oformat ? ctx->oformat->name : NULL;
	}
	return ctx->iformat ? ctx->iformat->name : NULL;
}
*/
import "C"

import (
	"unsafe"
)

// cgoEngine is always available once linked.
type cgoEngine struct{}

func loadEngine() (engine, error) {
	return cgoEngine{}, nil
}

func cFormatContext(ctx uintptr) *C.AVFormatContext {
	return (*C.AVFormatContext)(unsafe.Pointer(ctx))
}

func cIOContext(pb uintptr) *C.AVIOContext {
	return (*C.AVIOContext)(unsafe.Pointer(pb))
}

func optionalCString(s string) *C.char {
	if s == "" {
		return nil
	}
	return C.CString(s)
}

func freeCString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (cgoEngine) malloc(size int) uintptr {
	return uintptr(C.av_malloc(C.size_t(size)))
}

func (cgoEngine) freeBuffer(ptr uintptr) {
	C.av_free(unsafe.Pointer(ptr))
}

func (cgoEngine) allocIOContext(buf uintptr, size int, writeFlag bool, opaque uintptr, caps Capability) uintptr {
	ctx := C.mediaio_alloc_context((*C.uchar)(unsafe.Pointer(buf)), C.int(size), cBool(writeFlag),
		C.uintptr_t(opaque), cBool(caps.Has(CapRead)), cBool(caps.Has(CapWrite)), cBool(caps.Has(CapSeek)))
	return uintptr(unsafe.Pointer(ctx))
}

func (cgoEngine) freeIOBuffer(ioctx uintptr) {
	C.av_freep(unsafe.Pointer(&cIOContext(ioctx).buffer))
}

func (cgoEngine) freeIOContext(ioctx *uintptr) {
	s := cIOContext(*ioctx)
	C.avio_context_free(&s)
	*ioctx = 0
}

func (cgoEngine) allocFormatContext() uintptr {
	return uintptr(unsafe.Pointer(C.avformat_alloc_context()))
}

func (cgoEngine) setFormatIO(ctx, ioctx uintptr) {
	cFormatContext(ctx).pb = cIOContext(ioctx)
}

func (cgoEngine) formatIO(ctx uintptr) uintptr {
	return uintptr(unsafe.Pointer(cFormatContext(ctx).pb))
}

func (cgoEngine) openInput(ctx *uintptr, url string) int32 {
	curl := optionalCString(url)
	defer freeCString(curl)

	ps := cFormatContext(*ctx)
	ret := C.avformat_open_input(&ps, curl, nil, nil)
	*ctx = uintptr(unsafe.Pointer(ps))
	return int32(ret)
}

func (cgoEngine) findStreamInfo(ctx uintptr) int32 {
	return int32(C.avformat_find_stream_info(cFormatContext(ctx), nil))
}

func (cgoEngine) closeInput(ctx *uintptr) {
	ps := cFormatContext(*ctx)
	C.avformat_close_input(&ps)
	*ctx = 0
}

func (cgoEngine) allocOutputContext(ctx *uintptr, format, filename string) int32 {
	cformat := optionalCString(format)
	defer freeCString(cformat)
	cfilename := optionalCString(filename)
	defer freeCString(cfilename)

	var ps *C.AVFormatContext
	ret := C.avformat_alloc_output_context2(&ps, nil, cformat, cfilename)
	*ctx = uintptr(unsafe.Pointer(ps))
	return int32(ret)
}

func (cgoEngine) openIO(ctx uintptr, url string, flags int32) int32 {
	curl := C.CString(url)
	defer C.free(unsafe.Pointer(curl))
	return int32(C.avio_open(&cFormatContext(ctx).pb, curl, C.int(flags)))
}

func (cgoEngine) closeIO(pb uintptr) int32 {
	return int32(C.avio_close(cIOContext(pb)))
}

func (cgoEngine) freeFormatContext(ctx uintptr) {
	C.avformat_free_context(cFormatContext(ctx))
}

func (cgoEngine) ioRead(pb uintptr, p []byte) int32 {
	return int32(C.avio_read(cIOContext(pb), (*C.uchar)(unsafe.Pointer(&p[0])), C.int(len(p))))
}

func (cgoEngine) ioWrite(pb uintptr, p []byte) {
	if len(p) == 0 {
		return
	}
	C.avio_write(cIOContext(pb), (*C.uchar)(unsafe.Pointer(&p[0])), C.int(len(p)))
}

func (cgoEngine) ioFlush(pb uintptr) {
	C.avio_flush(cIOContext(pb))
}

func (cgoEngine) ioSeek(pb uintptr, offset int64, whence int32) int64 {
	return int64(C.avio_seek(cIOContext(pb), C.int64_t(offset), C.int(whence)))
}

func (cgoEngine) ioSize(pb uintptr) int64 {
	return int64(C.avio_size(cIOContext(pb)))
}

func (cgoEngine) formatName(ctx uintptr, output bool) string {
	name := C.mediaio_format_name(cFormatContext(ctx), cBool(output))
	if name == nil {
		return ""
	}
	return C.GoString(name)
}

func (cgoEngine) strerror(code int32) string {
	var buf [C.AV_ERROR_MAX_STRING_SIZE]C.char
	C.av_strerror(C.int(code), &buf[0], C.size_t(len(buf)))
	return C.GoString(&buf[0])
}

func (cgoEngine) version() uint32 {
	return uint32(C.avformat_version())
}

func (cgoEngine) configuration() string {
	return C.GoString(C.avformat_configuration())
}

func (cgoEngine) license() string {
	return C.GoString(C.avformat_license())
}
