package mediaio

import (
	"io"
	"path/filepath"
	"strings"
	"unsafe"
)

// fakeEngine is an in-process stand-in for libavformat. It records every
// primitive it is asked to run and keeps enough AVIOContext behaviour
// (buffered reads, staged writes, seeks) to drive the trampolines the same
// way the real engine does.
type fakeEngine struct {
	next uintptr

	mem    map[uintptr][]byte
	ioctxs map[uintptr]*fakeIOContext
	ctxs   map[uintptr]*fakeFormatContext

	calls []string

	failMalloc         bool
	failAllocIO        bool
	failAllocFormat    bool
	openInputCode      int32
	findStreamInfoCode int32
	allocOutputCode    int32
	openIOCode         int32
}

type fakeIOContext struct {
	buf       uintptr
	size      int
	writeFlag bool
	opaque    uintptr
	caps      Capability

	pending []byte // read-ahead not yet handed out
	eof     bool
	staged  int // bytes waiting in buf to be written

	native bool   // opened by openIO, not by a bridge
	sink   []byte // bytes written to a native pb
}

type fakeFormatContext struct {
	pb       uintptr
	customIO bool
	output   bool
	format   string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		next:   0x1000,
		mem:    make(map[uintptr][]byte),
		ioctxs: make(map[uintptr]*fakeIOContext),
		ctxs:   make(map[uintptr]*fakeFormatContext),
	}
}

func (f *fakeEngine) handle() uintptr {
	f.next += 0x10
	return f.next
}

func (f *fakeEngine) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeEngine) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// live reports native allocations that have not been freed.
func (f *fakeEngine) live() int {
	return len(f.mem) + len(f.ioctxs) + len(f.ctxs)
}

func (f *fakeEngine) bufPtr(s *fakeIOContext) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(f.mem[s.buf])))
}

func (f *fakeEngine) malloc(size int) uintptr {
	f.record("av_malloc")
	if f.failMalloc {
		return 0
	}
	h := f.handle()
	f.mem[h] = make([]byte, size)
	return h
}

func (f *fakeEngine) freeBuffer(ptr uintptr) {
	f.record("av_free")
	delete(f.mem, ptr)
}

func (f *fakeEngine) allocIOContext(buf uintptr, size int, writeFlag bool, opaque uintptr, caps Capability) uintptr {
	f.record("avio_alloc_context")
	if f.failAllocIO {
		return 0
	}
	h := f.handle()
	f.ioctxs[h] = &fakeIOContext{buf: buf, size: size, writeFlag: writeFlag, opaque: opaque, caps: caps}
	return h
}

func (f *fakeEngine) freeIOBuffer(ioctx uintptr) {
	f.record("av_freep")
	if s, ok := f.ioctxs[ioctx]; ok {
		delete(f.mem, s.buf)
		s.buf = 0
	}
}

func (f *fakeEngine) freeIOContext(ioctx *uintptr) {
	f.record("avio_context_free")
	delete(f.ioctxs, *ioctx)
	*ioctx = 0
}

func (f *fakeEngine) allocFormatContext() uintptr {
	f.record("avformat_alloc_context")
	if f.failAllocFormat {
		return 0
	}
	h := f.handle()
	f.ctxs[h] = &fakeFormatContext{}
	return h
}

func (f *fakeEngine) setFormatIO(ctx, ioctx uintptr) { f.ctxs[ctx].pb = ioctx }

func (f *fakeEngine) formatIO(ctx uintptr) uintptr {
	if c, ok := f.ctxs[ctx]; ok {
		return c.pb
	}
	return 0
}

func (f *fakeEngine) newNativeIO() uintptr {
	h := f.handle()
	f.ioctxs[h] = &fakeIOContext{size: IOBufferSize, native: true, writeFlag: true}
	return h
}

func (f *fakeEngine) openInput(ctx *uintptr, url string) int32 {
	f.record("avformat_open_input")
	if *ctx == 0 {
		h := f.handle()
		f.ctxs[h] = &fakeFormatContext{pb: f.newNativeIO()}
		*ctx = h
	}
	c := f.ctxs[*ctx]
	c.customIO = c.pb != 0 && !f.ioctxs[c.pb].native
	if f.openInputCode < 0 {
		f.dropFormatContext(*ctx)
		*ctx = 0
		return f.openInputCode
	}
	c.format = "fake"
	if ext := strings.TrimPrefix(filepath.Ext(url), "."); ext != "" {
		c.format = ext
	}
	return 0
}

func (f *fakeEngine) findStreamInfo(ctx uintptr) int32 {
	f.record("avformat_find_stream_info")
	return f.findStreamInfoCode
}

// dropFormatContext frees ctx and, unless it runs on custom I/O, its pb.
func (f *fakeEngine) dropFormatContext(ctx uintptr) {
	c, ok := f.ctxs[ctx]
	if !ok {
		return
	}
	if !c.customIO && c.pb != 0 {
		delete(f.ioctxs, c.pb)
	}
	delete(f.ctxs, ctx)
}

func (f *fakeEngine) closeInput(ctx *uintptr) {
	f.record("avformat_close_input")
	f.dropFormatContext(*ctx)
	*ctx = 0
}

func (f *fakeEngine) allocOutputContext(ctx *uintptr, format, filename string) int32 {
	f.record("avformat_alloc_output_context2")
	if f.allocOutputCode < 0 {
		return f.allocOutputCode
	}
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(filename), ".")
	}
	if format == "" {
		return averrorEINVAL
	}
	h := f.handle()
	f.ctxs[h] = &fakeFormatContext{output: true, format: format}
	*ctx = h
	return 0
}

func (f *fakeEngine) openIO(ctx uintptr, url string, flags int32) int32 {
	f.record("avio_open")
	if f.openIOCode < 0 {
		return f.openIOCode
	}
	f.ctxs[ctx].pb = f.newNativeIO()
	return 0
}

func (f *fakeEngine) closeIO(pb uintptr) int32 {
	f.record("avio_close")
	if _, ok := f.ioctxs[pb]; !ok {
		return averrorEINVAL
	}
	f.flush(pb)
	delete(f.ioctxs, pb)
	return 0
}

func (f *fakeEngine) freeFormatContext(ctx uintptr) {
	f.record("avformat_free_context")
	delete(f.ctxs, ctx)
}

// ioRead follows avio_read: fill p from the read-ahead buffer, refilling it
// with read_packet, and stop short at end of stream.
func (f *fakeEngine) ioRead(pb uintptr, p []byte) int32 {
	s := f.ioctxs[pb]
	if s.native {
		return averrorEOF
	}
	total := 0
	for total < len(p) {
		if len(s.pending) == 0 {
			if s.eof {
				break
			}
			n := readPacket(s.opaque, f.bufPtr(s), int32(s.size))
			if n == averrorEOF {
				s.eof = true
				break
			}
			if n < 0 {
				if total == 0 {
					return n
				}
				break
			}
			s.pending = append(s.pending[:0], f.mem[s.buf][:n]...)
		}
		c := copy(p[total:], s.pending)
		s.pending = s.pending[c:]
		total += c
	}
	if total == 0 && s.eof {
		return averrorEOF
	}
	return int32(total)
}

func (f *fakeEngine) ioWrite(pb uintptr, p []byte) {
	s := f.ioctxs[pb]
	for len(p) > 0 {
		var c int
		if s.native {
			c = min(len(p), s.size-s.staged)
			s.sink = append(s.sink, p[:c]...)
		} else {
			c = copy(f.mem[s.buf][s.staged:], p)
		}
		s.staged += c
		p = p[c:]
		if s.staged == s.size {
			f.flush(pb)
		}
	}
}

func (f *fakeEngine) flush(pb uintptr) {
	s := f.ioctxs[pb]
	if s.staged == 0 {
		return
	}
	if !s.native && s.caps.Has(CapWrite) {
		// Like the real engine, the result only feeds the context's error state.
		writePacket(s.opaque, f.bufPtr(s), int32(s.staged))
	}
	s.staged = 0
}

func (f *fakeEngine) ioFlush(pb uintptr) {
	f.record("avio_flush")
	f.flush(pb)
}

func (f *fakeEngine) ioSeek(pb uintptr, offset int64, whence int32) int64 {
	s := f.ioctxs[pb]
	if s.native || !s.caps.Has(CapSeek) {
		return int64(averrorENOSYS)
	}
	f.flush(pb)
	if whence == io.SeekCurrent {
		cur := seekPacket(s.opaque, 0, io.SeekCurrent)
		if cur < 0 {
			return cur
		}
		offset += cur - int64(len(s.pending))
		whence = io.SeekStart
	}
	pos := seekPacket(s.opaque, offset, whence)
	if pos >= 0 {
		s.pending = s.pending[:0]
		s.eof = false
	}
	return pos
}

func (f *fakeEngine) ioSize(pb uintptr) int64 {
	s := f.ioctxs[pb]
	if s.native || !s.caps.Has(CapSeek) {
		return int64(averrorENOSYS)
	}
	return seekPacket(s.opaque, 0, avseekSize)
}

func (f *fakeEngine) formatName(ctx uintptr, output bool) string {
	if c, ok := f.ctxs[ctx]; ok {
		return c.format
	}
	return ""
}

func (f *fakeEngine) strerror(code int32) string {
	switch code {
	case averrorEOF:
		return "End of file"
	case averrorEIO:
		return "Input/output error"
	case averrorEINVAL:
		return "Invalid argument"
	}
	return ""
}

func (f *fakeEngine) version() uint32       { return 61<<16 | 7<<8 | 100 }
func (f *fakeEngine) configuration() string { return "--fake" }
func (f *fakeEngine) license() string       { return "LGPL version 2.1 or later" }
