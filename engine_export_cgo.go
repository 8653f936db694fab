//go:build cgo && ffmpeg_cgo

// Exported trampolines for the cgo engine. They live apart from
// engine_cgo.go because a file using //export may only declare, not define,
// C functions in its preamble.

package mediaio

/*
#include <stdint.h>
*/
import "C"

import "unsafe"

//export mediaioReadPacket
func mediaioReadPacket(opaque C.uintptr_t, buf *C.uint8_t, size C.int) C.int {
	return C.int(readPacket(uintptr(opaque), uintptr(unsafe.Pointer(buf)), int32(size)))
}

//export mediaioWritePacket
func mediaioWritePacket(opaque C.uintptr_t, buf *C.uint8_t, size C.int) C.int {
	return C.int(writePacket(uintptr(opaque), uintptr(unsafe.Pointer(buf)), int32(size)))
}

//export mediaioSeek
func mediaioSeek(opaque C.uintptr_t, offset C.int64_t, whence C.int) C.int64_t {
	return C.int64_t(seekPacket(uintptr(opaque), int64(offset), int32(whence)))
}
