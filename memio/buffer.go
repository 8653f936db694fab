// Package memio provides an in-memory stream that can sit behind any of the
// mediaio bridge constructors.
package memio

import (
	"errors"
	"io"
	"math"
)

// MaxSize is the largest size a Buffer grows to. It matches the int32 byte
// counts the I/O callbacks deal in.
const MaxSize = math.MaxInt32

var (
	// ErrNegativePosition is returned by Seek when the target lies before offset 0.
	ErrNegativePosition = errors.New("memio: negative position")
	// ErrTooLarge is returned by Write when the data would end past MaxSize.
	ErrTooLarge = errors.New("memio: buffer too large")
)

// Buffer is a growable byte slice with a single read/write offset.
//
// Writing past the end grows the buffer, up to MaxSize; writing after a Seek
// beyond the end zero-fills the gap, the way a sparse file reads back. Muxers that patch a
// header after the payload (mp4, wav) rely on this. Buffer is not safe for
// concurrent use.
type Buffer struct {
	data   []byte
	offset int64
}

var _ io.ReadWriteSeeker = (*Buffer)(nil)

// NewBuffer returns a Buffer holding data, positioned at offset 0. The buffer
// takes ownership of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.offset >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.offset:])
	b.offset += int64(n)
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	if b.offset > MaxSize-int64(len(p)) {
		return 0, ErrTooLarge
	}
	end := b.offset + int64(len(p))
	if end > int64(len(b.data)) {
		b.grow(end)
	}
	n := copy(b.data[b.offset:], p)
	b.offset += int64(n)
	return n, nil
}

// grow extends data to size bytes. New bytes are zero.
func (b *Buffer) grow(size int64) {
	if size <= int64(cap(b.data)) {
		old := len(b.data)
		b.data = b.data[:size]
		clear(b.data[old:])
		return
	}
	newCap := min(2*int64(cap(b.data)), MaxSize)
	if newCap < size {
		newCap = size
	}
	data := make([]byte, size, newCap)
	copy(data, b.data)
	b.data = data
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.offset + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("memio: invalid whence")
	}
	if abs < 0 {
		return 0, ErrNegativePosition
	}
	b.offset = abs
	return abs, nil
}

// Bytes returns the buffer contents. The slice aliases the buffer until the
// next Write.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes in the buffer, regardless of the offset.
func (b *Buffer) Len() int { return len(b.data) }

// Reset empties the buffer and rewinds it, keeping the allocation.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.offset = 0
}
