// Package mediaio lets libavformat read from and write to Go streams.
//
// FFmpeg's custom I/O model is a fixed callback triplet (read_packet,
// write_packet, seek) on an AVIOContext. This package bridges that model to
// io.Reader, io.Writer and io.Seeker so demuxers and muxers can work on
// in-memory buffers, pipes, network connections or anything else that
// implements the standard interfaces.
//
// Key pieces include:
//   - StreamBridge: owns the AVIOContext, its 16 KiB native buffer and the
//     boxed Go stream, and frees them together in a fixed order
//   - Six bridge constructors, one per supported capability combination
//   - OpenInputStream/CreateOutputStream: install a bridge in a format context
//   - OpenInput/CreateOutput: the plain path-based equivalents
//
// # Architecture
//
//	Go stream -> StreamBridge (AVIOContext + trampolines) -> AVFormatContext
//
// A context opened on a bridge is tagged with a teardown mode. Closing it
// never calls avio_close on the bridge's AVIOContext; the bridge releases
// it instead.
//
// # Native Libraries
//
// By default the package loads libavformat and libavutil at runtime with
// purego (CGO_ENABLED=0 works). Set MEDIAIO_LIB_PATH to the directory
// containing the libraries, or MEDIAIO_AVFORMAT_LIB_PATH and
// MEDIAIO_AVUTIL_LIB_PATH to the files themselves.
//
// # Build Tags
//
//   - ffmpeg_cgo: link FFmpeg through cgo and pkg-config instead of purego
//
// # Concurrency
//
// Callbacks run synchronously on the goroutine that drives the context. A
// context, and the stream behind it, must be used by one goroutine at a time.
package mediaio
