package rtpio

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/pion/rtp"
)

// Writer slices a byte stream into RTP packets.
//
// Every Write is split into payloads of at most ChunkSize bytes that share
// one timestamp, taken from a 90 kHz clock started at the first Write. The
// last packet of each Write carries the marker bit. Writer is safe for
// concurrent use.
type Writer struct {
	dst         PacketWriter
	ssrc        uint32
	payloadType uint8
	chunkSize   int
	sequencer   rtp.Sequencer

	now   func() time.Time
	start time.Time
	base  uint32

	mu sync.Mutex
}

// NewWriter returns a Writer sending MPEG-TS payloads to dst under ssrc.
func NewWriter(dst PacketWriter, ssrc uint32) *Writer {
	return &Writer{
		dst:         dst,
		ssrc:        ssrc,
		payloadType: PayloadTypeMP2T,
		chunkSize:   DefaultChunkSize,
		sequencer:   rtp.NewRandomSequencer(),
		now:         time.Now,
		base:        rand.Uint32(),
	}
}

func (w *Writer) SetSSRC(ssrc uint32)     { w.mu.Lock(); w.ssrc = ssrc; w.mu.Unlock() }
func (w *Writer) SSRC() uint32            { w.mu.Lock(); defer w.mu.Unlock(); return w.ssrc }
func (w *Writer) SetPayloadType(pt uint8) { w.mu.Lock(); w.payloadType = pt; w.mu.Unlock() }
func (w *Writer) PayloadType() uint8      { w.mu.Lock(); defer w.mu.Unlock(); return w.payloadType }
func (w *Writer) ChunkSize() int          { w.mu.Lock(); defer w.mu.Unlock(); return w.chunkSize }

// SetChunkSize sets the maximum payload size. Values below one transport
// packet are rounded up to TSPacketSize.
func (w *Writer) SetChunkSize(size int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chunkSize = max(size, TSPacketSize)
}

// Write sends p as one or more packets. On failure it returns the number of
// bytes that were sent.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(p) == 0 {
		return 0, nil
	}
	ts := w.timestamp()

	sent := 0
	for sent < len(p) {
		end := min(sent+w.chunkSize, len(p))
		payload := make([]byte, end-sent)
		copy(payload, p[sent:end])

		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         end == len(p),
				PayloadType:    w.payloadType,
				SequenceNumber: w.sequencer.NextSequenceNumber(),
				Timestamp:      ts,
				SSRC:           w.ssrc,
			},
			Payload: payload,
		}
		if err := w.dst.WriteRTP(pkt); err != nil {
			return sent, fmt.Errorf("write rtp packet %d: %w", pkt.SequenceNumber, err)
		}
		sent = end
	}
	return sent, nil
}

func (w *Writer) timestamp() uint32 {
	now := w.now()
	if w.start.IsZero() {
		w.start = now
	}
	us := uint64(now.Sub(w.start) / time.Microsecond)
	return w.base + uint32(us*ClockRate/1e6)
}
