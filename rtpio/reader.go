package rtpio

import (
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// Reader exposes the payloads of an RTP packet source as a byte stream.
//
// Packets with a different payload type and packets that are not newer than
// the last one delivered are dropped. Reader does not reorder; a late packet
// is lost, which the MPEG-TS demuxer tolerates as a continuity error.
type Reader struct {
	src         PacketSource
	payloadType uint8

	pending []byte
	lastSeq uint16
	started bool
	dropped int
}

// NewReader returns a Reader over src accepting PayloadTypeMP2T.
func NewReader(src PacketSource) *Reader {
	return &Reader{src: src, payloadType: PayloadTypeMP2T}
}

// SetPayloadType changes the payload type that is accepted.
func (r *Reader) SetPayloadType(pt uint8) { r.payloadType = pt }

// PayloadType returns the accepted payload type.
func (r *Reader) PayloadType() uint8 { return r.payloadType }

// Dropped returns the number of packets discarded so far.
func (r *Reader) Dropped() int { return r.dropped }

// Read copies payload bytes into p, pulling packets as needed. Errors from
// the source, io.EOF included, are returned as-is.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.pending) == 0 {
		pkt, err := r.src.ReadRTP()
		if err != nil {
			return 0, err
		}
		if !r.accept(pkt) {
			continue
		}
		r.pending = pkt.Payload
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *Reader) accept(pkt *rtp.Packet) bool {
	reason := ""
	switch {
	case pkt.PayloadType != r.payloadType:
		reason = "payload type"
	case r.started && !seqNewer(pkt.SequenceNumber, r.lastSeq):
		reason = "stale sequence number"
	case len(pkt.Payload) == 0:
		reason = "empty payload"
	}
	if reason != "" {
		r.dropped++
		logrus.WithFields(logrus.Fields{
			"function":     "Reader.accept",
			"reason":       reason,
			"sequence":     pkt.SequenceNumber,
			"payload_type": pkt.PayloadType,
		}).Debug("Dropped RTP packet")
		return false
	}
	r.started = true
	r.lastSeq = pkt.SequenceNumber
	return true
}
