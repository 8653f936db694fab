// Package rtpio carries a byte stream over RTP so it can sit behind a
// mediaio bridge.
//
// The payload layout is MPEG-TS over RTP (RFC 2250): each packet holds a
// whole number of 188 byte transport packets, stamped with a 90 kHz clock.
// Reader feeds NewReadBridge from a packet source; Writer takes the bytes an
// output produces and sends them as packets.
package rtpio

import (
	"github.com/pion/rtp"
)

const (
	// PayloadTypeMP2T is the static payload type for MPEG-TS (RFC 3551).
	PayloadTypeMP2T uint8 = 33

	// ClockRate is the RTP timestamp rate for MPEG-TS.
	ClockRate = 90000

	// TSPacketSize is the size of one MPEG transport stream packet.
	TSPacketSize = 188

	// DefaultChunkSize keeps a packet with its 12 byte header under a 1400
	// byte MTU.
	DefaultChunkSize = 7 * TSPacketSize

	// MimeTypeMP2T is the media type used for WebRTC tracks carrying MPEG-TS.
	MimeTypeMP2T = "video/MP2T"
)

// PacketSource yields RTP packets in arrival order.
type PacketSource interface {
	ReadRTP() (*rtp.Packet, error)
}

// PacketWriter sends one RTP packet. *webrtc.TrackLocalStaticRTP
// satisfies it.
type PacketWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// seqNewer reports whether a comes after b in 16-bit serial arithmetic.
func seqNewer(a, b uint16) bool {
	return int16(a-b) > 0
}
