package rtpio

import (
	"errors"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// FromTrackRemote adapts a WebRTC remote track to a PacketSource.
func FromTrackRemote(track *webrtc.TrackRemote) PacketSource {
	return trackSource{track: track}
}

type trackSource struct {
	track *webrtc.TrackRemote
}

func (s trackSource) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := s.track.ReadRTP()
	return pkt, err
}

// NewTrack creates a local WebRTC track for MPEG-TS over RTP.
func NewTrack(id, streamID string) (*webrtc.TrackLocalStaticRTP, error) {
	return webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{
		MimeType:  MimeTypeMP2T,
		ClockRate: ClockRate,
	}, id, streamID)
}

// NewTrackWriter returns a Writer that sends to a local WebRTC track.
func NewTrackWriter(track *webrtc.TrackLocalStaticRTP, ssrc uint32) (*Writer, error) {
	if track == nil {
		return nil, errors.New("rtpio: nil track")
	}
	return NewWriter(track, ssrc), nil
}
