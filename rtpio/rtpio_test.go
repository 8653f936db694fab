package rtpio

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	packets []*rtp.Packet
	err     error
}

func (s *sliceSource) ReadRTP() (*rtp.Packet, error) {
	if len(s.packets) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	p := s.packets[0]
	s.packets = s.packets[1:]
	return p, nil
}

type collector struct {
	packets []*rtp.Packet
	failAt  int
}

func (c *collector) WriteRTP(p *rtp.Packet) error {
	if c.failAt > 0 && len(c.packets)+1 == c.failAt {
		return errors.New("link down")
	}
	c.packets = append(c.packets, p)
	return nil
}

func packet(seq uint16, pt uint8, payload string) *rtp.Packet {
	return &rtp.Packet{
		Header:  rtp.Header{Version: 2, SequenceNumber: seq, PayloadType: pt},
		Payload: []byte(payload),
	}
}

func TestReader_FiltersPackets(t *testing.T) {
	src := &sliceSource{packets: []*rtp.Packet{
		packet(10, PayloadTypeMP2T, "aa"),
		packet(11, 96, "xx"), // other payload type
		packet(12, PayloadTypeMP2T, "bb"),
		packet(12, PayloadTypeMP2T, "dup"), // duplicate
		packet(9, PayloadTypeMP2T, "old"),  // late
		packet(13, PayloadTypeMP2T, ""),    // empty
		packet(14, PayloadTypeMP2T, "cc"),
	}}
	r := NewReader(src)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "aabbcc", string(got))
	assert.Equal(t, 4, r.Dropped())
}

func TestReader_SequenceWraparound(t *testing.T) {
	src := &sliceSource{packets: []*rtp.Packet{
		packet(65534, PayloadTypeMP2T, "a"),
		packet(65535, PayloadTypeMP2T, "b"),
		packet(0, PayloadTypeMP2T, "c"),
		packet(1, PayloadTypeMP2T, "d"),
	}}
	got, err := io.ReadAll(NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(got))
}

func TestReader_SmallReads(t *testing.T) {
	src := &sliceSource{packets: []*rtp.Packet{packet(1, PayloadTypeMP2T, "hello")}}
	r := NewReader(src)

	p := make([]byte, 2)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "he", string(p[:n]))
	n, err = r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "ll", string(p[:n]))
	n, err = r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "o", string(p[:n]))

	_, err = r.Read(p)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_SourceError(t *testing.T) {
	boom := errors.New("track closed")
	r := NewReader(&sliceSource{err: boom})
	_, err := r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, boom)
}

func TestReader_CustomPayloadType(t *testing.T) {
	src := &sliceSource{packets: []*rtp.Packet{
		packet(1, PayloadTypeMP2T, "ts"),
		packet(2, 96, "dyn"),
	}}
	r := NewReader(src)
	r.SetPayloadType(96)
	assert.Equal(t, uint8(96), r.PayloadType())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "dyn", string(got))
}

func newTestWriter(dst PacketWriter) *Writer {
	w := NewWriter(dst, 0xCAFE)
	w.sequencer = rtp.NewFixedSequencer(100)
	w.base = 1000
	clock := time.Unix(0, 0)
	w.now = func() time.Time {
		clock = clock.Add(10 * time.Millisecond)
		return clock
	}
	return w
}

func TestWriter_Chunks(t *testing.T) {
	c := &collector{}
	w := newTestWriter(c)

	data := bytes.Repeat([]byte{0x47}, 2*DefaultChunkSize+368)
	n, err := w.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	require.Len(t, c.packets, 3)
	for i, p := range c.packets {
		assert.Equal(t, uint8(2), p.Version)
		assert.Equal(t, PayloadTypeMP2T, p.PayloadType)
		assert.Equal(t, uint32(0xCAFE), p.SSRC)
		assert.Equal(t, uint16(100+i), p.SequenceNumber)
		assert.Equal(t, uint32(1000), p.Timestamp)
		assert.Equal(t, i == 2, p.Marker)
	}
	assert.Len(t, c.packets[0].Payload, DefaultChunkSize)
	assert.Len(t, c.packets[2].Payload, 368)
}

func TestWriter_TimestampAdvances(t *testing.T) {
	c := &collector{}
	w := newTestWriter(c)

	_, err := w.Write([]byte("first"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second"))
	require.NoError(t, err)

	require.Len(t, c.packets, 2)
	// 10 ms at 90 kHz.
	assert.Equal(t, uint32(900), c.packets[1].Timestamp-c.packets[0].Timestamp)
}

func TestWriter_PartialFailure(t *testing.T) {
	c := &collector{failAt: 2}
	w := newTestWriter(c)
	w.SetChunkSize(TSPacketSize)

	n, err := w.Write(make([]byte, 3*TSPacketSize))
	require.Error(t, err)
	assert.Equal(t, TSPacketSize, n)
	assert.Len(t, c.packets, 1)
}

func TestWriter_Settings(t *testing.T) {
	w := NewWriter(&collector{}, 1)
	w.SetSSRC(7)
	w.SetPayloadType(96)
	w.SetChunkSize(10)
	assert.Equal(t, uint32(7), w.SSRC())
	assert.Equal(t, uint8(96), w.PayloadType())
	assert.Equal(t, TSPacketSize, w.ChunkSize())

	n, err := w.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWriterReader_RoundTrip(t *testing.T) {
	c := &collector{}
	w := newTestWriter(c)

	var want []byte
	for i := 0; i < 5; i++ {
		chunk := bytes.Repeat([]byte{byte(i)}, 1000+i*700)
		_, err := w.Write(chunk)
		require.NoError(t, err)
		want = append(want, chunk...)
	}

	got, err := io.ReadAll(NewReader(&sliceSource{packets: c.packets}))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConn_RoundTrip(t *testing.T) {
	client, server := net.Pipe()
	want := bytes.Repeat([]byte("ts"), 1500)

	errc := make(chan error, 1)
	go func() {
		defer client.Close()
		if _, err := client.Write([]byte{0x01}); err != nil { // not RTP
			errc <- err
			return
		}
		_, err := newTestWriter(ToConn(client)).Write(want)
		errc <- err
	}()

	got, err := io.ReadAll(NewReader(FromConn(server)))
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, want, got)
}

func TestNewTrackWriter(t *testing.T) {
	track, err := NewTrack("ts", "stream")
	require.NoError(t, err)
	assert.Equal(t, MimeTypeMP2T, track.Codec().MimeType)

	w, err := NewTrackWriter(track, 42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), w.SSRC())

	// Unbound tracks accept writes and drop them.
	_, err = w.Write([]byte("x"))
	assert.NoError(t, err)

	_, err = NewTrackWriter(nil, 1)
	assert.Error(t, err)
}
