package rtpio

import (
	"net"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// maxDatagramSize bounds a single RTP datagram read from a connection.
const maxDatagramSize = 1 << 16

// FromConn adapts a datagram connection carrying one RTP packet per read,
// such as a *net.UDPConn. Datagrams that do not parse as RTP are skipped.
func FromConn(conn net.Conn) PacketSource {
	return &connSource{conn: conn, buf: make([]byte, maxDatagramSize)}
}

type connSource struct {
	conn net.Conn
	buf  []byte
}

func (s *connSource) ReadRTP() (*rtp.Packet, error) {
	for {
		n, err := s.conn.Read(s.buf)
		if err != nil {
			return nil, err
		}
		// Unmarshal aliases its input; the buffer is reused for the next read.
		data := make([]byte, n)
		copy(data, s.buf[:n])

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(data); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "connSource.ReadRTP",
				"size":     n,
				"error":    err,
			}).Debug("Skipping malformed RTP datagram")
			continue
		}
		return pkt, nil
	}
}

// ToConn adapts a datagram connection to a PacketWriter, sending one
// marshalled packet per write.
func ToConn(conn net.Conn) PacketWriter {
	return connSink{conn: conn}
}

type connSink struct {
	conn net.Conn
}

func (s connSink) WriteRTP(p *rtp.Packet) error {
	raw, err := p.Marshal()
	if err != nil {
		return err
	}
	_, err = s.conn.Write(raw)
	return err
}
