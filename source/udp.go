package source

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/asticode/go-astikit"
	"golang.org/x/net/ipv4"
	"golang.org/x/time/rate"
)

// UDPConfig configures a multicast UDP/RTP transport stream source.
type UDPConfig struct {
	// Addr is host:port to listen on, e.g. "239.1.1.1:5000".
	Addr string
	// Iface, if set, is the network interface to join the multicast group
	// on; nil lets the OS pick.
	Iface *net.Interface
	// RTP indicates the socket carries RTP-encapsulated TS (12-byte RTP
	// header per datagram) rather than raw TS datagrams.
	RTP bool
}

// udpSource reads a multicast UDP socket joined via golang.org/x/net/ipv4,
// stripping the RTP header when configured, and rate-limits its own
// "short RTP datagram" diagnostic logging so a misbehaving sender can't
// flood the log.
type udpSource struct {
	pc       *ipv4.PacketConn
	rtp      bool
	buf      []byte
	leftover []byte
	limiter  *rate.Limiter
	l        astikit.CompleteLogger
}

// UDP opens and joins a multicast group for addr, returning a source.
func UDP(cfg UDPConfig, l astikit.CompleteLogger) (io.ReadCloser, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("tsdemux/source: resolving %q: %w", cfg.Addr, err)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: udpAddr.IP, Port: udpAddr.Port})
	if err != nil {
		return nil, fmt.Errorf("tsdemux/source: listening on %q: %w", cfg.Addr, err)
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(cfg.Iface, &net.UDPAddr{IP: udpAddr.IP}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tsdemux/source: joining multicast group %q: %w", udpAddr.IP, err)
	}

	return &udpSource{
		pc:      pc,
		rtp:     cfg.RTP,
		buf:     make([]byte, 65536),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		l:       l,
	}, nil
}

func (s *udpSource) Read(p []byte) (int, error) {
	for len(s.leftover) == 0 {
		n, _, _, err := s.pc.ReadFrom(s.buf)
		if err != nil {
			return 0, err
		}
		datagram := s.buf[:n]
		if s.rtp {
			if len(datagram) <= 12 {
				if s.limiter.Allow() {
					s.l.Warnf("tsdemux/source: dropping short RTP datagram (%d bytes)", len(datagram))
				}
				continue
			}
			datagram = datagram[12:]
		}
		if len(datagram) == 0 {
			continue
		}
		s.leftover = append([]byte(nil), datagram...)
	}

	n := copy(p, s.leftover)
	s.leftover = s.leftover[n:]
	return n, nil
}

func (s *udpSource) Close() error {
	return s.pc.Close()
}
