package capture

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/sim0nj/tcpnego/tcpopt"
)

// Source yields raw link-layer frames.
type Source interface {
	ReadFrame() ([]byte, error)
	// Decoder decodes the first layer of each frame.
	Decoder() gopacket.Decoder
	Close() error
}

// Packet is a TCP segment pulled out of a captured frame.
type Packet struct {
	SrcIP   net.IP
	DstIP   net.IP
	TTL     uint8
	Segment []byte
}

func (p Packet) Header() tcpopt.Header {
	return tcpopt.Header(p.Segment)
}

// IsSyn reports whether the segment opens a connection (SYN without ACK).
func (p Packet) IsSyn() bool {
	if len(p.Segment) < tcpopt.MinimumSize {
		return false
	}
	f := p.Header().Flags()
	return f&tcpopt.FlagSyn != 0 && f&tcpopt.FlagAck == 0
}

// ExtractTCP decodes the link and network layers of frame and returns the
// TCP segment they carry. The TCP bytes are left undecoded so malformed
// options still reach the negotiator.
func ExtractTCP(frame []byte, dec gopacket.Decoder) (Packet, bool) {
	pkt := gopacket.NewPacket(frame, dec, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	var p Packet
	switch ip := pkt.NetworkLayer().(type) {
	case *layers.IPv4:
		if ip.Protocol != layers.IPProtocolTCP || ip.FragOffset != 0 {
			return p, false
		}
		p.SrcIP, p.DstIP, p.TTL = ip.SrcIP, ip.DstIP, ip.TTL
		p.Segment = ip.LayerPayload()
	case *layers.IPv6:
		if ip.NextHeader != layers.IPProtocolTCP {
			return p, false
		}
		p.SrcIP, p.DstIP, p.TTL = ip.SrcIP, ip.DstIP, ip.HopLimit
		p.Segment = ip.LayerPayload()
	default:
		return p, false
	}
	if len(p.Segment) < tcpopt.MinimumSize {
		return p, false
	}
	return p, true
}
