package tcpopt

import "fmt"

// DefaultWindowScale is the shift this stack advertises once the peer has
// offered window scaling.
const DefaultWindowScale = 7

// Negotiator holds the options agreed with one peer. It is created with the
// connection, mutated while the handshake runs and read-only afterwards.
//
// A Negotiator is not safe for concurrent use; the owning connection
// serializes access.
type Negotiator struct {
	MSSReceived bool
	// RemoteMSS is valid only if MSSReceived.
	RemoteMSS uint16

	WindowScaleReceived bool
	// RemoteWindowScale is valid only if WindowScaleReceived.
	RemoteWindowScale uint8
	// LocalWindowScale is 0 until the peer offers window scaling, then
	// DefaultWindowScale.
	LocalWindowScale uint8

	SACKReceived bool

	LocalMSS uint16
}

// New returns a Negotiator that advertises localMSS.
func New(localMSS uint16) *Negotiator {
	return &Negotiator{LocalMSS: localMSS}
}

// Parse records the options carried by the inbound header h. Only the
// options window declared by the data offset is read, clipped to len(h).
// Malformed or truncated options end the walk; whatever was recognized before
// them is kept.
func (n *Negotiator) Parse(h Header) {
	c := cursor{b: h.Options()}
	for c.more() {
		k, length, ok := c.next()
		if !ok {
			return
		}
		switch k {
		case KindMaxSegmentSize:
			if length != LenMaxSegmentSize {
				break
			}
			if v, ok := c.uint16At(2); ok {
				n.RemoteMSS = v
				n.MSSReceived = true
			}
		case KindWindowScale:
			if length != LenWindowScale {
				break
			}
			if v, ok := c.byteAt(2); ok {
				n.RemoteWindowScale = v
				n.WindowScaleReceived = true
				n.LocalWindowScale = DefaultWindowScale
			}
		case KindSackPermitted:
			if length == LenSackPermitted {
				n.SACKReceived = true
			}
		case KindNoOp:
		default:
			// Unknown options are skipped by their declared length.
		}
		c.advance(length)
	}
}

// ComputeSize returns the size of the options region to reserve for a SYN
// sent in reply to the peer's options: MSS and window scale are counted only
// when the peer sent them. The result is always a multiple of 4 and includes
// the end-of-list byte.
//
// ComputeSize does not look at segment flags. It matches Fill only for a SYN
// segment built after at least one option was received; use PlanSize when the
// flags are known.
func (n *Negotiator) ComputeSize() uint8 {
	size := 0
	if n.MSSReceived {
		size += LenMaxSegmentSize
	}
	if n.WindowScaleReceived {
		size += LenWindowScale
	}
	return uint8(padded(size))
}

// PlanSize returns the number of bytes Fill will write into a header carrying
// flags.
func (n *Negotiator) PlanSize(flags uint8) uint8 {
	mss, ws := n.emits(flags)
	size := 0
	if mss {
		size += LenMaxSegmentSize
	}
	if ws {
		size += LenWindowScale
	}
	if size == 0 {
		return 0
	}
	return uint8(padded(size))
}

// emits reports which options go into a segment carrying flags. Nothing is
// sent outside SYN segments; MSS and window scale are sent when the peer
// offered them or when we open the connection.
func (n *Negotiator) emits(flags uint8) (mss, ws bool) {
	if flags&FlagSyn == 0 {
		return false, false
	}
	initiator := flags&FlagAck == 0
	return n.MSSReceived || initiator, n.WindowScaleReceived || initiator
}

// Fill writes the options for the outbound header h, whose flags must already
// be set, into h[MinimumSize:] and returns the number of bytes written.
// planned is the size reserved by the caller. A mismatch between planned and
// the bytes Fill writes is a programming error and panics.
func (n *Negotiator) Fill(h Header, planned uint8) uint8 {
	flags := h.Flags()
	if want := n.PlanSize(flags); want != planned {
		panic(fmt.Sprintf("tcpopt: %d option bytes reserved, %d needed (flags %#02x)", planned, want, flags))
	}
	if planned == 0 {
		return 0
	}
	b := h[MinimumSize : MinimumSize+int(planned)]

	mss, ws := n.emits(flags)
	size := 0
	if mss {
		size += putMaxSegmentSize(b[size:], n.LocalMSS)
	}
	if ws {
		size += putWindowScale(b[size:], n.LocalWindowScale)
	}
	for end := padded(size); size < end-LenEndOfList; {
		size += putNoOp(b[size:])
	}
	size += putEndOfList(b[size:])

	if size != int(planned) {
		panic(fmt.Sprintf("tcpopt: wrote %d option bytes, planned %d", size, planned))
	}
	return uint8(size)
}
