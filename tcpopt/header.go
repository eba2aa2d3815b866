package tcpopt

import "encoding/binary"

const (
	srcPort    = 0
	dstPort    = 2
	seqNum     = 4
	ackNum     = 8
	dataOffset = 12
	tcpFlags   = 13
	winSize    = 14
)

// Flags that may be set in a TCP segment.
const (
	FlagFin = 1 << iota
	FlagSyn
	FlagRst
	FlagPsh
	FlagAck
	FlagUrg
)

const (
	// MinimumSize is the size of the fixed TCP header.
	MinimumSize = 20

	// MaxOptionsSize is the largest options region the 4-bit data offset
	// field can describe (15 words minus the fixed header).
	MaxOptionsSize = 40

	// optionAlign is the granularity of the data offset field.
	optionAlign = 4
)

// Header is a TCP header stored in a byte slice.
type Header []byte

// DataOffset returns the header length in bytes as declared by the data
// offset field.
func (h Header) DataOffset() int {
	return int(h[dataOffset]>>4) * 4
}

// SetDataOffset stores a header length given in bytes. n must be a multiple
// of 4.
func (h Header) SetDataOffset(n int) {
	h[dataOffset] = uint8(n/4) << 4
}

func (h Header) Flags() uint8 {
	return h[tcpFlags]
}

func (h Header) SetFlags(f uint8) {
	h[tcpFlags] = f
}

func (h Header) SourcePort() uint16 {
	return binary.BigEndian.Uint16(h[srcPort:])
}

func (h Header) DestinationPort() uint16 {
	return binary.BigEndian.Uint16(h[dstPort:])
}

func (h Header) SequenceNumber() uint32 {
	return binary.BigEndian.Uint32(h[seqNum:])
}

func (h Header) AckNumber() uint32 {
	return binary.BigEndian.Uint32(h[ackNum:])
}

func (h Header) WindowSize() uint16 {
	return binary.BigEndian.Uint16(h[winSize:])
}

// Fields holds the fixed-header values of a segment to be encoded.
type Fields struct {
	SrcPort    uint16
	DstPort    uint16
	SeqNum     uint32
	AckNum     uint32
	Flags      uint8
	WindowSize uint16
}

// Encode writes f into the fixed part of h. The data offset is left alone.
func (h Header) Encode(f Fields) {
	binary.BigEndian.PutUint16(h[srcPort:], f.SrcPort)
	binary.BigEndian.PutUint16(h[dstPort:], f.DstPort)
	binary.BigEndian.PutUint32(h[seqNum:], f.SeqNum)
	binary.BigEndian.PutUint32(h[ackNum:], f.AckNum)
	h[tcpFlags] = f.Flags
	binary.BigEndian.PutUint16(h[winSize:], f.WindowSize)
}

// Options returns the options window of h: the bytes between the fixed header
// and the declared data offset, clipped to the bytes actually present. It
// returns nil when h is shorter than the fixed header.
func (h Header) Options() []byte {
	if len(h) < MinimumSize {
		return nil
	}
	end := h.DataOffset()
	if end > len(h) {
		end = len(h)
	}
	if end <= MinimumSize {
		return nil
	}
	// Full slice expression so nothing past the window is reachable.
	return h[MinimumSize:end:end]
}

func alignUp(n int) int {
	return (n + optionAlign - 1) &^ (optionAlign - 1)
}
