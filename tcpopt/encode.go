package tcpopt

import "encoding/binary"

// The put functions encode one option at the start of b and return the
// number of bytes written. b must have room for the option.

func putMaxSegmentSize(b []byte, mss uint16) int {
	b[0] = byte(KindMaxSegmentSize)
	b[1] = LenMaxSegmentSize
	binary.BigEndian.PutUint16(b[2:], mss)
	return LenMaxSegmentSize
}

func putWindowScale(b []byte, shift uint8) int {
	b[0] = byte(KindWindowScale)
	b[1] = LenWindowScale
	b[2] = shift
	return LenWindowScale
}

func putNoOp(b []byte) int {
	b[0] = byte(KindNoOp)
	return LenNoOp
}

func putEndOfList(b []byte) int {
	b[0] = byte(KindEndOfList)
	return LenEndOfList
}

// padded returns the size of an options region holding n bytes of options
// plus the end-of-list byte, rounded up to the data offset granularity.
func padded(n int) int {
	return alignUp(n + LenEndOfList)
}
