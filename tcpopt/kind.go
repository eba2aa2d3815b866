package tcpopt

import "strconv"

// Kind is the first byte of a TCP option.
type Kind uint8

const (
	KindEndOfList      Kind = 0
	KindNoOp           Kind = 1
	KindMaxSegmentSize Kind = 2
	KindWindowScale    Kind = 3
	KindSackPermitted  Kind = 4
	kindTimestamp      Kind = 8
)

// Wire lengths of the options this package understands, kind and length
// bytes included.
const (
	LenEndOfList      = 1
	LenNoOp           = 1
	LenMaxSegmentSize = 4
	LenWindowScale    = 3
	LenSackPermitted  = 2
)

// Len returns the fixed wire length of k. ok is false for kinds this package
// does not know.
func (k Kind) Len() (n int, ok bool) {
	switch k {
	case KindEndOfList:
		return LenEndOfList, true
	case KindNoOp:
		return LenNoOp, true
	case KindMaxSegmentSize:
		return LenMaxSegmentSize, true
	case KindWindowScale:
		return LenWindowScale, true
	case KindSackPermitted:
		return LenSackPermitted, true
	}
	return 0, false
}

// hasLength reports whether an option of kind k carries a length byte.
func (k Kind) hasLength() bool {
	return k != KindEndOfList && k != KindNoOp
}

func (k Kind) String() string {
	switch k {
	case KindEndOfList:
		return "eol"
	case KindNoOp:
		return "nop"
	case KindMaxSegmentSize:
		return "mss"
	case KindWindowScale:
		return "ws"
	case KindSackPermitted:
		return "sok"
	case kindTimestamp:
		return "ts"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}
