package tcpopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorNext(t *testing.T) {
	tests := []struct {
		name   string
		b      []byte
		kind   Kind
		length int
		ok     bool
	}{
		{"eol", []byte{0, 2, 4}, KindEndOfList, LenEndOfList, false},
		{"nop", []byte{1, 0}, KindNoOp, LenNoOp, true},
		{"mss", []byte{2, 4, 5, 0xb4}, KindMaxSegmentSize, 4, true},
		{"unknown", []byte{30, 3, 0}, Kind(30), 3, true},
		{"zero length", []byte{30, 0, 0}, Kind(30), 0, false},
		{"length outside window", []byte{3}, KindWindowScale, 0, false},
		{"runs past window", []byte{3, 3, 7}[:2], KindWindowScale, 3, false},
		{"empty", nil, KindEndOfList, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cursor{b: tt.b}
			k, length, ok := c.next()
			assert.Equal(t, tt.kind, k)
			assert.Equal(t, tt.length, length)
			assert.Equal(t, tt.ok, ok)
			assert.Zero(t, c.off)
		})
	}
}

func TestKindHasLength(t *testing.T) {
	for k := 0; k < 256; k++ {
		kind := Kind(k)
		assert.Equal(t, kind != KindEndOfList && kind != KindNoOp, kind.hasLength(), kind.String())
	}
}
