package tcpopt

import "encoding/binary"

// cursor walks a bounded options window. Reads past the end report !ok rather
// than panicking.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) more() bool {
	return c.off < len(c.b)
}

// byteAt reads the byte i positions past the cursor.
func (c *cursor) byteAt(i int) (byte, bool) {
	p := c.off + i
	if p < 0 || p >= len(c.b) {
		return 0, false
	}
	return c.b[p], true
}

func (c *cursor) uint16At(i int) (uint16, bool) {
	p := c.off + i
	if p < 0 || p+2 > len(c.b) {
		return 0, false
	}
	return binary.BigEndian.Uint16(c.b[p:]), true
}

// fits reports whether n bytes starting at the cursor lie inside the window.
func (c *cursor) fits(n int) bool {
	return c.off+n <= len(c.b)
}

func (c *cursor) advance(n int) {
	c.off += n
}

// next decodes the option at the cursor without advancing. length is the
// option's full wire length. ok is false when the walk must stop: an
// end-of-list, a length byte outside the window, an option running past the
// window or a zero length.
func (c *cursor) next() (k Kind, length int, ok bool) {
	b, ok := c.byteAt(0)
	if !ok {
		return 0, 0, false
	}
	k = Kind(b)
	if !k.hasLength() {
		n, _ := k.Len()
		return k, n, k != KindEndOfList
	}
	l, ok := c.byteAt(1)
	if !ok {
		return k, 0, false
	}
	length = int(l)
	if length == 0 || !c.fits(length) {
		return k, length, false
	}
	return k, length, true
}
