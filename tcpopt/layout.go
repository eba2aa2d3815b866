package tcpopt

import "strings"

// Layout lists the option kinds found in opts in wire order, the way a
// fingerprinting tool would print them. The walk follows the same bounds
// rules as Parse: it ends at end-of-list, at a zero length or at an option
// that runs past opts. A terminating end-of-list is included.
func Layout(opts []byte) []Kind {
	var kinds []Kind
	c := cursor{b: opts}
	for c.more() {
		k, length, ok := c.next()
		if k == KindEndOfList {
			kinds = append(kinds, k)
		}
		if !ok {
			break
		}
		kinds = append(kinds, k)
		c.advance(length)
	}
	return kinds
}

// FormatLayout joins kinds with commas, e.g. "mss,nop,ws,nop,nop,sok".
func FormatLayout(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ",")
}
