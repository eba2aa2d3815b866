// Package segment is the connection-side caller of the option negotiator:
// it validates inbound segments before handing their headers to the
// negotiator, and sizes and builds outbound headers around it.
package segment

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sim0nj/tcpnego/tcpopt"
)

// Data offset bounds in 32-bit words.
const (
	minDataOffsetWords = 5
	maxDataOffsetWords = 15
)

const replyFlags = tcpopt.FlagSyn | tcpopt.FlagAck

var (
	ErrShortSegment    = errors.New("segment shorter than the fixed tcp header")
	ErrBadDataOffset   = errors.New("data offset out of range")
	ErrTruncatedHeader = errors.New("data offset runs past the segment")
)

// Endpoint is one side of a TCP connection as far as option negotiation is
// concerned. It owns the connection's Negotiator and serializes access to it.
type Endpoint struct {
	mu   sync.Mutex
	opts *tcpopt.Negotiator
	log  logrus.FieldLogger
	// synIn is set once the options of the first inbound SYN are parsed.
	synIn bool
}

// NewEndpoint returns an Endpoint advertising localMSS.
func NewEndpoint(localMSS uint16, log logrus.FieldLogger) *Endpoint {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Endpoint{
		opts: tcpopt.New(localMSS),
		log:  log.WithField("local_mss", localMSS),
	}
}

// Receive checks the fixed header of an inbound segment. The options of the
// first SYN are negotiated; options on later segments are ignored.
func (e *Endpoint) Receive(seg []byte) error {
	h, err := checkHeader(seg)
	if err != nil {
		return err
	}
	if h.Flags()&tcpopt.FlagSyn == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.synIn {
		e.log.Debug("options on repeated syn ignored")
		return nil
	}
	e.synIn = true
	e.opts.Parse(h)
	e.log.WithFields(logrus.Fields{
		"remote_mss": e.opts.RemoteMSS,
		"mss":        e.opts.MSSReceived,
		"wscale":     e.opts.RemoteWindowScale,
		"ws":         e.opts.WindowScaleReceived,
		"sack":       e.opts.SACKReceived,
		"layout":     tcpopt.FormatLayout(tcpopt.Layout(h.Options())),
	}).Debug("syn options negotiated")
	return nil
}

func checkHeader(seg []byte) (tcpopt.Header, error) {
	if len(seg) < tcpopt.MinimumSize {
		return nil, errors.Wrapf(ErrShortSegment, "%d bytes", len(seg))
	}
	h := tcpopt.Header(seg)
	words := h.DataOffset() / 4
	if words < minDataOffsetWords || words > maxDataOffsetWords {
		return nil, errors.Wrapf(ErrBadDataOffset, "%d words", words)
	}
	if h.DataOffset() > len(seg) {
		return nil, errors.Wrapf(ErrTruncatedHeader, "offset %d, segment %d bytes", h.DataOffset(), len(seg))
	}
	return h[:h.DataOffset()], nil
}

// Build encodes an outbound header for f. Options are sized with the
// negotiator before the header is allocated, then filled into the reserved
// region; segments without SYN reserve nothing. A SYN-ACK carrying options
// reserves exactly ComputeSize bytes.
func (e *Endpoint) Build(f tcpopt.Fields) tcpopt.Header {
	e.mu.Lock()
	defer e.mu.Unlock()

	size := e.opts.PlanSize(f.Flags)
	if f.Flags&replyFlags == replyFlags && size != 0 {
		if want := e.opts.ComputeSize(); want != size {
			panic(fmt.Sprintf("segment: syn-ack reserves %d option bytes, negotiator computes %d", size, want))
		}
	}
	h := make(tcpopt.Header, tcpopt.MinimumSize+int(size))
	h.Encode(f)
	h.SetDataOffset(len(h))
	e.opts.Fill(h, size)
	return h
}

// Negotiated returns a copy of the negotiated state.
func (e *Endpoint) Negotiated() tcpopt.Negotiator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.opts
}
