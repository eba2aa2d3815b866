package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/sirupsen/logrus"

	"github.com/sim0nj/tcpnego/capture"
	"github.com/sim0nj/tcpnego/config"
	"github.com/sim0nj/tcpnego/segment"
	"github.com/sim0nj/tcpnego/stats"
	"github.com/sim0nj/tcpnego/tcpopt"
)

// replyWindow is the window advertised in simulated SYN-ACKs.
const replyWindow = 65535

// processor answers every captured SYN with a fresh endpoint and reports what
// was negotiated.
type processor struct {
	localMSS uint16
	filter   *capture.Filter
	limiter  *capture.Limiter
	stats    *stats.Collector
	jsonOut  bool
	out      io.Writer
	log      logrus.FieldLogger
}

func newProcessor(cfg config.Config, jsonOut bool, out io.Writer) (*processor, error) {
	f, err := capture.ParseFilter(cfg.Capture.Src, cfg.Capture.Dst, cfg.Capture.DPort)
	if err != nil {
		return nil, err
	}
	return &processor{
		localMSS: cfg.Negotiator.LocalMSS,
		filter:   f,
		limiter:  capture.NewLimiter(cfg.Capture.Rate, cfg.Capture.Sample),
		stats:    stats.New(),
		jsonOut:  jsonOut,
		out:      out,
		log:      logrus.StandardLogger(),
	}, nil
}

type event struct {
	SrcIP   string `json:"src_ip"`
	DstIP   string `json:"dst_ip"`
	SrcPort int    `json:"src_port"`
	DstPort int    `json:"dst_port"`
	TTL     int    `json:"ttl"`
	Win     uint16 `json:"win"`
	Options string `json:"options"`
	MSS     uint16 `json:"mss,omitempty"`
	WScale  *uint8 `json:"wscale,omitempty"`
	SACK    bool   `json:"sack"`
	Reply   string `json:"reply_options"`
}

// handle processes one frame. It returns false for frames that are not a
// connection-opening SYN.
func (p *processor) handle(frame []byte, dec gopacket.Decoder) bool {
	pkt, ok := capture.ExtractTCP(frame, dec)
	if !ok || !pkt.IsSyn() {
		return false
	}
	if !p.filter.Keep(pkt) {
		p.stats.Drop(stats.ResultFiltered)
		return true
	}
	if ok, reason := p.limiter.Allow(); !ok {
		p.stats.Drop(reason)
		return true
	}

	ep := segment.NewEndpoint(p.localMSS, p.log)
	if err := ep.Receive(pkt.Segment); err != nil {
		p.stats.Drop(stats.ResultMalformed)
		p.log.WithError(err).WithField("src", pkt.SrcIP).Debug("malformed syn")
		return true
	}
	h := pkt.Header()
	reply := ep.Build(tcpopt.Fields{
		SrcPort:    h.DestinationPort(),
		DstPort:    h.SourcePort(),
		AckNum:     h.SequenceNumber() + 1,
		Flags:      tcpopt.FlagSyn | tcpopt.FlagAck,
		WindowSize: replyWindow,
	})
	n := ep.Negotiated()
	kinds := tcpopt.Layout(h.Options())
	p.stats.Observe(kinds, &n)

	ev := event{
		SrcIP:   pkt.SrcIP.String(),
		DstIP:   pkt.DstIP.String(),
		SrcPort: int(h.SourcePort()),
		DstPort: int(h.DestinationPort()),
		TTL:     int(pkt.TTL),
		Win:     h.WindowSize(),
		Options: tcpopt.FormatLayout(kinds),
		SACK:    n.SACKReceived,
		Reply:   hex.EncodeToString(reply.Options()),
	}
	if n.MSSReceived {
		ev.MSS = n.RemoteMSS
	}
	if n.WindowScaleReceived {
		ws := n.RemoteWindowScale
		ev.WScale = &ws
	}
	p.print(ev)
	return true
}

func (p *processor) print(ev event) {
	if p.jsonOut {
		b, err := json.Marshal(ev)
		if err != nil {
			p.log.WithError(err).Warn("failed to encode event")
			return
		}
		fmt.Fprintln(p.out, string(b))
		return
	}
	ws := "-"
	if ev.WScale != nil {
		ws = fmt.Sprint(*ev.WScale)
	}
	fmt.Fprintf(p.out, "%s:%d > %s:%d ttl=%d win=%d opts=%s mss=%d ws=%s sack=%v reply=%s\n",
		ev.SrcIP, ev.SrcPort, ev.DstIP, ev.DstPort, ev.TTL, ev.Win, ev.Options, ev.MSS, ws, ev.SACK, ev.Reply)
}
