package segment

import (
	"github.com/pkg/errors"

	"github.com/sim0nj/tcpnego/tcpopt"
)

// Peer holds the fixed-header values one side uses during a handshake.
type Peer struct {
	Port   uint16
	ISN    uint32
	Window uint16
}

// Handshake runs SYN, SYN-ACK and ACK between two endpoints in memory and
// returns the three headers in the order they were sent.
func Handshake(client, server *Endpoint, c, s Peer) ([]tcpopt.Header, error) {
	syn := client.Build(tcpopt.Fields{
		SrcPort:    c.Port,
		DstPort:    s.Port,
		SeqNum:     c.ISN,
		Flags:      tcpopt.FlagSyn,
		WindowSize: c.Window,
	})
	if err := server.Receive(syn); err != nil {
		return nil, errors.Wrap(err, "server: syn")
	}

	synAck := server.Build(tcpopt.Fields{
		SrcPort:    s.Port,
		DstPort:    c.Port,
		SeqNum:     s.ISN,
		AckNum:     c.ISN + 1,
		Flags:      tcpopt.FlagSyn | tcpopt.FlagAck,
		WindowSize: s.Window,
	})
	if err := client.Receive(synAck); err != nil {
		return nil, errors.Wrap(err, "client: syn-ack")
	}

	ack := client.Build(tcpopt.Fields{
		SrcPort:    c.Port,
		DstPort:    s.Port,
		SeqNum:     c.ISN + 1,
		AckNum:     s.ISN + 1,
		Flags:      tcpopt.FlagAck,
		WindowSize: c.Window,
	})
	if err := server.Receive(ack); err != nil {
		return nil, errors.Wrap(err, "server: ack")
	}
	return []tcpopt.Header{syn, synAck, ack}, nil
}
