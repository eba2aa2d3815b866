//go:build linux

package capture

import (
	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/cilium/ebpf/rlimit"
	"github.com/pkg/errors"
)

// Offsets into an Ethernet frame carrying IPv4.
const (
	ethTypeOff   = 12
	ipv4Off      = 14
	ipv4FragOff  = ipv4Off + 6
	ipv4ProtoOff = ipv4Off + 9
	tcpFlagsOff  = 13
)

// synFilterSpec returns a socket filter that passes IPv4 TCP segments with
// SYN set and ACK clear, and drops everything else. Packet sockets run the
// filter with the frame starting at the link-layer header.
func synFilterSpec() *ebpf.ProgramSpec {
	insns := asm.Instructions{
		// Legacy packet loads read the skb from r6.
		asm.Mov.Reg(asm.R6, asm.R1),

		asm.LoadAbs(ethTypeOff, asm.Half),
		asm.JNE.Imm(asm.R0, 0x0800, "drop"),

		asm.LoadAbs(ipv4ProtoOff, asm.Byte),
		asm.JNE.Imm(asm.R0, 6, "drop"),

		// Only the first fragment carries the TCP header.
		asm.LoadAbs(ipv4FragOff, asm.Half),
		asm.And.Imm(asm.R0, 0x1fff),
		asm.JNE.Imm(asm.R0, 0, "drop"),

		asm.LoadAbs(ipv4Off, asm.Byte),
		asm.And.Imm(asm.R0, 0x0f),
		asm.LSh.Imm(asm.R0, 2),
		asm.Mov.Reg(asm.R7, asm.R0),
		asm.LoadInd(asm.R0, asm.R7, ipv4Off+tcpFlagsOff, asm.Byte),
		asm.And.Imm(asm.R0, 0x12),
		asm.JNE.Imm(asm.R0, 0x02, "drop"),

		asm.Mov.Imm(asm.R0, -1),
		asm.Return(),

		asm.Mov.Imm(asm.R0, 0).WithSymbol("drop"),
		asm.Return(),
	}
	return &ebpf.ProgramSpec{
		Name:         "tcpnego_syn",
		Type:         ebpf.SocketFilter,
		License:      "MIT",
		Instructions: insns,
	}
}

func loadSynFilter() (*ebpf.Program, error) {
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, errors.Wrap(err, "failed to lift memlock limit")
	}
	prog, err := ebpf.NewProgram(synFilterSpec())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load syn filter")
	}
	return prog, nil
}
