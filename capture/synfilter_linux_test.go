//go:build linux

package capture

import (
	"testing"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/stretchr/testify/assert"
)

func TestSynFilterSpec(t *testing.T) {
	spec := synFilterSpec()
	assert.Equal(t, ebpf.SocketFilter, spec.Type)

	var exits int
	for _, ins := range spec.Instructions {
		if ins.OpCode.JumpOp() == asm.Exit {
			exits++
		}
	}
	assert.Equal(t, 2, exits)

	// Loading needs CAP_BPF or CAP_SYS_ADMIN.
	prog, err := loadSynFilter()
	if err != nil {
		t.Skipf("socket filter not loadable here: %v", err)
	}
	defer prog.Close()
	assert.Equal(t, ebpf.SocketFilter, prog.Type())
}
