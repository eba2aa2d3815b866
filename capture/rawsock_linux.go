//go:build linux

package capture

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cilium/ebpf"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// readTimeout bounds how long Close waits for a blocked ReadFrame.
const readTimeout = 200 * time.Millisecond

func htons(v uint16) uint16 { return (v<<8)&0xff00 | v>>8 }

// RawSocket captures IPv4 frames on one interface through an AF_PACKET
// socket. When the kernel accepts it, an eBPF filter drops everything but
// connection-opening SYNs before they are copied to userspace.
type RawSocket struct {
	fd   int
	buf  []byte
	prog *ebpf.Program

	// readMu is held while ReadFrame runs so Close never closes the fd
	// under a reader.
	readMu  sync.Mutex
	closing atomic.Bool
	once    sync.Once
	err     error
}

// OpenRawSocket binds a packet socket to iface. It needs CAP_NET_RAW.
func OpenRawSocket(iface string, log logrus.FieldLogger) (Source, error) {
	ni, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, errors.Wrapf(err, "interface %s", iface)
	}
	proto := htons(unix.ETH_P_IP)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open packet socket")
	}
	s := &RawSocket{fd: fd, buf: make([]byte, 65536)}
	if err := unix.Bind(fd, &unix.SockaddrLinklayer{Protocol: proto, Ifindex: ni.Index}); err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "failed to bind to %s", iface)
	}
	tv := unix.NsecToTimeval(readTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "failed to set receive timeout")
	}

	prog, err := loadSynFilter()
	if err != nil {
		log.WithError(err).Warn("capturing without in-kernel syn filter")
		return s, nil
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ATTACH_BPF, prog.FD()); err != nil {
		prog.Close()
		log.WithError(err).Warn("capturing without in-kernel syn filter")
		return s, nil
	}
	s.prog = prog
	return s, nil
}

// ReadFrame blocks for the next frame and returns io.EOF once Close has been
// called. The returned slice is reused by the next call.
func (s *RawSocket) ReadFrame() ([]byte, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	for {
		if s.closing.Load() {
			return nil, io.EOF
		}
		n, _, err := unix.Recvfrom(s.fd, s.buf, 0)
		switch err {
		case nil:
			return s.buf[:n], nil
		case unix.EINTR, unix.EAGAIN:
			continue
		}
		return nil, errors.Wrap(err, "recvfrom")
	}
}

func (s *RawSocket) Decoder() gopacket.Decoder {
	return layers.LinkTypeEthernet
}

// Close stops a pending ReadFrame and releases the socket. It is safe to call
// from another goroutine and more than once.
func (s *RawSocket) Close() error {
	s.closing.Store(true)
	s.once.Do(func() {
		s.readMu.Lock()
		defer s.readMu.Unlock()
		if s.prog != nil {
			s.prog.Close()
		}
		s.err = unix.Close(s.fd)
	})
	return s.err
}
