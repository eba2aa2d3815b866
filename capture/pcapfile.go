package capture

import (
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// PcapFile reads frames from a pcap capture.
type PcapFile struct {
	r *pcapgo.Reader
	c io.Closer
}

// OpenPcapFile opens the pcap file at path.
func OpenPcapFile(path string) (*PcapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	p, err := NewPcapReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	p.c = f
	return p, nil
}

// NewPcapReader reads a pcap stream from r. Closing the result does not close
// r.
func NewPcapReader(r io.Reader) (*PcapFile, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "bad pcap header")
	}
	return &PcapFile{r: pr}, nil
}

// ReadFrame returns the next frame, or io.EOF at the end of the capture.
func (p *PcapFile) ReadFrame() ([]byte, error) {
	data, _, err := p.r.ReadPacketData()
	return data, err
}

func (p *PcapFile) Decoder() gopacket.Decoder {
	return p.r.LinkType()
}

func (p *PcapFile) Close() error {
	if p.c == nil {
		return nil
	}
	return p.c.Close()
}
