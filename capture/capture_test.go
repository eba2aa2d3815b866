package capture

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sim0nj/tcpnego/tcpopt"
)

func ipv4Frame(t *testing.T, src, dst string, transport ...gopacket.SerializableLayer) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	if tcp, ok := transport[0].(*layers.TCP); ok {
		require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	all := append([]gopacket.SerializableLayer{eth, ip}, transport...)
	require.NoError(t, gopacket.SerializeLayers(buf, opts, all...))
	return buf.Bytes()
}

func synFrame(t *testing.T, src, dst string, dport layers.TCPPort, ack bool) []byte {
	return ipv4Frame(t, src, dst, &layers.TCP{
		SrcPort: 40000,
		DstPort: dport,
		SYN:     true,
		ACK:     ack,
		Window:  64240,
		Options: []layers.TCPOption{
			{OptionType: layers.TCPOptionKindMSS, OptionData: []byte{0x05, 0xb4}},
			{OptionType: layers.TCPOptionKindNop},
			{OptionType: layers.TCPOptionKindWindowScale, OptionData: []byte{7}},
		},
	})
}

func TestExtractTCP(t *testing.T) {
	p, ok := ExtractTCP(synFrame(t, "10.0.0.1", "10.0.0.2", 443, false), layers.LinkTypeEthernet)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", p.SrcIP.String())
	assert.Equal(t, "10.0.0.2", p.DstIP.String())
	assert.EqualValues(t, 64, p.TTL)
	assert.True(t, p.IsSyn())
	assert.EqualValues(t, 443, p.Header().DestinationPort())
	assert.Equal(t, 28, p.Header().DataOffset())

	n := tcpopt.New(1460)
	n.Parse(p.Header())
	assert.True(t, n.MSSReceived)
	assert.EqualValues(t, 1460, n.RemoteMSS)
	assert.True(t, n.WindowScaleReceived)

	p, ok = ExtractTCP(synFrame(t, "10.0.0.2", "10.0.0.1", 40000, true), layers.LinkTypeEthernet)
	require.True(t, ok)
	assert.False(t, p.IsSyn())
}

func TestExtractTCPKeepsMalformedOptions(t *testing.T) {
	// gopacket rejects the zero-length option; the negotiator stops at it.
	seg := make([]byte, 28)
	seg[12] = 7 << 4
	seg[13] = tcpopt.FlagSyn
	copy(seg[20:], []byte{2, 4, 0x02, 0x18, 0xfe, 0, 0, 0})

	p, ok := ExtractTCP(ipv4Frame(t, "10.0.0.1", "10.0.0.2", gopacket.Payload(seg)), layers.LinkTypeEthernet)
	require.True(t, ok)
	n := tcpopt.New(1460)
	n.Parse(p.Header())
	assert.True(t, n.MSSReceived)
	assert.EqualValues(t, 536, n.RemoteMSS)
}

func TestExtractTCPRejectsOtherTraffic(t *testing.T) {
	udp := ipv4Frame(t, "10.0.0.1", "10.0.0.2", gopacket.Payload(make([]byte, 30)))
	udp[14+9] = byte(layers.IPProtocolUDP)
	_, ok := ExtractTCP(udp, layers.LinkTypeEthernet)
	assert.False(t, ok)

	_, ok = ExtractTCP([]byte{1, 2, 3}, layers.LinkTypeEthernet)
	assert.False(t, ok)

	short := ipv4Frame(t, "10.0.0.1", "10.0.0.2", gopacket.Payload(make([]byte, 8)))
	_, ok = ExtractTCP(short, layers.LinkTypeEthernet)
	assert.False(t, ok)
}

func TestPcapRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	frames := [][]byte{
		synFrame(t, "10.0.0.1", "10.0.0.2", 443, false),
		synFrame(t, "10.0.0.2", "10.0.0.1", 40000, true),
	}
	for _, f := range frames {
		ci := gopacket.CaptureInfo{Timestamp: time.Unix(1700000000, 0), CaptureLength: len(f), Length: len(f)}
		require.NoError(t, w.WritePacket(ci, f))
	}

	src, err := NewPcapReader(&buf)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, layers.LinkTypeEthernet, src.Decoder())

	var syns int
	for {
		frame, err := src.ReadFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		p, ok := ExtractTCP(frame, src.Decoder())
		require.True(t, ok)
		if p.IsSyn() {
			syns++
		}
	}
	assert.Equal(t, 1, syns)
}

func TestOpenPcapFileMissing(t *testing.T) {
	_, err := OpenPcapFile("/nonexistent/capture.pcap")
	require.Error(t, err)
	_, err = NewPcapReader(bytes.NewReader([]byte("not a pcap")))
	require.Error(t, err)
}

func TestFilter(t *testing.T) {
	p, ok := ExtractTCP(synFrame(t, "10.1.2.3", "192.168.0.10", 443, false), layers.LinkTypeEthernet)
	require.True(t, ok)

	tests := []struct {
		src, dst string
		dport    int
		keep     bool
	}{
		{"", "", 0, true},
		{"10.0.0.0/8", "", 0, false},
		{"10.1.2.3", "", 0, false},
		{"10.1.2.4", "", 0, true},
		{"", "192.168.0.0/24", 0, false},
		{"", "", 443, true},
		{"", "", 80, false},
		{"2001:db8::/32", "", 0, true},
	}
	for _, tt := range tests {
		f, err := ParseFilter(tt.src, tt.dst, tt.dport)
		require.NoError(t, err)
		assert.Equal(t, tt.keep, f.Keep(p), "src=%q dst=%q dport=%d", tt.src, tt.dst, tt.dport)
	}

	_, err := ParseFilter("not-an-ip", "", 0)
	assert.Error(t, err)
	_, err = ParseFilter("", "10.0.0.0/99", 0)
	assert.Error(t, err)
	_, err = ParseFilter("", "", 70000)
	assert.Error(t, err)
}

func TestLimiter(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLimiter(2, 1.0)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _ := l.Allow()
		assert.True(t, ok)
	}
	ok, reason := l.Allow()
	assert.False(t, ok)
	assert.Equal(t, DropRateLimit, reason)

	now = now.Add(time.Second)
	ok, _ = l.Allow()
	assert.True(t, ok)

	l = NewLimiter(0, 0)
	ok, reason = l.Allow()
	assert.False(t, ok)
	assert.Equal(t, DropSample, reason)

	l = NewLimiter(0, 1.0)
	for i := 0; i < 100; i++ {
		ok, _ := l.Allow()
		require.True(t, ok)
	}
}
