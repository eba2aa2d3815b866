package capture

import (
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Filter drops segments by address or destination port.
type Filter struct {
	src   *net.IPNet
	dst   *net.IPNet
	dport uint16
}

// ParseFilter builds a Filter. src and dst exclude a host or CIDR and may be
// empty; dport keeps only one destination port when non-zero.
func ParseFilter(src, dst string, dport int) (*Filter, error) {
	if dport < 0 || dport > 65535 {
		return nil, errors.Errorf("invalid dport %d", dport)
	}
	f := &Filter{dport: uint16(dport)}
	var err error
	if f.src, err = parseNet(src); err != nil {
		return nil, errors.Wrap(err, "invalid src filter")
	}
	if f.dst, err = parseNet(dst); err != nil {
		return nil, errors.Wrap(err, "invalid dst filter")
	}
	return f, nil
}

func parseNet(s string) (*net.IPNet, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, "/") {
		_, ipn, err := net.ParseCIDR(s)
		return ipn, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, errors.Errorf("bad address %q", s)
	}
	if ip4 := ip.To4(); ip4 != nil {
		return &net.IPNet{IP: ip4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

// Keep reports whether p passes the filter.
func (f *Filter) Keep(p Packet) bool {
	if f.src != nil && f.src.Contains(p.SrcIP) {
		return false
	}
	if f.dst != nil && f.dst.Contains(p.DstIP) {
		return false
	}
	if f.dport != 0 && p.Header().DestinationPort() != f.dport {
		return false
	}
	return true
}

// Drop reasons returned by Limiter.Allow.
const (
	DropSample    = "sample"
	DropRateLimit = "rate_limit"
)

// Limiter samples events and caps their rate with a token bucket.
type Limiter struct {
	bucket *rate.Limiter
	sample float64
	rnd    *rand.Rand
	now    func() time.Time
}

// NewLimiter returns a Limiter passing a sample fraction of events, at most
// perSec per second with bursts of the same size. perSec 0 disables the cap.
func NewLimiter(perSec int, sample float64) *Limiter {
	l := &Limiter{
		sample: sample,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
	if perSec > 0 {
		l.bucket = rate.NewLimiter(rate.Limit(perSec), perSec)
	}
	return l
}

// Allow reports whether the next event passes, and the drop reason if not.
func (l *Limiter) Allow() (bool, string) {
	if l.sample < 1.0 && l.rnd.Float64() >= l.sample {
		return false, DropSample
	}
	if l.bucket != nil && !l.bucket.AllowN(l.now(), 1) {
		return false, DropRateLimit
	}
	return true, ""
}
