package config

import (
	"github.com/pkg/errors"
)

// MinMSS matches Linux's TCP_MIN_MSS.
const MinMSS = 88

// Config is the tcpnego configuration file.
type Config struct {
	Debug bool `toml:"debug"`

	Negotiator NegotiatorConfig `toml:"negotiator"`
	Capture    CaptureConfig    `toml:"capture"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

type NegotiatorConfig struct {
	// LocalMSS is the MSS advertised in our SYN and SYN-ACK segments.
	LocalMSS uint16 `toml:"local_mss"`
}

type CaptureConfig struct {
	Iface string `toml:"iface"`
	// Src and Dst exclude a host or CIDR from capture.
	Src   string `toml:"src"`
	Dst   string `toml:"dst"`
	DPort int    `toml:"dport"`
	// Rate caps printed events per second, 0 disables the cap.
	Rate   int     `toml:"rate"`
	Sample float64 `toml:"sample"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Negotiator: NegotiatorConfig{LocalMSS: 1460},
		Capture:    CaptureConfig{Iface: "eth0", Sample: 1.0},
		Metrics:    MetricsConfig{Addr: ":9100"},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Negotiator.LocalMSS < MinMSS {
		return errors.Errorf("local_mss %d below minimum %d", c.Negotiator.LocalMSS, MinMSS)
	}
	if c.Capture.Sample < 0 || c.Capture.Sample > 1 {
		return errors.Errorf("sample %g outside 0..1", c.Capture.Sample)
	}
	if c.Capture.Rate < 0 {
		return errors.Errorf("negative rate %d", c.Capture.Rate)
	}
	if c.Capture.DPort < 0 || c.Capture.DPort > 65535 {
		return errors.Errorf("dport %d out of range", c.Capture.DPort)
	}
	return nil
}
