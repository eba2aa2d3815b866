package stats

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sim0nj/tcpnego/tcpopt"
)

// Segment results.
const (
	ResultNegotiated  = "negotiated"
	ResultMalformed   = "malformed"
	ResultRateLimited = "rate_limit"
	ResultSampled     = "sample"
	ResultFiltered    = "filtered"
)

// Collector counts what the negotiator saw on captured SYNs.
type Collector struct {
	reg      *prometheus.Registry
	segments *prometheus.CounterVec
	options  *prometheus.CounterVec
	wscale   *prometheus.CounterVec
	mss      prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcpnego",
			Name:      "segments_total",
			Help:      "Captured SYN segments by outcome.",
		}, []string{"result"}),
		options: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcpnego",
			Name:      "options_total",
			Help:      "Options seen on negotiated SYN segments by kind.",
		}, []string{"kind"}),
		wscale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcpnego",
			Name:      "window_scale_total",
			Help:      "Window scale shifts offered by peers.",
		}, []string{"shift"}),
		mss: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tcpnego",
			Name:      "remote_mss_bytes",
			Help:      "MSS advertised by peers.",
			Buckets:   []float64{536, 1024, 1220, 1360, 1400, 1440, 1460, 8960, 65495},
		}),
	}
	c.reg.MustRegister(c.segments, c.options, c.wscale, c.mss)
	return c
}

// Observe records one negotiated SYN: the option kinds in wire order and the
// resulting state.
func (c *Collector) Observe(kinds []tcpopt.Kind, n *tcpopt.Negotiator) {
	c.segments.WithLabelValues(ResultNegotiated).Inc()
	for _, k := range kinds {
		c.options.WithLabelValues(k.String()).Inc()
	}
	if n.MSSReceived {
		c.mss.Observe(float64(n.RemoteMSS))
	}
	if n.WindowScaleReceived {
		c.wscale.WithLabelValues(strconv.Itoa(int(n.RemoteWindowScale))).Inc()
	}
}

// Drop counts a segment that was not negotiated.
func (c *Collector) Drop(result string) {
	c.segments.WithLabelValues(result).Inc()
}

// Handler serves the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}
