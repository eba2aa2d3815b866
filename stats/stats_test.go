package stats

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sim0nj/tcpnego/tcpopt"
)

func TestObserve(t *testing.T) {
	c := New()
	n := &tcpopt.Negotiator{MSSReceived: true, RemoteMSS: 1460, WindowScaleReceived: true, RemoteWindowScale: 7}
	kinds := []tcpopt.Kind{tcpopt.KindMaxSegmentSize, tcpopt.KindNoOp, tcpopt.KindNoOp, tcpopt.KindWindowScale}
	c.Observe(kinds, n)
	c.Observe(kinds, n)
	c.Drop(ResultMalformed)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.segments.WithLabelValues(ResultNegotiated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.segments.WithLabelValues(ResultMalformed)))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.options.WithLabelValues("nop")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.wscale.WithLabelValues("7")))

	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(`
# HELP tcpnego_options_total Options seen on negotiated SYN segments by kind.
# TYPE tcpnego_options_total counter
tcpnego_options_total{kind="mss"} 2
tcpnego_options_total{kind="nop"} 4
tcpnego_options_total{kind="ws"} 2
`), "tcpnego_options_total")
	require.NoError(t, err)
}

func TestHandler(t *testing.T) {
	c := New()
	c.Observe(nil, &tcpopt.Negotiator{MSSReceived: true, RemoteMSS: 536})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tcpnego_remote_mss_bytes_bucket{le="536"} 1`)
	assert.Contains(t, string(body), `tcpnego_segments_total{result="negotiated"} 1`)
}
