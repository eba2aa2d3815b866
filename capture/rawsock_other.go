//go:build !linux

package capture

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// OpenRawSocket is only available on linux; read a pcap file instead.
func OpenRawSocket(iface string, log logrus.FieldLogger) (Source, error) {
	return nil, errors.Errorf("live capture on %s is not supported on %s", iface, runtime.GOOS)
}
