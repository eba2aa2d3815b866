package main

import (
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/sim0nj/tcpnego/capture"
)

var sniffCommand = cli.Command{
	Name:  "sniff",
	Usage: "negotiate against live syns (linux, needs CAP_NET_RAW)",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:   "iface",
			Usage:  "net interface",
			EnvVar: "IFACE",
		},
		cli.IntFlag{
			Name:  "rate",
			Usage: "max events per second",
		},
		cli.Float64Flag{
			Name:  "sample",
			Usage: "sampling ratio 0..1",
		},
		cli.IntFlag{
			Name:  "dport",
			Usage: "destination tcp port filter",
		},
		cli.StringFlag{
			Name:  "src",
			Usage: "exclude source ip (host or CIDR)",
		},
		cli.StringFlag{
			Name:  "dst",
			Usage: "exclude destination ip (host or CIDR)",
		},
		cli.BoolFlag{
			Name:  "metrics",
			Usage: "enable /metrics",
		},
		cli.StringFlag{
			Name:  "metrics.addr",
			Usage: "metrics listen addr",
		},
	},
	Action: sniff,
}

func sniff(clicontext *cli.Context) error {
	cfg, err := loadConfig(clicontext)
	if err != nil {
		return err
	}
	if clicontext.IsSet("iface") {
		cfg.Capture.Iface = clicontext.String("iface")
	}
	if clicontext.IsSet("rate") {
		cfg.Capture.Rate = clicontext.Int("rate")
	}
	if clicontext.IsSet("sample") {
		cfg.Capture.Sample = clicontext.Float64("sample")
	}
	if clicontext.IsSet("dport") {
		cfg.Capture.DPort = clicontext.Int("dport")
	}
	if clicontext.IsSet("src") {
		cfg.Capture.Src = clicontext.String("src")
	}
	if clicontext.IsSet("dst") {
		cfg.Capture.Dst = clicontext.String("dst")
	}
	if clicontext.Bool("metrics") {
		cfg.Metrics.Enabled = true
	}
	if clicontext.IsSet("metrics.addr") {
		cfg.Metrics.Addr = clicontext.String("metrics.addr")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := newProcessor(cfg, clicontext.GlobalBool("json"), os.Stdout)
	if err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", p.stats.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logrus.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	src, err := capture.OpenRawSocket(cfg.Capture.Iface, logrus.StandardLogger())
	if err != nil {
		return err
	}
	logrus.WithField("iface", cfg.Capture.Iface).Info("capturing syns")

	defer src.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sig:
			src.Close()
		case <-done:
		}
	}()

	for {
		frame, err := src.ReadFrame()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		p.handle(frame, src.Decoder())
	}
}
