package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/sim0nj/tcpnego/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "tcpnego"
	app.Usage = "negotiate tcp options against captured or simulated handshakes"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug output in logs",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a toml config file",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "json output",
		},
		cli.IntFlag{
			Name:  "local-mss",
			Usage: "mss advertised in our syn and syn-ack",
		},
	}

	app.Commands = []cli.Command{
		readCommand,
		sniffCommand,
		handshakeCommand,
	}

	app.Before = func(clicontext *cli.Context) error {
		if clicontext.GlobalBool("debug") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tcpnego: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(clicontext *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if fp := clicontext.GlobalString("config"); fp != "" {
		var err error
		if cfg, err = config.LoadFile(fp); err != nil {
			return cfg, err
		}
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if clicontext.GlobalIsSet("local-mss") {
		mss, err := mssFlag("local-mss", clicontext.GlobalInt("local-mss"))
		if err != nil {
			return cfg, err
		}
		cfg.Negotiator.LocalMSS = mss
	}
	return cfg, cfg.Validate()
}

// mssFlag checks an MSS given on the command line before narrowing it.
func mssFlag(name string, v int) (uint16, error) {
	if v < config.MinMSS || v > 0xffff {
		return 0, errors.Errorf("invalid %s %d", name, v)
	}
	return uint16(v), nil
}
