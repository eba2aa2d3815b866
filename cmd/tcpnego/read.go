package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/sim0nj/tcpnego/capture"
)

var readCommand = cli.Command{
	Name:      "read",
	Usage:     "negotiate against every syn in a pcap file",
	ArgsUsage: "FILE",
	Action:    read,
}

func read(clicontext *cli.Context) error {
	if clicontext.NArg() != 1 {
		return errors.New("read needs exactly one pcap file")
	}
	cfg, err := loadConfig(clicontext)
	if err != nil {
		return err
	}
	src, err := capture.OpenPcapFile(clicontext.Args().First())
	if err != nil {
		return err
	}
	defer src.Close()

	p, err := newProcessor(cfg, clicontext.GlobalBool("json"), os.Stdout)
	if err != nil {
		return err
	}
	return replay(src, p)
}

func replay(src capture.Source, p *processor) error {
	var frames, syns int
	for {
		frame, err := src.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to read frame")
		}
		frames++
		if p.handle(frame, src.Decoder()) {
			syns++
		}
	}
	logrus.WithFields(logrus.Fields{"frames": frames, "syns": syns}).Debug("capture replayed")
	return nil
}
