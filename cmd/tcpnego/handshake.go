package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/sim0nj/tcpnego/segment"
	"github.com/sim0nj/tcpnego/tcpopt"
)

var handshakeCommand = cli.Command{
	Name:  "handshake",
	Usage: "run a simulated three-way handshake and print the segments",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "client-mss",
			Usage: "mss advertised by the client",
			Value: 1460,
		},
		cli.IntFlag{
			Name:  "server-mss",
			Usage: "mss advertised by the server (defaults to local_mss)",
		},
	},
	Action: handshake,
}

func handshake(clicontext *cli.Context) error {
	cfg, err := loadConfig(clicontext)
	if err != nil {
		return err
	}
	clientMSS, err := mssFlag("client-mss", clicontext.Int("client-mss"))
	if err != nil {
		return err
	}
	serverMSS := cfg.Negotiator.LocalMSS
	if clicontext.IsSet("server-mss") {
		if serverMSS, err = mssFlag("server-mss", clicontext.Int("server-mss")); err != nil {
			return err
		}
	}
	return runHandshake(os.Stdout, clientMSS, serverMSS, clicontext.GlobalBool("json"))
}

type handshakeSegment struct {
	Name    string `json:"name"`
	Flags   uint8  `json:"flags"`
	Options string `json:"options"`
	Header  string `json:"header"`
}

type handshakeResult struct {
	Segments []handshakeSegment `json:"segments"`
	Client   tcpopt.Negotiator  `json:"client"`
	Server   tcpopt.Negotiator  `json:"server"`
}

func runHandshake(out io.Writer, clientMSS, serverMSS uint16, jsonOut bool) error {
	log := logrus.StandardLogger()
	client := segment.NewEndpoint(clientMSS, log.WithField("side", "client"))
	server := segment.NewEndpoint(serverMSS, log.WithField("side", "server"))
	segs, err := segment.Handshake(client, server,
		segment.Peer{Port: 40000, ISN: 1, Window: 64240},
		segment.Peer{Port: 443, ISN: 1 << 20, Window: 65160})
	if err != nil {
		return err
	}

	res := handshakeResult{Client: client.Negotiated(), Server: server.Negotiated()}
	for i, name := range []string{"syn", "syn-ack", "ack"} {
		h := segs[i]
		res.Segments = append(res.Segments, handshakeSegment{
			Name:    name,
			Flags:   h.Flags(),
			Options: tcpopt.FormatLayout(tcpopt.Layout(h.Options())),
			Header:  fmt.Sprintf("% x", []byte(h)),
		})
	}

	if jsonOut {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode result")
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	for _, s := range res.Segments {
		fmt.Fprintf(out, "%-8s opts=%-12s %s\n", s.Name, s.Options, s.Header)
	}
	for _, side := range []struct {
		name string
		n    tcpopt.Negotiator
	}{{"client", res.Client}, {"server", res.Server}} {
		fmt.Fprintf(out, "%s: local_mss=%d remote_mss=%d local_wscale=%d remote_wscale=%d sack=%v\n",
			side.name, side.n.LocalMSS, side.n.RemoteMSS, side.n.LocalWindowScale, side.n.RemoteWindowScale, side.n.SACKReceived)
	}
	return nil
}
