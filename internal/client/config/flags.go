package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/flagx"
)

var clientFlags = []string{"-a", "-f", "-t"}

func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the server")
	fs.StringVar(&cfg.StateFile, "f", cfg.StateFile, "local state file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (seconds)")

	if err := fs.Parse(flagx.FilterArgs(args, clientFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
