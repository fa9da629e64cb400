package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-t", "-r", "-w", "-l"}

// parseFlags overlays command-line flags onto config.
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-m string   metrics bind address; empty disables the endpoint
//	-d string   PostgreSQL DSN; empty selects the in-memory store
//	-s string   access token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-w int      expired session sweep interval, minutes (0 disables)
//	-l string   log level
//
// Durations are given as whole minutes.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	access := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	refresh := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (minutes)")
	sweep := fs.Int("w", int(config.SessionSweepInterval.Minutes()), "session sweep interval (minutes)")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	// Only replace durations that were given, so sub-minute values from JSON survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		case "w":
			config.SessionSweepInterval = time.Duration(*sweep) * time.Minute
		}
	})
	return nil
}
