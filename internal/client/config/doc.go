// Package config loads runtime configuration for the bulletin CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the auth server gRPC endpoint
//	-f string   path of the local SQLite state file holding the session
//	-t int      per-request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "state_file": "bulletin.db",
//	  "request_timeout": "10s"
//	}
package config
