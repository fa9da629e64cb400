// Package cli provides the interactive bulletin command-line client.
//
// It prompts for commands in a simple REPL and drives the AuthService
// through client.GRPCClient: register, login, refresh, whoami, logout and
// logout-all. The session survives restarts in the local token store.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or the input ends.
package cli
