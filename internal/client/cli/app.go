package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/client/config"
)

// AuthClient is the part of client.GRPCClient the CLI uses.
type AuthClient interface {
	Register(ctx context.Context, req *api.RegisterRequest) error
	Login(ctx context.Context, userName, password string) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) (bool, error)
	LogoutAll(ctx context.Context) (int64, error)
	WhoAmI(ctx context.Context) (*api.WhoAmIResponse, error)
	Ping(ctx context.Context) error
	UserName() string
	SignedIn() bool
}

type App struct {
	config *config.Config
	client AuthClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config, ac AuthClient, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: ac, reader: bufio.NewReader(in), out: out}
}

func (a *App) isLoggedIn() bool {
	return a.client.SignedIn()
}

func (a *App) getStatus() string {
	if name := a.client.UserName(); name != "" && a.isLoggedIn() {
		return "(" + name + ")"
	}
	return ""
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// withTimeout bounds a single server call.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// Run prints the banner, reports whether the server is reachable and runs the
// REPL until exit or end of input.
func (a *App) Run(ctx context.Context) {
	a.printf("Welcome to bulletin CLI (type 'help' for commands)\n")

	pctx, cancel := a.withTimeout(ctx)
	if err := a.client.Ping(pctx); err != nil {
		a.printf("warning: server is not reachable: %v\n", err)
	}
	cancel()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}
