package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/client/tokenstore"
	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/cryptox"
	"github.com/dmitrijs2005/bulletin/internal/logging"
	"github.com/dmitrijs2005/bulletin/internal/server/config"
	servergrpc "github.com/dmitrijs2005/bulletin/internal/server/grpc"
	"github.com/dmitrijs2005/bulletin/internal/server/metrics"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bulletin/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type memTokens struct {
	mu     sync.Mutex
	tokens tokenstore.Tokens
	saves  int
}

func (m *memTokens) Load(context.Context) (tokenstore.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *memTokens) Save(_ context.Context, t tokenstore.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	m.saves++
	return nil
}

func (m *memTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokenstore.Tokens{}
	return nil
}

func (m *memTokens) get() tokenstore.Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	clock *clock
	lis   *bufconn.Listener
}

func startServer(t *testing.T) *env {
	t.Helper()

	clk := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := &config.Config{
		SecretKey:                    "secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: 24 * time.Hour,
	}
	hasher := cryptox.NewPasswordHasher(cryptox.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	svc := services.NewAuthService(repomanager.NewMemoryRepositoryManager(), cfg,
		services.WithPasswordHasher(hasher), services.WithClock(clk.Now))

	gs := servergrpc.NewGRPCServer("bufnet", logging.Nop{}, svc, metrics.New())
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &env{clock: clk, lis: lis}
}

func (e *env) newClient(t *testing.T, store TokenStore) *GRPCClient {
	t.Helper()
	c, err := NewGRPCClient(context.Background(), "passthrough:///bufnet", store,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return e.lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func registerReq(name string) *api.RegisterRequest {
	return &api.RegisterRequest{
		Username:  name,
		Password:  "Secret123!",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     name + "@example.com",
	}
}

func TestClient_RegisterWhoAmILogout(t *testing.T) {
	e := startServer(t)
	store := &memTokens{}
	c := e.newClient(t, store)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Register(ctx, registerReq("alice")))
	assert.True(t, c.SignedIn())
	assert.Equal(t, "alice", c.UserName())
	assert.NotEmpty(t, store.get().RefreshToken)

	me, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	ok, err := c.Logout(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, c.SignedIn())
	assert.Equal(t, tokenstore.Tokens{}, store.get())

	_, err = c.WhoAmI(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestClient_RestoresStoredSession(t *testing.T) {
	e := startServer(t)
	store := &memTokens{}
	ctx := context.Background()

	first := e.newClient(t, store)
	require.NoError(t, first.Register(ctx, registerReq("bob")))

	second := e.newClient(t, store)
	assert.Equal(t, "bob", second.UserName())
	me, err := second.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", me.Username)
}

func TestClient_RefreshesExpiredAccessToken(t *testing.T) {
	e := startServer(t)
	store := &memTokens{}
	c := e.newClient(t, store)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, registerReq("carol")))
	before := store.get()

	e.clock.Advance(2 * time.Minute)

	me, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "carol", me.Username)

	after := store.get()
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.Equal(t, "carol", after.UserName)
}

func TestClient_ExpiredRefreshTokenIsUnauthorized(t *testing.T) {
	e := startServer(t)
	c := e.newClient(t, &memTokens{})
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, registerReq("dave")))
	e.clock.Advance(48 * time.Hour)

	_, err := c.WhoAmI(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.LogoutAll(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMapError_KeepsClientErrors(t *testing.T) {
	c := &GRPCClient{}

	assert.Nil(t, c.mapError(nil))
	assert.Same(t, ErrUnauthorized, c.mapError(ErrUnauthorized))
	assert.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "unauthorized")), ErrUnauthorized)
	assert.ErrorIs(t, c.mapError(status.Error(codes.AlreadyExists, "already exists")), ErrConflict)
	assert.ErrorIs(t, c.mapError(status.Error(codes.Unavailable, "down")), ErrUnavailable)
}

func TestClient_ExplicitRefreshRotates(t *testing.T) {
	e := startServer(t)
	store := &memTokens{}
	c := e.newClient(t, store)
	ctx := context.Background()

	assert.ErrorIs(t, c.Refresh(ctx), ErrNotSignedIn)

	require.NoError(t, c.Register(ctx, registerReq("erin")))
	old := store.get().RefreshToken
	require.NoError(t, c.Refresh(ctx))
	assert.NotEqual(t, old, store.get().RefreshToken)
}

func TestClient_LogoutAll(t *testing.T) {
	e := startServer(t)
	ctx := context.Background()

	phone := e.newClient(t, &memTokens{})
	laptop := e.newClient(t, &memTokens{})
	require.NoError(t, phone.Register(ctx, registerReq("frank")))
	require.NoError(t, laptop.Login(ctx, "frank", "Secret123!"))

	n, err := phone.LogoutAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.False(t, phone.SignedIn())

	assert.ErrorIs(t, laptop.Refresh(ctx), ErrUnauthorized)
}

func TestClient_ErrorMapping(t *testing.T) {
	e := startServer(t)
	c := e.newClient(t, &memTokens{})
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, registerReq("grace")))

	err := c.Register(ctx, registerReq("grace"))
	assert.ErrorIs(t, err, ErrConflict)

	err = c.Login(ctx, "grace", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	bad := registerReq("x")
	bad.Email = "not-an-email"
	err = c.Register(ctx, bad)
	require.ErrorIs(t, err, common.ErrorValidation)
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"username", "email"}, fields)
}

func TestClient_LogoutNotSignedIn(t *testing.T) {
	e := startServer(t)
	c := e.newClient(t, &memTokens{})

	_, err := c.Logout(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = c.LogoutAll(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}
