package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/logging"
	"github.com/dmitrijs2005/bulletin/internal/server/auth"
	"github.com/dmitrijs2005/bulletin/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// helper to build server
func newTestServer(secret string) *GRPCServer {
	return &GRPCServer{
		logger: logging.Nop{},
		codec:  auth.NewTokenCodec([]byte(secret)),
	}
}

func withBearer(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(common.AccessTokenHeaderName, "Bearer "+token))
}

func TestInterceptor_PublicMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_SignIn_FullMethodName}
	handlerCalled := false

	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	require.NoError(t, err)
	assert.True(t, handlerCalled)
	assert.Equal(t, "ok", resp)
}

func TestInterceptor_Protected_MissingToken(t *testing.T) {
	s := newTestServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_WhoAmI_FullMethodName}

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, api.ReasonUnauthorized, errorInfo(t, err).GetReason())
}

func TestInterceptor_Protected_BadToken(t *testing.T) {
	s := newTestServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_SignOut_FullMethodName}

	other, err := auth.NewTokenCodec([]byte("other")).Issue("u1", "alice", models.RoleMember, time.Hour)
	require.NoError(t, err)

	_, err = s.accessTokenInterceptor(withBearer(other), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "unauthorized", status.Convert(err).Message())
}

func TestInterceptor_Protected_ExpiredToken(t *testing.T) {
	s := newTestServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_SignOutAll_FullMethodName}

	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := s.codec.WithClock(past).Issue("u1", "alice", models.RoleMember, time.Hour)
	require.NoError(t, err)

	_, err = s.accessTokenInterceptor(withBearer(expired), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, api.ReasonTokenExpired, errorInfo(t, err).GetReason())
}

func TestInterceptor_Protected_ValidToken(t *testing.T) {
	s := newTestServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_WhoAmI_FullMethodName}

	tok, err := s.codec.Issue("u1", "alice", models.RoleAdministrator, time.Hour)
	require.NoError(t, err)

	var got auth.Identity
	_, err = s.accessTokenInterceptor(withBearer(tok), nil, info, func(ctx context.Context, req any) (any, error) {
		var ok bool
		got, ok = auth.IdentityFromContext(ctx)
		require.True(t, ok)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.CurrentUserID())
	assert.True(t, got.IsAdministrator())
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{"bearer", "Bearer abc", "abc", true},
		{"lower case scheme", "bearer abc", "abc", true},
		{"no scheme", "abc", "", false},
		{"empty token", "Bearer ", "", false},
		{"basic", "Basic abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, tt.value))
			got, ok := bearerToken(ctx)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := bearerToken(context.Background())
	assert.False(t, ok)
}

func TestRequestInterceptor_PassesThrough(t *testing.T) {
	s := newTestServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: api.AuthService_Ping_FullMethodName}

	resp, err := s.requestInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "pong", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp)

	assert.Len(t, newRequestID(time.Now()), 26)
}
