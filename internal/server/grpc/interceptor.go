package grpc

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/server/auth"
	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader is the response header carrying the request id.
const RequestIDHeader = "x-request-id"

// protectedMethods require a valid access token.
var protectedMethods = map[string]bool{
	api.AuthService_SignOut_FullMethodName:    true,
	api.AuthService_SignOutAll_FullMethodName: true,
	api.AuthService_WhoAmI_FullMethodName:     true,
}

// requestInterceptor tags the call with a ULID, records metrics and logs the
// outcome.
func (s *GRPCServer) requestInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	requestID := newRequestID(start)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

	resp, err := handler(ctx, req)

	code := status.Code(err)
	elapsed := time.Since(start)
	s.metrics.ObserveRPC(info.FullMethod, code.String(), elapsed)
	s.logger.Info(ctx, "rpc",
		"request_id", requestID,
		"method", info.FullMethod,
		"code", code.String(),
		"duration", elapsed,
	)

	return resp, err
}

func newRequestID(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}

// accessTokenInterceptor verifies the bearer token of protected methods and
// stores the caller identity in the context.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	token, ok := bearerToken(ctx)
	if !ok {
		return nil, toStatus(common.ErrorUnauthorized)
	}

	id, err := s.codec.Verify(token)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(auth.WithIdentity(ctx, id), req)
}

func bearerToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return "", false
	}

	v := values[0]
	n := len(common.BearerPrefix)
	if len(v) <= n || !strings.EqualFold(v[:n], common.BearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(v[n:]), true
}
