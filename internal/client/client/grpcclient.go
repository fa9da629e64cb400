// Package client wraps the AuthService gRPC API for the CLI. It keeps the
// current session in a TokenStore, attaches the access token to calls and
// transparently refreshes it once when the server reports it expired.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/client/tokenstore"
	"github.com/dmitrijs2005/bulletin/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenStore persists the session between runs.
type TokenStore interface {
	Load(ctx context.Context) (tokenstore.Tokens, error)
	Save(ctx context.Context, t tokenstore.Tokens) error
	Clear(ctx context.Context) error
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.AuthServiceClient
	store       TokenStore

	mu     sync.Mutex
	tokens tokenstore.Tokens
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == api.AuthService_RefreshToken_FullMethodName {
		return invoker(withAccessToken(ctx, ""), method, req, reply, cc, opts...)
	}

	current := s.current()
	err := invoker(withAccessToken(ctx, current.AccessToken), method, req, reply, cc, opts...)
	if err == nil || reason(err) != api.ReasonTokenExpired || current.RefreshToken == "" {
		return err
	}

	if rerr := s.refresh(ctx, current); rerr != nil {
		return rerr
	}

	// tokens refreshed, retrying once with the new access token
	return invoker(withAccessToken(ctx, s.current().AccessToken), method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL lazily and restores the stored session.
func NewGRPCClient(ctx context.Context, endpointURL string, store TokenStore, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, store: store}

	tokens, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.tokens = tokens

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewAuthServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) current() tokenstore.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *GRPCClient) setSession(ctx context.Context, userName string, resp *api.SessionResponse) error {
	t := tokenstore.Tokens{UserName: userName, AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return s.store.Save(ctx, t)
}

func (s *GRPCClient) clearSession(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = tokenstore.Tokens{}
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

// refresh rotates the refresh token of prev. When another call already
// rotated it, the newer session is kept.
func (s *GRPCClient) refresh(ctx context.Context, prev tokenstore.Tokens) error {
	resp, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: prev.RefreshToken})
	if err != nil {
		if s.current().RefreshToken != prev.RefreshToken {
			return nil
		}
		return s.mapError(err)
	}
	return s.setSession(ctx, prev.UserName, resp)
}

// UserName returns the name of the signed-in user, or "".
func (s *GRPCClient) UserName() string {
	return s.current().UserName
}

func (s *GRPCClient) SignedIn() bool {
	return s.current().RefreshToken != ""
}

func (s *GRPCClient) Register(ctx context.Context, req *api.RegisterRequest) error {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return s.mapError(err)
	}
	return s.setSession(ctx, req.Username, resp)
}

func (s *GRPCClient) Login(ctx context.Context, userName, password string) error {
	resp, err := s.client.SignIn(ctx, &api.SignInRequest{Username: userName, Password: password})
	if err != nil {
		return s.mapError(err)
	}
	return s.setSession(ctx, userName, resp)
}

// Refresh rotates the stored refresh token explicitly.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	current := s.current()
	if current.RefreshToken == "" {
		return ErrNotSignedIn
	}
	return s.refresh(ctx, current)
}

// Logout revokes the stored refresh token and forgets the session. The local
// session is dropped even if the server rejects the request.
func (s *GRPCClient) Logout(ctx context.Context) (bool, error) {
	current := s.current()
	if current.RefreshToken == "" {
		return false, ErrNotSignedIn
	}

	resp, err := s.client.SignOut(ctx, &api.SignOutRequest{RefreshToken: current.RefreshToken})
	if cerr := s.clearSession(ctx); cerr != nil && err == nil {
		return false, cerr
	}
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.Success, nil
}

// LogoutAll revokes every session of the user and forgets the local one.
func (s *GRPCClient) LogoutAll(ctx context.Context) (int64, error) {
	if !s.SignedIn() {
		return 0, ErrNotSignedIn
	}

	resp, err := s.client.SignOutAll(ctx, &api.SignOutAllRequest{})
	if err != nil {
		return 0, s.mapError(err)
	}
	if err := s.clearSession(ctx); err != nil {
		return 0, err
	}
	return resp.Revoked, nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*api.WhoAmIResponse, error) {
	if !s.SignedIn() {
		return nil, ErrNotSignedIn
	}
	resp, err := s.client.WhoAmI(ctx, &api.WhoAmIRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// reason extracts the ErrorInfo reason of a status error.
func reason(err error) string {
	for _, d := range status.Convert(err).Details() {
		if ei, ok := d.(*errdetails.ErrorInfo); ok {
			return ei.GetReason()
		}
	}
	return ""
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.AlreadyExists:
		return ErrConflict
	case codes.InvalidArgument:
		verr := &common.ValidationError{}
		for _, d := range st.Details() {
			if br, ok := d.(*errdetails.BadRequest); ok {
				for _, v := range br.GetFieldViolations() {
					verr.Add(v.GetField(), v.GetDescription())
				}
			}
		}
		if verr.OrNil() == nil {
			return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
		}
		return verr
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
}
