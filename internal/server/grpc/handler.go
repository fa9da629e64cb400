package grpc

import (
	"context"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/server/auth"
	"github.com/dmitrijs2005/bulletin/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.SessionResponse, error) {
	user, err := s.auth.Register(ctx, services.RegisterInput{
		UserName:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}

	session, err := s.auth.CreateSession(ctx, user)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}
	return toSessionResponse(session), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *api.SignInRequest) (*api.SessionResponse, error) {
	user, err := s.auth.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.fail(ctx, "sign in", err)
	}

	session, err := s.auth.CreateSession(ctx, user)
	if err != nil {
		return nil, s.fail(ctx, "sign in", err)
	}
	return toSessionResponse(session), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.SessionResponse, error) {
	session, err := s.auth.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.fail(ctx, "refresh token", err)
	}
	return toSessionResponse(session), nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *api.SignOutRequest) (*api.SignOutResponse, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrorUnauthorized)
	}

	success, err := s.auth.SignOut(ctx, id.CurrentUserID(), req.RefreshToken)
	if err != nil {
		return nil, s.fail(ctx, "sign out", err)
	}
	return &api.SignOutResponse{Success: success}, nil
}

func (s *GRPCServer) SignOutAll(ctx context.Context, _ *api.SignOutAllRequest) (*api.SignOutAllResponse, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrorUnauthorized)
	}

	n, err := s.auth.SignOutAll(ctx, id.CurrentUserID())
	if err != nil {
		return nil, s.fail(ctx, "sign out all", err)
	}
	return &api.SignOutAllResponse{Revoked: n}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *api.WhoAmIRequest) (*api.WhoAmIResponse, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrorUnauthorized)
	}

	return &api.WhoAmIResponse{
		UserID:          id.CurrentUserID(),
		Username:        id.CurrentUsername(),
		Role:            string(id.Role()),
		IsAdministrator: id.IsAdministrator(),
	}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

// fail converts err to a status and logs the cause of internal failures,
// which the caller never sees.
func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, op+" failed", "error", err)
	}
	return st
}

func toSessionResponse(s *services.Session) *api.SessionResponse {
	return &api.SessionResponse{
		AccessToken:      s.AccessToken,
		RefreshToken:     s.RefreshToken,
		ExpiresInSeconds: int64(s.ExpiresIn.Seconds()),
		Role:             string(s.Role),
	}
}
