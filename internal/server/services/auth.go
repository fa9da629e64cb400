// Package services contains server-side business logic: the session manager
// (AuthService) and the expired-session sweeper.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/bulletin/internal/common"
	"github.com/dmitrijs2005/bulletin/internal/cryptox"
	"github.com/dmitrijs2005/bulletin/internal/dbx"
	"github.com/dmitrijs2005/bulletin/internal/logging"
	"github.com/dmitrijs2005/bulletin/internal/server/auth"
	"github.com/dmitrijs2005/bulletin/internal/server/config"
	"github.com/dmitrijs2005/bulletin/internal/server/metrics"
	"github.com/dmitrijs2005/bulletin/internal/server/models"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/repomanager"
)

// refreshTokenBytes is the entropy of a refresh token before hex encoding.
const refreshTokenBytes = 32

// Session is what a client receives after registration, sign-in or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Role         models.Role
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	UserName  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// AuthService registers users, checks credentials and manages refresh token
// sessions:
//   - Register: create a member account
//   - SignIn: verify credentials
//   - CreateSession: mint an access token and a refresh token record
//   - RefreshToken: rotate a refresh token
//   - SignOut, SignOutAll: revoke refresh tokens of the caller
type AuthService struct {
	repomanager repomanager.RepositoryManager
	codec       *auth.TokenCodec
	hasher      *cryptox.PasswordHasher
	dummyHash   string

	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration

	now     func() time.Time
	log     logging.Logger
	metrics *metrics.Metrics
}

type Option func(*AuthService)

// WithClock replaces time.Now for both session bookkeeping and access tokens.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithPasswordHasher(h *cryptox.PasswordHasher) Option {
	return func(s *AuthService) { s.hasher = h }
}

func WithLogger(l logging.Logger) Option {
	return func(s *AuthService) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// NewAuthService constructs an AuthService from repositories and server config.
func NewAuthService(m repomanager.RepositoryManager, cfg *config.Config, opts ...Option) *AuthService {
	s := &AuthService{
		repomanager:                  m,
		hasher:                       cryptox.NewPasswordHasher(cryptox.DefaultParams()),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
		log:                          logging.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = auth.NewTokenCodec([]byte(cfg.SecretKey)).WithClock(s.now)
	s.dummyHash = s.hasher.DummyHash()
	s.log = s.log.With("module", "auth")
	return s
}

// Codec returns the codec used for access tokens, for verification at the
// transport boundary.
func (s *AuthService) Codec() *auth.TokenCodec {
	return s.codec
}

// Register creates a member account. It does not issue tokens.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.repomanager.Conn())

	exists, err := repo.ExistsByUsernameOrEmail(ctx, in.UserName, in.Email)
	if err != nil {
		return nil, internal("check user", err)
	}
	if exists {
		return nil, common.ErrorConflict
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		UserName:     in.UserName,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Role:         models.RoleMember,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, internal("create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// SignIn returns the user whose credentials match. Unknown users and wrong
// passwords fail identically with common.ErrorUnauthorized.
func (s *AuthService) SignIn(ctx context.Context, userName, password string) (*models.User, error) {
	if utf8.RuneCountInString(password) > maxPasswordLen {
		_, _ = s.hasher.Verify(s.dummyHash, password[:maxPasswordLen])
		s.metrics.SignIn(metrics.ResultFailure)
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.repomanager.Conn()).GetUserByLogin(ctx, NormalizeUserName(userName))
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, internal("get user", err)
		}
		_, _ = s.hasher.Verify(s.dummyHash, password)
		s.metrics.SignIn(metrics.ResultFailure)
		return nil, common.ErrorUnauthorized
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		return nil, internal("verify password", err)
	}
	if !ok {
		s.metrics.SignIn(metrics.ResultFailure)
		return nil, common.ErrorUnauthorized
	}

	s.metrics.SignIn(metrics.ResultSuccess)
	return user, nil
}

// CreateSession issues a new access token and a new refresh token for user.
// Earlier sessions of the same user stay valid.
func (s *AuthService) CreateSession(ctx context.Context, user *models.User) (*Session, error) {
	session, err := s.issue(ctx, s.repomanager.Conn(), user, s.now())
	if err != nil {
		return nil, err
	}

	s.metrics.SessionIssued(metrics.ReasonCreate)
	s.log.Info(ctx, "session issued", "user_id", user.ID, "reason", metrics.ReasonCreate)
	return session, nil
}

// RefreshToken rotates a refresh token: the presented record is revoked and a
// new one is created in the same transaction. Of concurrent calls with the
// same token at most one succeeds; the others, like unknown, revoked or
// expired tokens, fail with common.ErrorUnauthorized.
func (s *AuthService) RefreshToken(ctx context.Context, presented string) (*Session, error) {
	if presented == "" {
		s.metrics.RefreshFailed()
		return nil, common.ErrorUnauthorized
	}

	hash := common.HashTokenHex(presented)
	now := s.now()

	var session *Session
	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		record, err := s.repomanager.RefreshTokens(tx).Revoke(ctx, hash, now)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return internal("revoke refresh token", err)
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return internal("get user", err)
		}

		session, err = s.issue(ctx, tx, user, now)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.RefreshFailed()
			s.log.Info(ctx, "refresh rejected")
		}
		return nil, err
	}

	s.metrics.SessionIssued(metrics.ReasonRefresh)
	s.log.Info(ctx, "session issued", "reason", metrics.ReasonRefresh)
	return session, nil
}

// SignOut revokes presented if it is an active token of userID and reports
// whether it did. Tokens of other users are left untouched.
func (s *AuthService) SignOut(ctx context.Context, userID, presented string) (bool, error) {
	if userID == "" || presented == "" {
		return false, nil
	}

	ok, err := s.repomanager.RefreshTokens(s.repomanager.Conn()).
		RevokeForUser(ctx, userID, common.HashTokenHex(presented), s.now())
	if err != nil {
		return false, internal("revoke refresh token", err)
	}

	s.log.Info(ctx, "sign out", "user_id", userID, "revoked", ok)
	return ok, nil
}

// SignOutAll revokes every active refresh token of userID and returns how
// many were revoked.
func (s *AuthService) SignOutAll(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, nil
	}

	n, err := s.repomanager.RefreshTokens(s.repomanager.Conn()).RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, internal("revoke refresh tokens", err)
	}

	s.log.Info(ctx, "sign out everywhere", "user_id", userID, "revoked", n)
	return n, nil
}

func (s *AuthService) issue(ctx context.Context, db dbx.DBTX, user *models.User, now time.Time) (*Session, error) {
	access, err := s.codec.Issue(user.ID, user.UserName, user.Role, s.accessTokenValidityDuration)
	if err != nil {
		return nil, internal("issue access token", err)
	}

	refresh, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, internal("generate refresh token", err)
	}

	err = s.repomanager.RefreshTokens(db).Create(ctx, &models.RefreshToken{
		TokenHash: common.HashTokenHex(refresh),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, internal("create refresh token", err)
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.accessTokenValidityDuration,
		Role:         user.Role,
	}, nil
}

// internal wraps err so that it matches common.ErrorInternal and keeps the
// cause for logs.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}
