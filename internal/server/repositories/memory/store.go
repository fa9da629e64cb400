// Package memory provides in-process implementations of the credential and
// session stores. A single mutex serializes every operation; RunInTx holds
// it for the whole unit of work and undoes the writes it made when the work
// fails.
//
// It backs the server when no database DSN is configured.
package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/bulletin/internal/dbx"
	"github.com/dmitrijs2005/bulletin/internal/server/models"
	"github.com/google/uuid"
)

type Store struct {
	mu     sync.Mutex
	users  map[string]models.User
	tokens map[string]models.RefreshToken
	newID  func() string

	// undo restores the previous value of every key written by the running
	// transaction, in write order.
	undo []func()
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]models.User),
		tokens: make(map[string]models.RefreshToken),
		newID:  uuid.NewString,
	}
}

type txKey struct{}

// RunInTx implements dbx.TxRunner. fn receives a nil DBTX; repositories of
// this package ignore the handle and recognise the transaction through ctx.
// The ctx passed to fn must not outlive the call.
func (s *Store) RunInTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	if s.inTx(ctx) {
		return fn(ctx, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = nil
	defer func() {
		if p := recover(); p != nil {
			s.rollback()
			panic(p)
		}
		if err != nil {
			s.rollback()
		}
		s.undo = nil
	}()

	return fn(context.WithValue(ctx, txKey{}, s), nil)
}

func (s *Store) rollback() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	s.undo = nil
}

// putUser, putToken and deleteToken are the only writers of the maps. The
// caller holds the lock.
func (s *Store) putUser(ctx context.Context, u models.User) {
	if s.inTx(ctx) {
		prev, existed := s.users[u.ID]
		s.undo = append(s.undo, func() {
			if existed {
				s.users[u.ID] = prev
			} else {
				delete(s.users, u.ID)
			}
		})
	}
	s.users[u.ID] = u
}

func (s *Store) rememberToken(ctx context.Context, tokenHash string) {
	if !s.inTx(ctx) {
		return
	}
	prev, existed := s.tokens[tokenHash]
	s.undo = append(s.undo, func() {
		if existed {
			s.tokens[tokenHash] = prev
		} else {
			delete(s.tokens, tokenHash)
		}
	})
}

func (s *Store) putToken(ctx context.Context, t models.RefreshToken) {
	s.rememberToken(ctx, t.TokenHash)
	s.tokens[t.TokenHash] = t
}

func (s *Store) deleteToken(ctx context.Context, tokenHash string) {
	s.rememberToken(ctx, tokenHash)
	delete(s.tokens, tokenHash)
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock acquires the store mutex unless ctx already runs inside RunInTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Users returns the credential store view.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// RefreshTokens returns the session store view.
func (s *Store) RefreshTokens() *RefreshTokenRepository {
	return &RefreshTokenRepository{s: s}
}
