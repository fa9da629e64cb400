// Package tokenstore keeps the CLI session (username, access and refresh
// token) in a local SQLite key/value table so it survives between runs.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bulletin/internal/client/tokenstore/migrations"
	"github.com/dmitrijs2005/bulletin/internal/dbx"
	"github.com/dmitrijs2005/bulletin/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyUserName     = "username"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// Tokens is the persisted session. The zero value means signed out.
type Tokens struct {
	UserName     string
	AccessToken  string
	RefreshToken string
}

type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the state file at path and migrates it.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state file: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the stored session; missing keys yield empty fields.
func (s *SQLiteStore) Load(ctx context.Context) (Tokens, error) {
	var t Tokens
	for key, dst := range map[string]*string{
		keyUserName:     &t.UserName,
		keyAccessToken:  &t.AccessToken,
		keyRefreshToken: &t.RefreshToken,
	} {
		v, err := get(ctx, s.db, key)
		if err != nil {
			return Tokens{}, err
		}
		*dst = string(v)
	}
	return t, nil
}

// Save replaces the stored session atomically.
func (s *SQLiteStore) Save(ctx context.Context, t Tokens) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, v := range map[string]string{
			keyUserName:     t.UserName,
			keyAccessToken:  t.AccessToken,
			keyRefreshToken: t.RefreshToken,
		} {
			if err := set(ctx, tx, key, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear forgets the session.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}
