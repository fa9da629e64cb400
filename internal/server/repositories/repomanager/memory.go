package repomanager

import (
	"context"

	"github.com/dmitrijs2005/bulletin/internal/dbx"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/memory"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one memory.Store.
// The DBTX arguments are ignored; transactions travel in the context.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) RunInTx(ctx context.Context, fn dbx.TxFunc) error {
	return m.store.RunInTx(ctx, fn)
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.store.Users()
}

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.store.RefreshTokens()
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
