package repomanager

import (
	"context"

	"github.com/dmitrijs2005/bulletin/internal/dbx"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bulletin/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or to the
// transaction handle passed by RunInTx.
type RepositoryManager interface {
	dbx.TxRunner

	// Conn is the handle for work outside a transaction.
	Conn() dbx.DBTX

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository

	RunMigrations(ctx context.Context) error
	Close() error
}
