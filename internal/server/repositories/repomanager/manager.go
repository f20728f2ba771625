package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/notifications"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/shares"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/versions"
)

// RepositoryManager hands out per-entity repositories bound to either a
// plain connection or a transaction, so services can compose repository
// calls inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	Versions(db dbx.DBTX) versions.Repository
	Shares(db dbx.DBTX) shares.Repository
	Notifications(db dbx.DBTX) notifications.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
