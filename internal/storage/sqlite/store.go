// Package sqlite opens record stores on a SQLite database file. It is a
// thin front for sqldb with the sqlite dialect fixed.
package sqlite

import (
	"github.com/tjfontaine/plume/internal/storage/sqldb"
)

// Store is a record store bound to one table of a SQLite database.
type Store = sqldb.Store

// New opens (creating if necessary) the database at dbPath and binds the
// store to the named table. Several services can share one database file
// through distinct tables.
func New(dbPath, table string) (*Store, error) {
	return sqldb.New(sqldb.Config{Driver: "sqlite", DSN: dbPath, Table: table})
}
