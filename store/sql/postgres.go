package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// NewPostgresFactory opens a postgres connection for the given DSN and
// builds the stores on top of it. The caller owns the returned factory's
// DB lifecycle.
func NewPostgresFactory(dsn string) (*RepositoryFactory, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres: %w", err)
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	factory, err := NewRepositoryFactoryFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return factory, nil
}
