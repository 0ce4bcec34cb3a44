package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
)

// Transactor implements repository.Transactor for SQLite
type Transactor struct {
	db  *DB
	now func() time.Time
}

// NewTransactor creates a new Transactor
func NewTransactor(db *DB) *Transactor {
	return &Transactor{db: db, now: time.Now}
}

// Transaction hands fn repositories bound to a single transaction. Writes
// commit only when fn returns nil.
func (t *Transactor) Transaction(ctx context.Context, fn func(tables repository.Tables) error) error {
	return t.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(repository.Tables{
			Projects: &ProjectRepository{db: tx, now: t.now},
			Images:   &ImageRepository{db: tx, now: t.now},
		})
	})
}
