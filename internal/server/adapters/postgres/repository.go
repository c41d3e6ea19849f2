// Package postgres provides PostgreSQL implementations of the
// repository ports.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"notedrop/internal/server/ports/repositories"
)

// DB is the subset of pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RepositoryFactory creates repositories over one connection pool.
type RepositoryFactory struct {
	db DB
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(db DB) *RepositoryFactory {
	return &RepositoryFactory{db: db}
}

// NoteRepository returns the note repository.
func (f *RepositoryFactory) NoteRepository() repositories.NoteRepository {
	return NewNoteRepository(f.db)
}

// FileRepository returns the file repository.
func (f *RepositoryFactory) FileRepository() repositories.FileRepository {
	return NewFileRepository(f.db)
}
