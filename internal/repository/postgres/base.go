package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/barber-api/internal/repository"
)

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type txKey struct{}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// NewTransactor exposes transaction control to the service layer.
func NewTransactor(db *sqlx.DB) repository.Transactor {
	return &BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// ext returns the transaction bound to ctx, or the pool.
func (r *BaseRepository) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return r.db
}

func (r *BaseRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.withTx(ctx, nil, fn)
}

func (r *BaseRepository) WithinSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.withTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// withTx executes a function within a transaction
func (r *BaseRepository) withTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// classify maps driver errors onto repository sentinels.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23P01", // exclusion_violation
			"23505", // unique_violation
			"40001", // serialization_failure
			"40P01": // deadlock_detected
			return fmt.Errorf("%w: %s", repository.ErrConflict, pqErr.Message)
		}
	}
	return err
}

// expectOne turns a zero-row update into ErrNotFound.
func expectOne(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
