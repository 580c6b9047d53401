package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/barber-api/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestWithinTxCommitsAndBindsContext(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := base.WithinTx(context.Background(), func(ctx context.Context) error {
		_, isTx := base.ext(ctx).(*sqlx.Tx)
		assert.True(t, isTx)
		_, err := base.ext(ctx).ExecContext(ctx, "UPDATE appointments SET status = 'completed'")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := base.WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNestedWithinTxJoinsOuterTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := base.WithinSerializableTx(context.Background(), func(ctx context.Context) error {
		outer := base.ext(ctx)
		return base.WithinTx(ctx, func(inner context.Context) error {
			assert.Same(t, outer, base.ext(inner))
			return nil
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitSerializationFailureIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})

	err := base.WithinSerializableTx(context.Background(), func(ctx context.Context) error { return nil })

	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestClassify(t *testing.T) {
	for _, code := range []pq.ErrorCode{"23P01", "23505", "40001", "40P01"} {
		err := classify(fmt.Errorf("wrapped: %w", &pq.Error{Code: code}))
		assert.ErrorIs(t, err, repository.ErrConflict, "code %s", code)
	}

	other := &pq.Error{Code: "08006"}
	assert.Same(t, error(other), classify(other))
}
