package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account_service/internal/storage"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepo) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock pool")
	t.Cleanup(mock.Close)

	return mock, NewWithDB(mock)
}

func TestSaveAccount(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "success",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
					AddRow(int64(1), now, now)
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("a@x.com", "Alice", "hash").
					WillReturnRows(rows)
			},
		},
		{
			name: "duplicate login id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("a@x.com", "Alice", "hash").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: storage.ErrAccountExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			tt.setupMock(mock)

			acc, err := repo.SaveAccount(context.Background(), "a@x.com", "Alice", []byte("hash"))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(1), acc.ID)
				assert.Equal(t, "a@x.com", acc.LoginID)
				assert.True(t, acc.Active)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountByLoginID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{
					"id", "login_id", "display_name", "password_hash", "active", "created_at", "updated_at",
				}).AddRow(int64(7), "a@x.com", "Alice", []byte("hash"), true, now, now)
				mock.ExpectQuery(`SELECT (.+) FROM accounts`).
					WithArgs("a@x.com").
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT (.+) FROM accounts`).
					WithArgs("a@x.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: storage.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			tt.setupMock(mock)

			acc, err := repo.AccountByLoginID(context.Background(), "a@x.com")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), acc.ID)
				assert.Equal(t, "Alice", acc.DisplayName)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecoveryTokenByToken_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM recovery_tokens`).
		WithArgs("no-such-token").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.RecoveryTokenByToken(context.Background(), "no-such-token")
	require.ErrorIs(t, err, storage.ErrRecoveryTokenNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeRecoveryToken(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "success marks token and updates password atomically",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE recovery_tokens SET used = TRUE`).
					WithArgs(int64(5)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(`UPDATE accounts SET password_hash`).
					WithArgs("newhash", int64(7)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "already consumed token rolls back",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE recovery_tokens SET used = TRUE`).
					WithArgs(int64(5)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrRecoveryTokenUsed,
		},
		{
			name: "missing account rolls back",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE recovery_tokens SET used = TRUE`).
					WithArgs(int64(5)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(`UPDATE accounts SET password_hash`).
					WithArgs("newhash", int64(7)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			tt.setupMock(mock)

			err := repo.ConsumeRecoveryToken(context.Background(), 5, 7, []byte("newhash"))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
