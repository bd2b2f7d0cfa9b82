package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account_service/internal/config"
	"account_service/internal/models"
	"account_service/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the slice of pgxpool.Pool the repository uses. Narrowing to an
// interface lets tests substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresRepo struct {
	db   DB
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{db: pool, pool: pool}, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) SaveAccount(ctx context.Context, loginID, displayName string, passHash []byte) (models.Account, error) {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts (login_id, display_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at;
	`

	acc := models.Account{
		LoginID:     loginID,
		DisplayName: displayName,
		PassHash:    passHash,
		Active:      true,
	}

	err := r.db.QueryRow(ctx, query, loginID, displayName, string(passHash)).
		Scan(&acc.ID, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return models.Account{}, storage.ErrAccountExists
		}

		return models.Account{}, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	return acc, nil
}

func (r *PostgresRepo) AccountByLoginID(ctx context.Context, loginID string) (models.Account, error) {
	query := `
		SELECT id, login_id, display_name, password_hash, active, created_at, updated_at
		FROM accounts
		WHERE login_id = $1;
	`

	return r.scanAccount(r.db.QueryRow(ctx, query, loginID))
}

func (r *PostgresRepo) AccountByID(ctx context.Context, id int64) (models.Account, error) {
	query := `
		SELECT id, login_id, display_name, password_hash, active, created_at, updated_at
		FROM accounts
		WHERE id = $1;
	`

	return r.scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.LoginID,
		&a.DisplayName,
		&a.PassHash,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, err
	}

	return a, nil
}

func (r *PostgresRepo) UpdatePassword(ctx context.Context, accountID int64, passHash []byte) error {
	const op = "storage.postgres.UpdatePassword"

	query := `UPDATE accounts SET password_hash = $1, updated_at = now() WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, string(passHash), accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

func (r *PostgresRepo) SaveRecoveryToken(ctx context.Context, accountID int64, token string, expiresAt time.Time) error {
	const op = "storage.postgres.SaveRecoveryToken"

	query := `
		INSERT INTO recovery_tokens (account_id, token, expires_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, accountID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) RecoveryTokenByToken(ctx context.Context, token string) (models.RecoveryToken, error) {
	query := `
		SELECT id, account_id, token, used, expires_at, created_at
		FROM recovery_tokens
		WHERE token = $1;
	`

	var rt models.RecoveryToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rt.ID,
		&rt.AccountID,
		&rt.Token,
		&rt.Used,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RecoveryToken{}, storage.ErrRecoveryTokenNotFound
		}

		return models.RecoveryToken{}, err
	}

	return rt, nil
}

// ConsumeRecoveryToken marks the token used and overwrites the account's
// credential hash in one transaction. The token update is guarded by
// used = FALSE, so of two concurrent consumers exactly one commits; the
// other gets storage.ErrRecoveryTokenUsed.
func (r *PostgresRepo) ConsumeRecoveryToken(ctx context.Context, tokenID, accountID int64, passHash []byte) error {
	const op = "storage.postgres.ConsumeRecoveryToken"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE recovery_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`,
		tokenID,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to mark token used: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrRecoveryTokenUsed
	}

	tag, err = tx.Exec(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = now() WHERE id = $2`,
		string(passHash), accountID,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to update password: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// dsn assembles the connection string from config.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
