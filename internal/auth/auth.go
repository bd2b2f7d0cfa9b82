package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"account_service/internal/lib/jwt"
	sl "account_service/internal/lib/logger"
	"account_service/internal/lib/passhash"
	"account_service/internal/lib/random"
	"account_service/internal/models"
	"account_service/internal/storage"
)

var (
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials covers both an unknown login id and a wrong
	// password. Callers must not tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrAccountInactive = errors.New("account is deactivated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrWrongPassword   = errors.New("current password is incorrect")

	ErrInvalidResetToken = errors.New("invalid recovery token")
	ErrResetTokenUsed    = errors.New("recovery token already used")
	ErrResetTokenExpired = errors.New("recovery token expired")
)

// recoveryTokenTTL is the fixed validity window of a recovery link.
const recoveryTokenTTL = time.Hour

type Auth struct {
	log          *slog.Logger
	accSaver     AccountSaver
	accProvider  AccountProvider
	notifier     Notifier
	codec        *jwt.Codec
	accessTTL    time.Duration
	refreshTTL   time.Duration
	resetBaseURL string
}

type AccountSaver interface {
	SaveAccount(ctx context.Context, loginID, displayName string, passHash []byte) (models.Account, error)
	UpdatePassword(ctx context.Context, accountID int64, passHash []byte) error

	SaveRecoveryToken(ctx context.Context, accountID int64, token string, expiresAt time.Time) error
	ConsumeRecoveryToken(ctx context.Context, tokenID, accountID int64, passHash []byte) error
}

type AccountProvider interface {
	AccountByLoginID(ctx context.Context, loginID string) (models.Account, error)
	AccountByID(ctx context.Context, id int64) (models.Account, error)
	RecoveryTokenByToken(ctx context.Context, token string) (models.RecoveryToken, error)
}

type Notifier interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

func New(
	log *slog.Logger,
	accountSaver AccountSaver,
	accountProvider AccountProvider,
	notifier Notifier,
	codec *jwt.Codec,
	accessTTL, refreshTTL time.Duration,
	resetBaseURL string,
) *Auth {
	return &Auth{
		log:          log,
		accSaver:     accountSaver,
		accProvider:  accountProvider,
		notifier:     notifier,
		codec:        codec,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		resetBaseURL: resetBaseURL,
	}
}

// Register creates a new active account. The login_id unique constraint in
// storage is the arbiter for concurrent duplicates; there is no pre-check.
func (a *Auth) Register(
	ctx context.Context,
	loginID, displayName, password string,
) (models.Account, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	passHash, err := passhash.Hash(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := a.accSaver.SaveAccount(ctx, loginID, displayName, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			log.Warn("account already exists")
			return models.Account{}, ErrAccountExists
		}

		log.Error("failed to save account", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account registered", slog.Int64("id", acc.ID))

	return acc, nil
}

// Login verifies the credentials and returns a fresh access/refresh pair.
// An unknown login id and a wrong password both yield ErrInvalidCredentials.
func (a *Auth) Login(
	ctx context.Context,
	loginID, password string,
) (accessToken string, refreshToken string, err error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Info("account not found")
			return "", "", ErrInvalidCredentials
		}

		log.Error("failed to get account", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if !passhash.Verify(password, acc.PassHash) {
		log.Info("invalid credentials")
		return "", "", ErrInvalidCredentials
	}

	// A distinct outcome is fine here: the caller already proved
	// knowledge of valid credentials.
	if !acc.Active {
		log.Warn("account is deactivated", slog.Int64("id", acc.ID))
		return "", "", ErrAccountInactive
	}

	accessToken, refreshToken, err = a.mintPair(acc.LoginID)
	if err != nil {
		log.Error("failed to mint tokens", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("login successful", slog.Int64("id", acc.ID))

	return accessToken, refreshToken, nil
}

// Refresh exchanges a valid refresh token for a new access/refresh pair.
// Verification is stateless: rotation only changes what the client holds,
// the previous refresh token stays signature-valid until it expires.
func (a *Auth) Refresh(
	ctx context.Context,
	refreshToken string,
) (string, string, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	claims, err := a.codec.Decode(refreshToken)
	if err != nil {
		log.Info("invalid refresh token")
		return "", "", ErrUnauthorized
	}

	if claims.Kind != jwt.KindRefresh {
		log.Info("wrong token kind", slog.String("kind", string(claims.Kind)))
		return "", "", ErrUnauthorized
	}

	if claims.Subject == "" {
		return "", "", ErrUnauthorized
	}

	acc, err := a.accProvider.AccountByLoginID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Info("account not found")
			return "", "", ErrUnauthorized
		}

		log.Error("failed to get account", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if !acc.Active {
		log.Warn("account is deactivated", slog.Int64("id", acc.ID))
		return "", "", ErrUnauthorized
	}

	newAccess, newRefresh, err := a.mintPair(acc.LoginID)
	if err != nil {
		log.Error("failed to mint tokens", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("refresh successful", slog.Int64("id", acc.ID))

	return newAccess, newRefresh, nil
}

// Authenticate resolves a bearer token to an active account. Each check is
// a hard gate: invalid token, wrong kind, empty subject and unknown account
// all collapse to ErrUnauthorized; a deactivated account is the distinct
// ErrAccountInactive.
func (a *Auth) Authenticate(ctx context.Context, bearerToken string) (models.Account, error) {
	const op = "auth.Authenticate"

	claims, err := a.codec.Decode(bearerToken)
	if err != nil {
		return models.Account{}, ErrUnauthorized
	}

	// A refresh token must never authenticate a protected call.
	if claims.Kind != jwt.KindAccess {
		return models.Account{}, ErrUnauthorized
	}

	if claims.Subject == "" {
		return models.Account{}, ErrUnauthorized
	}

	acc, err := a.accProvider.AccountByLoginID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return models.Account{}, ErrUnauthorized
		}

		a.log.Error("failed to get account", slog.String("op", op), sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if !acc.Active {
		return models.Account{}, ErrAccountInactive
	}

	return acc, nil
}

// ChangePassword overwrites the credential hash after re-verifying the
// current password. Already-issued access tokens stay valid until expiry.
func (a *Auth) ChangePassword(
	ctx context.Context,
	acc models.Account,
	currentPassword, newPassword string,
) error {
	const op = "auth.ChangePassword"

	log := a.log.With(slog.String("op", op))

	if !passhash.Verify(currentPassword, acc.PassHash) {
		log.Info("current password mismatch", slog.Int64("id", acc.ID))
		return ErrWrongPassword
	}

	passHash, err := passhash.Hash(newPassword)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.accSaver.UpdatePassword(ctx, acc.ID, passHash); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password changed", slog.Int64("id", acc.ID))

	return nil
}

// RequestPasswordReset issues a recovery token and hands the link to the
// notifier. An unknown login id is a silent success so the response never
// reveals whether the address is registered. The token row is committed
// before notification is attempted; a failed publish loses the email, not
// the token.
func (a *Auth) RequestPasswordReset(ctx context.Context, loginID string) error {
	const op = "auth.RequestPasswordReset"

	log := a.log.With(slog.String("op", op))

	acc, err := a.accProvider.AccountByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Info("account not found, reset request ignored")
			return nil
		}

		log.Error("failed to get account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := random.NewRecoveryToken()
	if err != nil {
		log.Error("failed to generate recovery token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := time.Now().Add(recoveryTokenTTL)

	if err := a.accSaver.SaveRecoveryToken(ctx, acc.ID, token, expiresAt); err != nil {
		log.Error("failed to save recovery token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Email:   acc.LoginID,
		Link:    fmt.Sprintf("%s/reset-password?token=%s", a.resetBaseURL, token),
		Purpose: "password_reset",
	}

	if err := a.notifier.SendMessage(ctx, msg); err != nil {
		log.Error("failed to send recovery link", sl.Err(err))
	}

	log.Info("recovery token issued", slog.Int64("account_id", acc.ID))

	return nil
}

// ResetPassword consumes a recovery token exactly once and sets the new
// credential. The three rejection outcomes stay distinct: the token itself
// is the secret, so there is nothing to enumerate here.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	rt, err := a.accProvider.RecoveryTokenByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrRecoveryTokenNotFound) {
			log.Info("recovery token not found")
			return ErrInvalidResetToken
		}

		log.Error("failed to get recovery token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if rt.Used {
		log.Info("recovery token already used", slog.Int64("token_id", rt.ID))
		return ErrResetTokenUsed
	}

	if rt.IsExpired(time.Now()) {
		log.Info("recovery token expired", slog.Int64("token_id", rt.ID))
		return ErrResetTokenExpired
	}

	acc, err := a.accProvider.AccountByID(ctx, rt.AccountID)
	if err != nil {
		// The FK should make this impossible; treat it as an internal
		// consistency fault, not a client error.
		log.Error("recovery token references missing account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := passhash.Hash(newPassword)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.accSaver.ConsumeRecoveryToken(ctx, rt.ID, acc.ID, passHash); err != nil {
		if errors.Is(err, storage.ErrRecoveryTokenUsed) {
			// Lost the race against a concurrent consumer.
			log.Info("recovery token consumed concurrently", slog.Int64("token_id", rt.ID))
			return ErrResetTokenUsed
		}

		log.Error("failed to consume recovery token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.Int64("account_id", acc.ID))

	return nil
}

func (a *Auth) mintPair(subject string) (string, string, error) {
	access, err := a.codec.Mint(subject, jwt.KindAccess, a.accessTTL)
	if err != nil {
		return "", "", err
	}

	refresh, err := a.codec.Mint(subject, jwt.KindRefresh, a.refreshTTL)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}
