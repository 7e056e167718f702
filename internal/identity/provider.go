package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/configs"
	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/internal/utils/validator"
	"github.com/abisalde/student-portal/pkg/jwt"
	"github.com/abisalde/student-portal/pkg/logger"
	"github.com/abisalde/student-portal/pkg/mail"
	"github.com/abisalde/student-portal/pkg/password"
	"github.com/abisalde/student-portal/pkg/verification"
)

const (
	RefreshCachePrefix = "refresh_token:"
	BlacklistPrefix    = "blacklist:"
)

type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type CodeStore interface {
	Create(ctx context.Context, purpose, userID, email string, ttl time.Duration) (string, error)
	Redeem(ctx context.Context, purpose, code string) (verification.ActionCode, error)
}

type Deps struct {
	Accounts repository.AccountRepository
	Codes    CodeStore
	Limiter  AttemptLimiter
	Cache    CacheService
	Tokens   *jwt.Manager
	Hasher   *verification.Hasher
	Mailer   mail.Mailer
}

// Provider is the portal's identity provider: email/password accounts, one-time
// action codes for verification and password reset, and JWT sessions.
type Provider struct {
	accounts repository.AccountRepository
	codes    CodeStore
	limiter  AttemptLimiter
	cache    CacheService
	tokens   *jwt.Manager
	hasher   *verification.Hasher
	mailer   mail.Mailer
	cfg      *configs.Config
}

func NewProvider(cfg *configs.Config, d Deps) *Provider {
	return &Provider{
		accounts: d.Accounts,
		codes:    d.Codes,
		limiter:  d.Limiter,
		cache:    d.Cache,
		tokens:   d.Tokens,
		hasher:   d.Hasher,
		mailer:   d.Mailer,
		cfg:      cfg,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) CreateAccount(ctx context.Context, email, pw string) (*models.Identity, error) {
	email = normalizeEmail(email)
	if err := validator.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validator.ValidatePassword(pw, p.cfg.Auth.MinPasswordLength); err != nil {
		return nil, ErrWeakPassword
	}

	exists, err := p.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyInUse
	}

	hash, err := password.HashPassword(pw)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, err
	}

	return account.Identity(), nil
}

func (p *Provider) SignIn(ctx context.Context, email, pw string) (*models.Identity, error) {
	email = normalizeEmail(email)

	blocked, err := p.limiter.Blocked(ctx, email)
	if err != nil {
		logger.Warn("login throttle unavailable", zap.Error(err))
	}
	if blocked {
		return nil, ErrTooManyRequests
	}

	account, err := p.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		p.recordFailure(ctx, email)
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := password.CheckPasswordHash(pw, account.PasswordHash); err != nil {
		p.recordFailure(ctx, email)
		return nil, ErrWrongPassword
	}

	if err := p.limiter.Reset(ctx, email); err != nil {
		logger.Warn("failed to reset login attempts", zap.Error(err))
	}
	return account.Identity(), nil
}

func (p *Provider) recordFailure(ctx context.Context, email string) {
	if err := p.limiter.Fail(ctx, email); err != nil {
		logger.Warn("failed to record login attempt", zap.Error(err))
	}
}

// refreshRecord is stored per sign-in under refresh_token:<uid>:<sid>.
type refreshRecord struct {
	Hash  string `json:"hash"`
	Epoch string `json:"epoch"`
}

func refreshKey(uid, sessionID string) string {
	return RefreshCachePrefix + uid + ":" + sessionID
}

// refreshEpochKey holds the user's current refresh epoch. Moving it revokes every
// refresh token issued before.
func refreshEpochKey(uid string) string {
	return RefreshCachePrefix + uid + ":epoch"
}

func (p *Provider) refreshEpoch(ctx context.Context, uid string) string {
	var epoch string
	if err := p.cache.Get(ctx, refreshEpochKey(uid), &epoch); err != nil {
		return ""
	}
	return epoch
}

// IssueTokens signs an access (ID) token and a refresh token for a new sign-in.
// Only the refresh token's hash is kept server side, one entry per sign-in, so
// several devices can hold live refresh tokens at once.
func (p *Provider) IssueTokens(ctx context.Context, id *models.Identity) (models.TokenPair, error) {
	sid := uuid.NewString()
	access, err := p.tokens.GenerateSessionToken(id.ID, jwt.TokenTypeAccess, id.Email, sid)
	if err != nil {
		return models.TokenPair{}, customErrors.AccessTokenGeneration.WithCause(err)
	}
	refresh, err := p.tokens.GenerateSessionToken(id.ID, jwt.TokenTypeRefresh, id.Email, sid)
	if err != nil {
		return models.TokenPair{}, customErrors.AccessTokenGeneration.WithCause(err)
	}

	record := refreshRecord{Hash: p.hasher.HashToken(refresh), Epoch: p.refreshEpoch(ctx, id.ID)}
	if err := p.cache.Set(ctx, refreshKey(id.ID, sid), record, p.tokens.RefreshTTL()); err != nil {
		return models.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a live refresh token for a new access token of the same sign-in.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, *models.Identity, error) {
	claims, err := p.tokens.ValidateToken(refreshToken)
	if err != nil {
		return models.TokenPair{}, nil, err
	}
	if !claims.IsRefreshToken() {
		return models.TokenPair{}, nil, customErrors.InvalidTokenType
	}
	if claims.SessionID == "" {
		return models.TokenPair{}, nil, customErrors.InvalidRefreshTokenValidation
	}

	var record refreshRecord
	if err := p.cache.Get(ctx, refreshKey(claims.UserID, claims.SessionID), &record); err != nil {
		return models.TokenPair{}, nil, customErrors.InvalidRefreshTokenValidation
	}
	if !p.hasher.VerifyTokenHash(refreshToken, record.Hash) || record.Epoch != p.refreshEpoch(ctx, claims.UserID) {
		return models.TokenPair{}, nil, customErrors.InvalidRefreshTokenValidation
	}

	id, err := p.Reload(ctx, claims.UserID)
	if err != nil {
		return models.TokenPair{}, nil, err
	}

	access, err := p.tokens.GenerateSessionToken(id.ID, jwt.TokenTypeAccess, id.Email, claims.SessionID)
	if err != nil {
		return models.TokenPair{}, nil, customErrors.AccessTokenGeneration.WithCause(err)
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refreshToken}, id, nil
}

// SignOut revokes the access token for the rest of its lifetime and drops the
// refresh token of the same sign-in. Other devices stay signed in.
func (p *Provider) SignOut(ctx context.Context, uid, accessToken string) error {
	if ttl := jwt.GetTokenRemainingTTL(accessToken); ttl > 0 {
		if err := p.cache.Set(ctx, BlacklistPrefix+accessToken, "blacklisted", ttl); err != nil {
			return fmt.Errorf("blacklist token: %w", err)
		}
	}

	sid := jwt.SessionIDOf(accessToken)
	if sid == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return p.cache.Delete(ctx, refreshKey(uid, sid))
}

func (p *Provider) IsTokenBlacklisted(ctx context.Context, token string) bool {
	ok, err := p.cache.Exists(ctx, BlacklistPrefix+token)
	return err == nil && ok
}

// VerifyIDToken accepts live, non revoked access tokens.
func (p *Provider) VerifyIDToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := p.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if !claims.IsAccessToken() {
		return nil, customErrors.InvalidTokenType
	}
	if p.IsTokenBlacklisted(ctx, token) {
		return nil, customErrors.TokenRevoked
	}
	return claims, nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	return p.accounts.UpdateDisplayName(ctx, uid, displayName)
}

// Reload reads the account straight from storage, never from token claims.
func (p *Provider) Reload(ctx context.Context, uid string) (*models.Identity, error) {
	account, err := p.accounts.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return account.Identity(), nil
}

func (p *Provider) SendVerificationChallenge(ctx context.Context, id *models.Identity, callbackURL string) error {
	code, err := p.codes.Create(ctx, verification.PurposeVerifyEmail, id.ID, id.Email, p.cfg.Auth.VerificationTTL)
	if err != nil {
		return err
	}

	link, err := actionLink(callbackURL, verification.PurposeVerifyEmail, code)
	if err != nil {
		return fmt.Errorf("build verification link: %w", err)
	}

	return p.sendTemplate(ctx, id.Email, "Verify your email for "+p.cfg.App.Name, "verify_email.html", emailData{
		AppName: p.cfg.App.Name,
		Name:    id.DisplayName,
		Email:   id.Email,
		Link:    link,
	})
}

// ApplyVerificationCode redeems a verifyEmail code and marks the account verified.
func (p *Provider) ApplyVerificationCode(ctx context.Context, code string) (string, error) {
	entry, err := p.codes.Redeem(ctx, verification.PurposeVerifyEmail, code)
	if errors.Is(err, verification.ErrCodeNotFound) {
		return "", ErrInvalidActionCode
	}
	if err != nil {
		return "", err
	}

	if err := p.accounts.MarkEmailVerified(ctx, entry.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return entry.UserID, nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email, callbackURL string) error {
	account, err := p.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	code, err := p.codes.Create(ctx, verification.PurposeResetPassword, account.ID, account.Email, p.cfg.Auth.ResetTTL)
	if err != nil {
		return err
	}

	link, err := actionLink(callbackURL, verification.PurposeResetPassword, code)
	if err != nil {
		return fmt.Errorf("build reset link: %w", err)
	}

	return p.sendTemplate(ctx, account.Email, "Reset your password for "+p.cfg.App.Name, "reset_password.html", emailData{
		AppName: p.cfg.App.Name,
		Name:    account.DisplayName,
		Email:   account.Email,
		Link:    link,
	})
}

func (p *Provider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if err := validator.ValidatePassword(newPassword, p.cfg.Auth.MinPasswordLength); err != nil {
		return ErrWeakPassword
	}

	entry, err := p.codes.Redeem(ctx, verification.PurposeResetPassword, code)
	if errors.Is(err, verification.ErrCodeNotFound) {
		return ErrInvalidActionCode
	}
	if err != nil {
		return err
	}

	hash, err := password.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := p.accounts.UpdatePassword(ctx, entry.UserID, hash); err != nil {
		return err
	}

	if err := p.limiter.Reset(ctx, entry.Email); err != nil {
		logger.Warn("failed to reset login attempts", zap.Error(err))
	}
	// a new password ends every sign-in
	return p.cache.Set(ctx, refreshEpochKey(entry.UserID), uuid.NewString(), 0)
}
