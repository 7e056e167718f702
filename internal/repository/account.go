package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abisalde/student-portal/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type accountRepository struct {
	db sqlx.ExtContext
}

func NewAccountRepository(db sqlx.ExtContext) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, email, password_hash, display_name, email_verified, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, a *models.Account) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.Email, a.PasswordHash, a.DisplayName, a.EmailVerified, a.CreatedAt, a.UpdatedAt)
	return wrap(err, "insert account")
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := sqlx.GetContext(ctx, r.db, &a, r.db.Rebind(
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`), email)
	if err != nil {
		return nil, wrap(err, "get account by email")
	}
	return &a, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := sqlx.GetContext(ctx, r.db, &a, r.db.Rebind(
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`), id)
	if err != nil {
		return nil, wrap(err, "get account by id")
	}
	return &a, nil
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`SELECT COUNT(*) FROM accounts WHERE email = ?`), email)
	if err != nil {
		return false, wrap(err, "count accounts by email")
	}
	return n > 0, nil
}

func (r *accountRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE accounts SET display_name = ?, updated_at = ? WHERE id = ?`),
		displayName, time.Now().UTC(), id)
	if err != nil {
		return wrap(err, "update display name")
	}
	return expectAffected(res, "update display name")
}

func (r *accountRepository) MarkEmailVerified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE accounts SET email_verified = ?, updated_at = ? WHERE id = ?`),
		true, time.Now().UTC(), id)
	if err != nil {
		return wrap(err, "mark email verified")
	}
	return expectAffected(res, "mark email verified")
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`),
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return wrap(err, "update password")
	}
	return expectAffected(res, "update password")
}
