package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abisalde/student-portal/internal/models"
)

// UserRepository stores users/{id} profile records.
type UserRepository interface {
	Get(ctx context.Context, id string) (*models.UserProfile, error)
	Create(ctx context.Context, profile *models.UserProfile) error
	Update(ctx context.Context, profile *models.UserProfile) error
	UpdateVerification(ctx context.Context, id string, verified bool, lastLogin time.Time) error
}

type userRepository struct {
	db sqlx.ExtContext
}

func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, display_name, phone, whatsapp,
	degree, specialization, college, college_location, current_year, graduation_year,
	is_verified, last_login, created_at, updated_at`

func (r *userRepository) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := sqlx.GetContext(ctx, r.db, &p, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, wrap(err, "get user profile")
	}
	return &p, nil
}

func (r *userRepository) Create(ctx context.Context, p *models.UserProfile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Email, p.Name, p.DisplayName, p.Phone, p.WhatsApp,
		p.Degree, p.Specialization, p.College, p.CollegeLocation, p.CurrentYear, p.GraduationYear,
		p.IsVerified, p.LastLogin, p.CreatedAt, p.UpdatedAt)
	return wrap(err, "insert user profile")
}

// Update writes every editable field and updated_at. It fails with ErrNotFound
// when the record does not exist.
func (r *userRepository) Update(ctx context.Context, p *models.UserProfile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET
		email = ?, name = ?, display_name = ?, phone = ?, whatsapp = ?,
		degree = ?, specialization = ?, college = ?, college_location = ?, current_year = ?, graduation_year = ?,
		updated_at = ?
		WHERE id = ?`),
		p.Email, p.Name, p.DisplayName, p.Phone, p.WhatsApp,
		p.Degree, p.Specialization, p.College, p.CollegeLocation, p.CurrentYear, p.GraduationYear,
		p.UpdatedAt, p.ID)
	if err != nil {
		return wrap(err, "update user profile")
	}
	return expectAffected(res, "update user profile")
}

func (r *userRepository) UpdateVerification(ctx context.Context, id string, verified bool, lastLogin time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE users SET is_verified = ?, last_login = ?, updated_at = ? WHERE id = ?`),
		verified, lastLogin, time.Now().UTC(), id)
	if err != nil {
		return wrap(err, "update user verification")
	}
	return expectAffected(res, "update user verification")
}
