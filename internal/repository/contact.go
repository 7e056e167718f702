package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abisalde/student-portal/internal/models"
)

type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, limit int) ([]models.ContactMessage, error)
}

type contactRepository struct {
	db sqlx.ExtContext
}

func NewContactRepository(db sqlx.ExtContext) ContactRepository {
	return &contactRepository{db: db}
}

const (
	defaultLimit = 50
	maxLimit     = 100
)

func (r *contactRepository) Create(ctx context.Context, m *models.ContactMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO contact_messages (id, name, email, subject, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt)
	return wrap(err, "insert contact message")
}

// List returns the most recent messages first.
func (r *contactRepository) List(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	msgs := []models.ContactMessage{}
	err := sqlx.SelectContext(ctx, r.db, &msgs, r.db.Rebind(
		`SELECT id, name, email, subject, message, created_at FROM contact_messages
		 ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, wrap(err, "list contact messages")
	}
	return msgs, nil
}
