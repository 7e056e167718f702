package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abisalde/student-portal/internal/models"
)

type BookingRepository interface {
	CreateMentorBooking(ctx context.Context, b *models.MentorBooking) error
	GetMentorBooking(ctx context.Context, id string) (*models.MentorBooking, error)
	ListMentorBookings(ctx context.Context, userID string) ([]models.MentorBooking, error)
	UpdateMentorBookingStatus(ctx context.Context, id string, status models.BookingStatus) error

	CreateBooking(ctx context.Context, b *models.Booking) error
	ListBookings(ctx context.Context, userID string, status models.BookingStatus) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type bookingRepository struct {
	db sqlx.ExtContext
}

func NewBookingRepository(db sqlx.ExtContext) BookingRepository {
	return &bookingRepository{db: db}
}

const (
	mentorBookingColumns = `id, user_id, mentor_name, session_type, booking_date, booking_time, status, reference, created_at, updated_at`
	bookingColumns       = `id, user_id, session_id, title, session_type, booking_date, booking_time, status, reference, created_at, updated_at`
)

func (r *bookingRepository) CreateMentorBooking(ctx context.Context, b *models.MentorBooking) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO mentorship_bookings (`+mentorBookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.UserID, b.MentorName, b.SessionType, b.Date, b.Time, b.Status, b.Reference, b.CreatedAt, b.UpdatedAt)
	return wrap(err, "insert mentor booking")
}

func (r *bookingRepository) GetMentorBooking(ctx context.Context, id string) (*models.MentorBooking, error) {
	var b models.MentorBooking
	err := sqlx.GetContext(ctx, r.db, &b, r.db.Rebind(
		`SELECT `+mentorBookingColumns+` FROM mentorship_bookings WHERE id = ?`), id)
	if err != nil {
		return nil, wrap(err, "get mentor booking")
	}
	return &b, nil
}

// ListMentorBookings returns the user's mentor bookings, newest date first.
func (r *bookingRepository) ListMentorBookings(ctx context.Context, userID string) ([]models.MentorBooking, error) {
	bookings := []models.MentorBooking{}
	err := sqlx.SelectContext(ctx, r.db, &bookings, r.db.Rebind(
		`SELECT `+mentorBookingColumns+` FROM mentorship_bookings
		 WHERE user_id = ?
		 ORDER BY booking_date DESC, booking_time DESC`), userID)
	if err != nil {
		return nil, wrap(err, "list mentor bookings")
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateMentorBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE mentorship_bookings SET status = ?, updated_at = ? WHERE id = ?`),
		status, time.Now().UTC(), id)
	if err != nil {
		return wrap(err, "update mentor booking status")
	}
	return expectAffected(res, "update mentor booking status")
}

func (r *bookingRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.UserID, b.SessionID, b.Title, b.SessionType, b.Date, b.Time, b.Status, b.Reference, b.CreatedAt, b.UpdatedAt)
	return wrap(err, "insert booking")
}

// ListBookings returns the user's bookings with the given status, newest date first.
func (r *bookingRepository) ListBookings(ctx context.Context, userID string, status models.BookingStatus) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := sqlx.SelectContext(ctx, r.db, &bookings, r.db.Rebind(
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE user_id = ? AND status = ?
		 ORDER BY booking_date DESC, booking_time DESC`), userID, status)
	if err != nil {
		return nil, wrap(err, "list bookings")
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`),
		status, time.Now().UTC(), id)
	if err != nil {
		return wrap(err, "update booking status")
	}
	return expectAffected(res, "update booking status")
}
