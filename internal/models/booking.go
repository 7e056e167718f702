package models

import "time"

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// MentorBooking is a mentorshipBookings record.
type MentorBooking struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"userId"`
	MentorName  string        `db:"mentor_name" json:"mentorName"`
	SessionType string        `db:"session_type" json:"sessionType"`
	Date        string        `db:"booking_date" json:"date"`
	Time        string        `db:"booking_time" json:"time"`
	Status      BookingStatus `db:"status" json:"status"`
	Reference   string        `db:"reference" json:"reference"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// Booking is a bookings record for a scheduled session.
type Booking struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"userId"`
	SessionID   string        `db:"session_id" json:"sessionId"`
	Title       string        `db:"title" json:"title"`
	SessionType string        `db:"session_type" json:"sessionType"`
	Date        string        `db:"booking_date" json:"date"`
	Time        string        `db:"booking_time" json:"time"`
	Status      BookingStatus `db:"status" json:"status"`
	Reference   string        `db:"reference" json:"reference"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// ScheduledAt combines a YYYY-MM-DD date and an HH:MM (or HH:MM:SS) time in loc.
func ScheduledAt(date, clock string, loc *time.Location) (time.Time, bool) {
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+"T"+clock, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsPast reports whether a booked slot has started before now. Unparseable slots are never past.
func (b MentorBooking) IsPast(now time.Time, loc *time.Location) bool {
	at, ok := ScheduledAt(b.Date, b.Time, loc)
	return ok && at.Before(now)
}

// IsUpcoming reports whether the slot is still in the future. Unparseable slots are never upcoming.
func (b MentorBooking) IsUpcoming(now time.Time, loc *time.Location) bool {
	at, ok := ScheduledAt(b.Date, b.Time, loc)
	return ok && at.After(now)
}
