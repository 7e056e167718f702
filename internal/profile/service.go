package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/internal/utils/validator"
	"github.com/abisalde/student-portal/pkg/logger"
)

// Invalidator drops cached completeness answers after a profile write.
type Invalidator interface {
	Invalidate(uid string)
}

type Service struct {
	users       repository.UserRepository
	bookings    repository.BookingRepository
	validate    *validator.Validator
	invalidator Invalidator
	loc         *time.Location
}

func NewService(users repository.UserRepository, bookings repository.BookingRepository, validate *validator.Validator, invalidator Invalidator, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		users:       users,
		bookings:    bookings,
		validate:    validate,
		invalidator: invalidator,
		loc:         loc,
	}
}

// Page is everything the profile view shows.
type Page struct {
	Profile              *models.UserProfile    `json:"profile"`
	MentorBookings       []models.MentorBooking `json:"mentorBookings"`
	Appointments         []models.Booking       `json:"appointments"`
	Complete             bool                   `json:"complete"`
	EducationIncomplete  bool                   `json:"educationIncomplete"`
	ShowCompletionPrompt bool                   `json:"showCompletionPrompt"`
	CanLeaveEdit         bool                   `json:"canLeaveEdit"`
}

// Load reads the profile and the user's bookings. Mentor bookings whose slot has
// passed while still booked are completed on the way.
func (s *Service) Load(ctx context.Context, uid string, now time.Time) (*Page, error) {
	page := &Page{}

	profile, err := s.users.Get(ctx, uid)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	default:
		page.Profile = profile
	}

	mentorBookings, err := s.bookings.ListMentorBookings(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load mentor bookings: %w", err)
	}
	s.completePastBookings(ctx, mentorBookings, now)
	page.MentorBookings = mentorBookings

	appointments, err := s.bookings.ListBookings(ctx, uid, models.BookingStatusBooked)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	page.Appointments = appointments

	page.Complete = page.Profile.IsComplete()
	page.EducationIncomplete = page.Profile == nil || !page.Profile.Education.IsComplete()
	page.ShowCompletionPrompt = !page.Profile.HasContactDetails() || page.EducationIncomplete
	page.CanLeaveEdit = EditAllowed(page.Profile)
	return page, nil
}

func (s *Service) completePastBookings(ctx context.Context, bookings []models.MentorBooking, now time.Time) {
	for i := range bookings {
		b := &bookings[i]
		if b.Status != models.BookingStatusBooked || !b.IsPast(now, s.loc) {
			continue
		}
		if err := s.bookings.UpdateMentorBookingStatus(ctx, b.ID, models.BookingStatusCompleted); err != nil {
			logger.Warn("failed to complete past mentor booking", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		b.Status = models.BookingStatusCompleted
	}
}

// EditAllowed reports whether the user may leave edit mode, switch tabs or cancel
// an edit. All of these wait until the education details are filled in.
func EditAllowed(profile *models.UserProfile) bool {
	return profile != nil && profile.Education.IsComplete()
}

type UpdateInput struct {
	Name        string           `json:"name" validate:"nonblank"`
	Email       string           `json:"email" validate:"nonblank,email_address"`
	WhatsApp    string           `json:"whatsapp" validate:"nonblank,whatsapp"`
	Phone       string           `json:"phone"`
	DisplayName string           `json:"displayName"`
	Education   models.Education `json:"education"`
}

// Validate checks the contact fields. Education is not validated here.
func (s *Service) Validate(input UpdateInput) error {
	return s.validate.Struct(input)
}

// Save writes the whole profile, creating the record when it is missing. Nothing is
// written when validation fails, and the completeness cache only changes once the
// write has succeeded.
func (s *Service) Save(ctx context.Context, uid string, input UpdateInput, now time.Time) (*models.UserProfile, error) {
	if err := s.Validate(input); err != nil {
		return nil, err
	}

	current, err := s.users.Get(ctx, uid)
	missing := errors.Is(err, repository.ErrNotFound)
	if err != nil && !missing {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if missing {
		// signup's profile write is best effort; the first save creates the record
		current = &models.UserProfile{ID: uid, CreatedAt: now.UTC()}
	}

	next := *current
	next.Name = input.Name
	next.Email = input.Email
	next.WhatsApp = input.WhatsApp
	next.Phone = input.Phone
	if input.DisplayName != "" {
		next.DisplayName = input.DisplayName
	}
	next.Education = input.Education
	next.UpdatedAt = now.UTC()

	if missing {
		err = s.users.Create(ctx, &next)
		if errors.Is(err, repository.ErrDuplicate) {
			err = s.users.Update(ctx, &next)
		}
	} else {
		err = s.users.Update(ctx, &next)
	}
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.invalidator.Invalidate(uid)
	return &next, nil
}

// CancelMentorBooking cancels one of uid's upcoming booked sessions. The returned
// booking shows the cancellation only after it has been stored.
func (s *Service) CancelMentorBooking(ctx context.Context, uid, bookingID string, now time.Time) (*models.MentorBooking, error) {
	b, err := s.bookings.GetMentorBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customErrors.BookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load mentor booking: %w", err)
	}
	if b.UserID != uid {
		return nil, customErrors.BookingNotFound
	}
	if b.Status != models.BookingStatusBooked || !b.IsUpcoming(now, s.loc) {
		return nil, customErrors.BookingNotCancellable
	}

	if err := s.bookings.UpdateMentorBookingStatus(ctx, b.ID, models.BookingStatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel mentor booking: %w", err)
	}

	b.Status = models.BookingStatusCancelled
	return b, nil
}

type MentorBookingInput struct {
	MentorName  string `json:"mentorName" validate:"nonblank"`
	SessionType string `json:"sessionType" validate:"nonblank"`
	Date        string `json:"date" validate:"nonblank,datetime=2006-01-02"`
	Time        string `json:"time" validate:"nonblank,datetime=15:04"`
}

type BookingInput struct {
	SessionID   string `json:"sessionId"`
	Title       string `json:"title" validate:"nonblank"`
	SessionType string `json:"sessionType" validate:"nonblank"`
	Date        string `json:"date" validate:"nonblank,datetime=2006-01-02"`
	Time        string `json:"time" validate:"nonblank,datetime=15:04"`
}

func (s *Service) requireFuture(date, clock string, now time.Time) error {
	at, ok := models.ScheduledAt(date, clock, s.loc)
	if !ok || !at.After(now) {
		return customErrors.FieldError("date", "Please choose a future date and time")
	}
	return nil
}

func reference(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *Service) CreateMentorBooking(ctx context.Context, uid string, input MentorBookingInput, now time.Time) (*models.MentorBooking, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if err := s.requireFuture(input.Date, input.Time, now); err != nil {
		return nil, err
	}

	b := &models.MentorBooking{
		ID:          uuid.NewString(),
		UserID:      uid,
		MentorName:  input.MentorName,
		SessionType: input.SessionType,
		Date:        input.Date,
		Time:        input.Time,
		Status:      models.BookingStatusBooked,
		Reference:   reference("MB-"),
	}
	if err := s.bookings.CreateMentorBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create mentor booking: %w", err)
	}
	return b, nil
}

func (s *Service) CreateBooking(ctx context.Context, uid string, input BookingInput, now time.Time) (*models.Booking, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if err := s.requireFuture(input.Date, input.Time, now); err != nil {
		return nil, err
	}

	b := &models.Booking{
		ID:          uuid.NewString(),
		UserID:      uid,
		SessionID:   input.SessionID,
		Title:       input.Title,
		SessionType: input.SessionType,
		Date:        input.Date,
		Time:        input.Time,
		Status:      models.BookingStatusBooked,
		Reference:   reference("BK-"),
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return b, nil
}

// Appointments lists uid's booked session bookings, newest date first.
func (s *Service) Appointments(ctx context.Context, uid string) ([]models.Booking, error) {
	return s.bookings.ListBookings(ctx, uid, models.BookingStatusBooked)
}
