package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/internal/testutil/testdb"
	"github.com/abisalde/student-portal/internal/utils/validator"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingInvalidator struct {
	uids []string
}

func (r *recordingInvalidator) Invalidate(uid string) { r.uids = append(r.uids, uid) }

// flakyBookings fails status updates for the listed ids.
type flakyBookings struct {
	repository.BookingRepository
	failUpdates map[string]bool
}

func (f *flakyBookings) UpdateMentorBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	if f.failUpdates[id] {
		return errors.New("write rejected")
	}
	return f.BookingRepository.UpdateMentorBookingStatus(ctx, id, status)
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) Update(context.Context, *models.UserProfile) error {
	return errors.New("write rejected")
}

type fixture struct {
	svc         *Service
	users       repository.UserRepository
	bookings    *flakyBookings
	invalidator *recordingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.NewDatabase(t)

	f := &fixture{
		users:       repository.NewUserRepository(db.DB),
		bookings:    &flakyBookings{BookingRepository: repository.NewBookingRepository(db.DB), failUpdates: map[string]bool{}},
		invalidator: &recordingInvalidator{},
	}
	f.svc = NewService(f.users, f.bookings, validator.New(), f.invalidator, time.UTC)
	return f
}

func (f *fixture) seedProfile(t *testing.T, p *models.UserProfile) {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), p))
}

func (f *fixture) seedMentorBooking(t *testing.T, id, uid, date, clock string, status models.BookingStatus) {
	t.Helper()
	require.NoError(t, f.bookings.CreateMentorBooking(context.Background(), &models.MentorBooking{
		ID: id, UserID: uid, MentorName: "Ravi", SessionType: "career", Date: date, Time: clock, Status: status,
	}))
}

func fullEducation() models.Education {
	return models.Education{
		Degree: "B.Tech", Specialization: "CSE", College: "IIT", CollegeLocation: "Delhi",
		CurrentYear: "3", GraduationYear: "2027",
	}
}

func TestLoad_CompletesPastBookings(t *testing.T) {
	f := newFixture(t)
	f.seedProfile(t, &models.UserProfile{ID: "u1", Name: "Asha", Email: "asha@example.com", WhatsApp: "+919876543210"})
	f.seedMentorBooking(t, "past", "u1", "2026-03-09", "10:00", models.BookingStatusBooked)
	f.seedMentorBooking(t, "future", "u1", "2026-03-11", "10:00", models.BookingStatusBooked)
	f.seedMentorBooking(t, "cancelled", "u1", "2026-03-01", "10:00", models.BookingStatusCancelled)
	f.seedMentorBooking(t, "other-user", "u2", "2026-03-01", "10:00", models.BookingStatusBooked)

	page, err := f.svc.Load(context.Background(), "u1", now)
	require.NoError(t, err)

	require.Len(t, page.MentorBookings, 3)
	assert.Equal(t, "future", page.MentorBookings[0].ID, "date descending")

	statuses := map[string]models.BookingStatus{}
	for _, b := range page.MentorBookings {
		statuses[b.ID] = b.Status
	}
	assert.Equal(t, models.BookingStatusCompleted, statuses["past"])
	assert.Equal(t, models.BookingStatusBooked, statuses["future"])
	assert.Equal(t, models.BookingStatusCancelled, statuses["cancelled"])

	stored, err := f.bookings.GetMentorBooking(context.Background(), "past")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, stored.Status)
}

func TestLoad_FailedCompletionKeepsBooked(t *testing.T) {
	f := newFixture(t)
	f.seedMentorBooking(t, "past", "u1", "2026-03-09", "10:00", models.BookingStatusBooked)
	f.bookings.failUpdates["past"] = true

	page, err := f.svc.Load(context.Background(), "u1", now)
	require.NoError(t, err)
	require.Len(t, page.MentorBookings, 1)
	assert.Equal(t, models.BookingStatusBooked, page.MentorBookings[0].Status)
}

func TestLoad_UnparseableSlotIsLeftAlone(t *testing.T) {
	f := newFixture(t)
	f.seedMentorBooking(t, "odd", "u1", "someday", "noon", models.BookingStatusBooked)

	page, err := f.svc.Load(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusBooked, page.MentorBookings[0].Status)
}

func TestLoad_CompletionFlags(t *testing.T) {
	t.Run("missing profile", func(t *testing.T) {
		f := newFixture(t)
		page, err := f.svc.Load(context.Background(), "ghost", now)
		require.NoError(t, err)

		assert.Nil(t, page.Profile)
		assert.False(t, page.Complete)
		assert.True(t, page.EducationIncomplete)
		assert.True(t, page.ShowCompletionPrompt)
		assert.False(t, page.CanLeaveEdit)
	})

	t.Run("contact details without education", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, &models.UserProfile{ID: "u1", Name: "Asha", Email: "asha@example.com", WhatsApp: "+919876543210"})

		page, err := f.svc.Load(context.Background(), "u1", now)
		require.NoError(t, err)
		assert.False(t, page.Complete)
		assert.True(t, page.EducationIncomplete)
		assert.True(t, page.ShowCompletionPrompt)
	})

	t.Run("complete profile", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, &models.UserProfile{
			ID: "u1", Name: "Asha", Email: "asha@example.com", WhatsApp: "+919876543210", Education: fullEducation(),
		})

		page, err := f.svc.Load(context.Background(), "u1", now)
		require.NoError(t, err)
		assert.True(t, page.Complete)
		assert.False(t, page.ShowCompletionPrompt)
		assert.True(t, page.CanLeaveEdit)
	})
}

func TestLoad_ListsOnlyBookedAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.bookings.CreateBooking(ctx, &models.Booking{ID: "b1", UserID: "u1", Title: "DSA", Date: "2026-03-01", Time: "10:00", Status: models.BookingStatusBooked}))
	require.NoError(t, f.bookings.CreateBooking(ctx, &models.Booking{ID: "b2", UserID: "u1", Title: "OS", Date: "2026-03-05", Time: "10:00", Status: models.BookingStatusBooked}))
	require.NoError(t, f.bookings.CreateBooking(ctx, &models.Booking{ID: "b3", UserID: "u1", Title: "DB", Date: "2026-03-06", Time: "10:00", Status: models.BookingStatusCancelled}))

	page, err := f.svc.Load(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, page.Appointments, 2)
	assert.Equal(t, "b2", page.Appointments[0].ID)
}

func TestValidate(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input UpdateInput
		want  map[string]string
	}{
		{
			name:  "all missing",
			input: UpdateInput{Name: "  "},
			want: map[string]string{
				"name":     "Name is required",
				"email":    "Email is required",
				"whatsapp": "WhatsApp number is required",
			},
		},
		{
			name:  "bad formats",
			input: UpdateInput{Name: "Asha", Email: "asha@", WhatsApp: "0123"},
			want: map[string]string{
				"email":    "Please enter a valid email address",
				"whatsapp": "Please enter a valid WhatsApp number with country code",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Validate(tt.input)
			var verr *customErrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Fields)
		})
	}

	assert.NoError(t, f.svc.Validate(UpdateInput{Name: "Asha", Email: "asha@example.com", WhatsApp: "+919876543210"}))
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	f.seedProfile(t, &models.UserProfile{ID: "u1", Name: "Asha", Email: "asha@example.com", WhatsApp: "+919876543210", IsVerified: true})

	input := UpdateInput{Name: "Asha Rao", Email: "asha@example.com", WhatsApp: "+919876543210", Education: fullEducation()}
	saved, err := f.svc.Save(context.Background(), "u1", input, now)
	require.NoError(t, err)

	assert.True(t, saved.IsComplete())
	assert.True(t, saved.IsVerified, "verification flag is kept")
	assert.Equal(t, []string{"u1"}, f.invalidator.uids)

	stored, err := f.users.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", stored.Name)
	assert.Equal(t, "Delhi", stored.Education.CollegeLocation)
}

func TestSave_ValidationFailureSkipsStore(t *testing.T) {
	f := newFixture(t)
	f.svc.users = failingUsers{UserRepository: f.users}

	_, err := f.svc.Save(context.Background(), "u1", UpdateInput{Name: "Asha"}, now)
	var verr *customErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, f.invalidator.uids)
}

func TestSave_StoreFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.seedProfile(t, &models.UserProfile{ID: "u1", Name: "Asha"})
	f.svc.users = failingUsers{UserRepository: f.users}

	_, err := f.svc.Save(context.Background(), "u1", UpdateInput{Name: "Asha", Email: "a@b.co", WhatsApp: "+14155550100"}, now)
	require.Error(t, err)
	assert.Empty(t, f.invalidator.uids)
}

func TestSave_CreatesMissingProfile(t *testing.T) {
	f := newFixture(t)
	input := UpdateInput{Name: "Asha", Email: "a@b.co", WhatsApp: "+14155550100", Education: fullEducation()}

	saved, err := f.svc.Save(context.Background(), "ghost", input, now)
	require.NoError(t, err)
	assert.Equal(t, "ghost", saved.ID)
	assert.True(t, saved.IsComplete())
	assert.Equal(t, []string{"ghost"}, f.invalidator.uids)

	stored, err := f.users.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "Asha", stored.Name)
	assert.Equal(t, "+14155550100", stored.WhatsApp)
	assert.True(t, stored.IsComplete())

	input.Name = "Asha Rao"
	_, err = f.svc.Save(context.Background(), "ghost", input, now)
	require.NoError(t, err)
	stored, err = f.users.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", stored.Name)
}

func TestCancelMentorBooking(t *testing.T) {
	f := newFixture(t)
	f.seedMentorBooking(t, "future", "u1", "2026-03-11", "10:00", models.BookingStatusBooked)
	f.seedMentorBooking(t, "past", "u1", "2026-03-09", "10:00", models.BookingStatusBooked)
	f.seedMentorBooking(t, "done", "u1", "2026-03-12", "10:00", models.BookingStatusCompleted)
	f.seedMentorBooking(t, "theirs", "u2", "2026-03-11", "10:00", models.BookingStatusBooked)
	ctx := context.Background()

	b, err := f.svc.CancelMentorBooking(ctx, "u1", "future", now)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, b.Status)

	stored, err := f.bookings.GetMentorBooking(ctx, "future")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, stored.Status)

	_, err = f.svc.CancelMentorBooking(ctx, "u1", "past", now)
	assert.ErrorIs(t, err, customErrors.BookingNotCancellable)

	_, err = f.svc.CancelMentorBooking(ctx, "u1", "done", now)
	assert.ErrorIs(t, err, customErrors.BookingNotCancellable)

	_, err = f.svc.CancelMentorBooking(ctx, "u1", "theirs", now)
	assert.ErrorIs(t, err, customErrors.BookingNotFound)

	_, err = f.svc.CancelMentorBooking(ctx, "u1", "missing", now)
	assert.ErrorIs(t, err, customErrors.BookingNotFound)
}

func TestCancelMentorBooking_FailedWriteLeavesBooking(t *testing.T) {
	f := newFixture(t)
	f.seedMentorBooking(t, "future", "u1", "2026-03-11", "10:00", models.BookingStatusBooked)
	f.bookings.failUpdates["future"] = true

	b, err := f.svc.CancelMentorBooking(context.Background(), "u1", "future", now)
	require.Error(t, err)
	assert.Nil(t, b)

	stored, err := f.bookings.GetMentorBooking(context.Background(), "future")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusBooked, stored.Status)
}

func TestCreateBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mb, err := f.svc.CreateMentorBooking(ctx, "u1", MentorBookingInput{
		MentorName: "Ravi", SessionType: "career", Date: "2026-03-20", Time: "15:30",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusBooked, mb.Status)
	assert.True(t, strings.HasPrefix(mb.Reference, "MB-"))
	assert.Len(t, mb.Reference, 11)

	b, err := f.svc.CreateBooking(ctx, "u1", BookingInput{
		Title: "Mock interview", SessionType: "interview", Date: "2026-03-21", Time: "09:00",
	}, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.Reference, "BK-"))

	appointments, err := f.svc.Appointments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, b.ID, appointments[0].ID)

	_, err = f.svc.CreateMentorBooking(ctx, "u1", MentorBookingInput{
		MentorName: "Ravi", SessionType: "career", Date: "2026-03-01", Time: "15:30",
	}, now)
	var verr *customErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")

	_, err = f.svc.CreateBooking(ctx, "u1", BookingInput{Title: "x", SessionType: "y", Date: "21/03/2026", Time: "9am"}, now)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")
	assert.Contains(t, verr.Fields, "time")
}
