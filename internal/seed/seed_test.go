package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/internal/testutil/testdb"
	"github.com/abisalde/student-portal/pkg/password"
)

func TestRun(t *testing.T) {
	db := testdb.NewDatabase(t)
	accounts := repository.NewAccountRepository(db.DB)
	users := repository.NewUserRepository(db.DB)
	bookings := repository.NewBookingRepository(db.DB)
	ctx := context.Background()

	s := New(accounts, users, bookings, time.UTC)
	s.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

	created, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(mockStudents), created)

	account, err := accounts.GetByEmail(ctx, "asha.rao@example.com")
	require.NoError(t, err)
	assert.NoError(t, password.CheckPasswordHash(DefaultPassword, account.PasswordHash))

	profile, err := users.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsComplete())

	mentorBookings, err := bookings.ListMentorBookings(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, mentorBookings, 2)
	assert.Equal(t, "2026-05-05", mentorBookings[0].Date)
	assert.Equal(t, models.BookingStatusBooked, mentorBookings[1].Status)

	again, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}
