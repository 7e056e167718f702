// Package seed fills an empty database with demo students for local development.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/pkg/logger"
	"github.com/abisalde/student-portal/pkg/password"
)

const DefaultPassword = "Password123!"

type mockStudent struct {
	Email         string
	Name          string
	WhatsApp      string
	EmailVerified bool
	Education     models.Education
	Mentor        string
}

var mockStudents = []mockStudent{
	{
		Email: "asha.rao@example.com", Name: "Asha Rao", WhatsApp: "+919876543210", EmailVerified: true,
		Education: models.Education{
			Degree: "B.Tech", Specialization: "Computer Science", College: "IIT Delhi",
			CollegeLocation: "New Delhi", CurrentYear: "3", GraduationYear: "2027",
		},
		Mentor: "Ravi Kumar",
	},
	{
		Email: "vikram.singh@example.com", Name: "Vikram Singh", WhatsApp: "+919812345678", EmailVerified: true,
		Education: models.Education{
			Degree: "B.E.", Specialization: "Electronics", College: "BITS Pilani",
			CollegeLocation: "Pilani", CurrentYear: "4", GraduationYear: "2026",
		},
		Mentor: "Meera Iyer",
	},
	{
		Email: "neha.patel@example.com", Name: "Neha Patel", WhatsApp: "+919900112233", EmailVerified: true,
	},
	{
		Email: "arjun.mehta@example.com", Name: "Arjun Mehta", WhatsApp: "+14155550123", EmailVerified: false,
	},
}

type Seeder struct {
	accounts repository.AccountRepository
	users    repository.UserRepository
	bookings repository.BookingRepository
	loc      *time.Location
	now      func() time.Time
}

func New(accounts repository.AccountRepository, users repository.UserRepository, bookings repository.BookingRepository, loc *time.Location) *Seeder {
	if loc == nil {
		loc = time.Local
	}
	return &Seeder{accounts: accounts, users: users, bookings: bookings, loc: loc, now: time.Now}
}

// Run creates the demo students that do not exist yet and returns how many it created.
// Every account gets DefaultPassword.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	hash, err := password.HashPassword(DefaultPassword)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	created := 0
	for i, student := range mockStudents {
		exists, err := s.accounts.ExistsByEmail(ctx, student.Email)
		if err != nil {
			return created, err
		}
		if exists {
			logger.Info("seed user already present, skipping", zap.String("email", student.Email))
			continue
		}

		if err := s.createStudent(ctx, i, student, hash); err != nil {
			logger.Error("failed to seed user", zap.String("email", student.Email), zap.Error(err))
			continue
		}
		created++
		logger.Info("seeded user", zap.Int("n", created), zap.Int("of", len(mockStudents)), zap.String("email", student.Email))
	}
	return created, nil
}

func (s *Seeder) createStudent(ctx context.Context, i int, student mockStudent, hash string) error {
	now := s.now()
	id := uuid.NewString()

	if err := s.accounts.Create(ctx, &models.Account{
		ID:            id,
		Email:         student.Email,
		PasswordHash:  hash,
		DisplayName:   student.Name,
		EmailVerified: student.EmailVerified,
	}); err != nil {
		return err
	}

	profile := &models.UserProfile{
		ID:          id,
		Name:        student.Name,
		Email:       student.Email,
		DisplayName: student.Name,
		WhatsApp:    student.WhatsApp,
		Education:   student.Education,
		IsVerified:  student.EmailVerified,
	}
	if student.EmailVerified {
		lastLogin := now.Add(-time.Duration(i) * time.Hour).UTC()
		profile.LastLogin = &lastLogin
	}
	if err := s.users.Create(ctx, profile); err != nil {
		return err
	}

	if student.Mentor == "" {
		return nil
	}

	// One slot that has already passed and one still ahead, so both booking states show up.
	slots := []time.Time{now.AddDate(0, 0, -3), now.AddDate(0, 0, 4)}
	for n, at := range slots {
		at = at.In(s.loc)
		if err := s.bookings.CreateMentorBooking(ctx, &models.MentorBooking{
			ID:          uuid.NewString(),
			UserID:      id,
			MentorName:  student.Mentor,
			SessionType: "Career guidance",
			Date:        at.Format(models.DateLayout),
			Time:        fmt.Sprintf("%02d:00", 10+n*4),
			Status:      models.BookingStatusBooked,
			Reference:   fmt.Sprintf("MB-SEED%04d", i*10+n),
		}); err != nil {
			return err
		}
	}

	return s.bookings.CreateBooking(ctx, &models.Booking{
		ID:          uuid.NewString(),
		UserID:      id,
		Title:       "Data Structures Workshop",
		SessionType: "workshop",
		Date:        now.AddDate(0, 0, 7).In(s.loc).Format(models.DateLayout),
		Time:        "16:00",
		Status:      models.BookingStatusBooked,
		Reference:   fmt.Sprintf("BK-SEED%04d", i),
	})
}
