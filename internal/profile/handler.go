package profile

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
	customErrors "github.com/abisalde/student-portal/internal/errors"
)

type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func currentUser(c *fiber.Ctx) (*auth.CurrentUser, error) {
	user := auth.UserFromFiber(c)
	if user == nil {
		return nil, customErrors.AuthenticationRequired
	}
	return user, nil
}

// RegisterProfileRoutes mounts /api/profile.
func (h *Handler) RegisterProfileRoutes(router fiber.Router) {
	router.Get("/", h.GetProfile)
	router.Put("/", h.SaveProfile)
	router.Post("/validate", h.ValidateProfile)
	router.Post("/mentor-bookings/:id/cancel", h.CancelMentorBooking)
}

// RegisterMentorshipRoutes mounts /api/mentorship.
func (h *Handler) RegisterMentorshipRoutes(router fiber.Router) {
	router.Post("/bookings", h.CreateMentorBooking)
}

// RegisterBookingRoutes mounts /api/bookings.
func (h *Handler) RegisterBookingRoutes(router fiber.Router) {
	router.Post("/", h.CreateBooking)
}

// RegisterAppointmentRoutes mounts /api/appointments.
func (h *Handler) RegisterAppointmentRoutes(router fiber.Router) {
	router.Get("/", h.ListAppointments)
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := h.service.Load(c.UserContext(), user.ID, h.now())
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handler) SaveProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}

	saved, err := h.service.Save(c.UserContext(), user.ID, input, h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"profile":      saved,
		"complete":     saved.IsComplete(),
		"canLeaveEdit": EditAllowed(saved),
	})
}

func (h *Handler) ValidateProfile(c *fiber.Ctx) error {
	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}
	if err := h.service.Validate(input); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true})
}

func (h *Handler) CancelMentorBooking(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	booking, err := h.service.CancelMentorBooking(c.UserContext(), user.ID, c.Params("id"), h.now())
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *Handler) CreateMentorBooking(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var input MentorBookingInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}

	booking, err := h.service.CreateMentorBooking(c.UserContext(), user.ID, input, h.now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var input BookingInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}

	booking, err := h.service.CreateBooking(c.UserContext(), user.ID, input, h.now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *Handler) ListAppointments(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	appointments, err := h.service.Appointments(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"appointments": appointments})
}
