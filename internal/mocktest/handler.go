package mocktest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/auth"
	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/internal/utils/validator"
)

type Handler struct {
	manager  *Manager
	validate *validator.Validator
}

func NewHandler(manager *Manager, validate *validator.Validator) *Handler {
	return &Handler{manager: manager, validate: validate}
}

// RegisterRoutes mounts /api/aptitude.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/tests", h.ListTests)
	router.Post("/tests/:testId/sessions", h.StartSession)
	router.Get("/sessions/:id", h.GetSession)
	router.Put("/sessions/:id/answers/:questionId", h.AnswerQuestion)
	router.Post("/sessions/:id/submit", h.SubmitSession)
	router.Delete("/sessions/:id", h.CloseSession)
}

type AnswerInput struct {
	Choice string `json:"choice" validate:"required"`
}

func userID(c *fiber.Ctx) (string, error) {
	user := auth.UserFromFiber(c)
	if user == nil {
		return "", customErrors.AuthenticationRequired
	}
	return user.ID, nil
}

func (h *Handler) ListTests(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"tests": h.manager.Tests()})
}

func (h *Handler) StartSession(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	testID, err := strconv.Atoi(c.Params("testId"))
	if err != nil {
		return customErrors.TestNotFound
	}

	s, err := h.manager.Start(uid, testID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(s.View())
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	s, err := h.manager.Get(uid, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(s.View())
}

func (h *Handler) AnswerQuestion(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	questionID, err := strconv.Atoi(c.Params("questionId"))
	if err != nil {
		return customErrors.InvalidAnswer
	}

	var input AnswerInput
	if err := c.BodyParser(&input); err != nil {
		return customErrors.ErrSomethingWentWrong.WithCause(err)
	}
	if err := h.validate.Struct(input); err != nil {
		return err
	}

	s, err := h.manager.Answer(uid, c.Params("id"), questionID, input.Choice)
	if err != nil {
		return err
	}
	return c.JSON(s.View())
}

func (h *Handler) SubmitSession(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	s, err := h.manager.Submit(uid, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(s.View())
}

func (h *Handler) CloseSession(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.manager.Close(uid, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
