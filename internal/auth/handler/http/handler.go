package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/appstate"
	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/internal/auth/cookies"
	"github.com/abisalde/student-portal/internal/auth/service"
	"github.com/abisalde/student-portal/internal/utils/validator"
)

type AuthService interface {
	Signup(ctx context.Context, input service.SignupInput) (*service.Session, error)
	Login(ctx context.Context, input service.LoginInput) (*service.Session, error)
	Logout(ctx context.Context, user *auth.CurrentUser) (string, error)
	VerifyEmail(ctx context.Context, code string, user *auth.CurrentUser) (string, error)
	ResendVerification(ctx context.Context, user *auth.CurrentUser) error
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*service.Session, error)
	CheckEmailVerification(ctx context.Context, user *auth.CurrentUser) appstate.Snapshot
	State(user *auth.CurrentUser) appstate.Snapshot
}

type AuthHandler struct {
	authService AuthService
	validate    *validator.Validator
	cookies     cookies.Options
}

func NewAuthHandler(authService AuthService, validate *validator.Validator, opts cookies.Options) *AuthHandler {
	return &AuthHandler{authService: authService, validate: validate, cookies: opts}
}

// RegisterRoutes mounts the auth endpoints on router, typically /api/auth.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Post("/signup", h.Signup)
	router.Post("/login", h.Login)
	router.Post("/logout", requireAuth, h.Logout)
	router.Post("/verify-email", h.VerifyEmail)
	router.Post("/resend-verification", h.ResendVerification)
	router.Post("/reset-password", h.ResetPassword)
	router.Post("/reset-password/confirm", h.ConfirmPasswordReset)
	router.Post("/refresh", h.Refresh)
	router.Post("/check-verification", requireAuth, h.CheckVerification)
	router.Get("/state", h.State)
}

type sessionResponse struct {
	User         interface{}       `json:"user"`
	State        appstate.Snapshot `json:"state"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

func (h *AuthHandler) respondWithSession(c *fiber.Ctx, status int, session *service.Session) error {
	cookies.CreateBrowserSession(session.Tokens, h.cookies, c)

	return c.Status(status).JSON(sessionResponse{
		User:         session.User,
		State:        session.State,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	})
}
