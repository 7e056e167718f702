package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/appstate"
	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/internal/configs"
	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/internal/identity"
	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/pkg/logger"
	"github.com/abisalde/student-portal/pkg/whatsapp"
)

// IdentityProvider is the subset of the identity provider the auth flows use.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	IssueTokens(ctx context.Context, id *models.Identity) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, *models.Identity, error)
	SignOut(ctx context.Context, uid, accessToken string) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	Reload(ctx context.Context, uid string) (*models.Identity, error)
	SendVerificationChallenge(ctx context.Context, id *models.Identity, callbackURL string) error
	ApplyVerificationCode(ctx context.Context, code string) (string, error)
	SendPasswordReset(ctx context.Context, email, callbackURL string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
}

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the outcome of a successful signup, login or refresh.
type Session struct {
	User   *models.Identity  `json:"user"`
	Tokens models.TokenPair  `json:"-"`
	State  appstate.Snapshot `json:"state"`
}

type AuthService struct {
	provider IdentityProvider
	users    repository.UserRepository
	state    *appstate.Store
	notifier Notifier
	cfg      *configs.Config
	now      func() time.Time
}

func NewAuthService(cfg *configs.Config, provider IdentityProvider, users repository.UserRepository, state *appstate.Store, notifier Notifier) *AuthService {
	return &AuthService{
		provider: provider,
		users:    users,
		state:    state,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *AuthService) verifyEmailURL() string {
	return strings.TrimRight(s.cfg.App.Origin, "/") + "/verify-email"
}

func (s *AuthService) verificationLink(idToken string) string {
	return s.verifyEmailURL() + "?token=" + url.QueryEscape(idToken)
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	if !whatsapp.ValidateNumber(input.WhatsApp) {
		return nil, customErrors.FieldError("whatsapp", "Please enter a valid WhatsApp number with country code")
	}

	id, err := s.provider.CreateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return nil, mapSignupError(err)
	}

	if err := s.provider.UpdateDisplayName(ctx, id.ID, input.Name); err != nil {
		return nil, err
	}
	id.DisplayName = input.Name

	if err := s.provider.SendVerificationChallenge(ctx, id, s.verifyEmailURL()); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		ID:          id.ID,
		Email:       id.Email,
		Name:        input.Name,
		DisplayName: input.Name,
		Phone:       input.Phone,
		WhatsApp:    input.WhatsApp,
		IsVerified:  false,
		CreatedAt:   s.now(),
	}
	if err := s.users.Create(ctx, profile); err != nil {
		logger.Error("failed to create user profile", zap.String("uid", id.ID), zap.Error(err))
	}

	tokens, err := s.provider.IssueTokens(ctx, id)
	if err != nil {
		return nil, err
	}

	s.sendSignupMessages(ctx, id.ID, input.Name, input.WhatsApp, tokens.AccessToken)

	snap := s.SyncVerification(ctx, id.ID)
	return &Session{User: id, Tokens: tokens, State: snap}, nil
}

func (s *AuthService) sendSignupMessages(ctx context.Context, uid, name, phone, idToken string) {
	welcome := models.Notification{
		Kind:      models.NotificationWelcome,
		UserID:    uid,
		Name:      name,
		Phone:     phone,
		Timestamp: s.now(),
	}
	if err := s.notifier.Notify(ctx, welcome); err != nil {
		logger.Warn("failed to send WhatsApp messages", zap.String("uid", uid), zap.Error(err))
		return
	}

	verify := models.Notification{
		Kind:      models.NotificationVerification,
		UserID:    uid,
		Name:      name,
		Phone:     phone,
		Link:      s.verificationLink(idToken),
		Timestamp: s.now(),
	}
	if err := s.notifier.Notify(ctx, verify); err != nil {
		logger.Warn("failed to send WhatsApp messages", zap.String("uid", uid), zap.Error(err))
	}
}

func mapSignupError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailAlreadyInUse):
		return customErrors.EmailExists
	case errors.Is(err, identity.ErrWeakPassword):
		return customErrors.WeakPassword
	case errors.Is(err, identity.ErrInvalidEmail):
		return customErrors.FieldError("email", "Please enter a valid email address")
	}
	return err
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	id, err := s.provider.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNotFound), errors.Is(err, identity.ErrWrongPassword):
			return nil, customErrors.InvalidCredentials
		case errors.Is(err, identity.ErrTooManyRequests):
			return nil, customErrors.TooManyAttempts
		}
		return nil, err
	}

	tokens, err := s.provider.IssueTokens(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := s.SyncVerification(ctx, id.ID)
	return &Session{User: id, Tokens: tokens, State: snap}, nil
}

// Logout revokes the caller's session and returns the path to navigate to.
func (s *AuthService) Logout(ctx context.Context, user *auth.CurrentUser) (string, error) {
	if user == nil {
		return "/", nil
	}
	if err := s.provider.SignOut(ctx, user.ID, user.Token); err != nil {
		return "", err
	}
	s.state.Clear(user.ID)
	return "/", nil
}

// VerifyEmail redeems a verification code and syncs the account it belonged to.
func (s *AuthService) VerifyEmail(ctx context.Context, code string, user *auth.CurrentUser) (string, error) {
	uid, err := s.provider.ApplyVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidActionCode) {
			return "", customErrors.InvalidActionCode
		}
		return "", err
	}

	// the link may be opened on another device, so sync the redeemed account itself
	s.SyncVerification(ctx, uid)
	if user != nil && user.ID != uid {
		s.SyncVerification(ctx, user.ID)
	}
	return "/profile", nil
}

func (s *AuthService) ResendVerification(ctx context.Context, user *auth.CurrentUser) error {
	if user == nil {
		return nil
	}

	id, err := s.provider.Reload(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.provider.SendVerificationChallenge(ctx, id, s.verifyEmailURL()); err != nil {
		return err
	}

	profile, err := s.users.Get(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("failed to load profile for verification message", zap.String("uid", user.ID), zap.Error(err))
		}
		return nil
	}
	if profile.WhatsApp == "" {
		return nil
	}

	n := models.Notification{
		Kind:      models.NotificationVerification,
		UserID:    user.ID,
		Name:      profile.Name,
		Phone:     profile.WhatsApp,
		Link:      s.verificationLink(user.Token),
		Timestamp: s.now(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("failed to send WhatsApp verification", zap.String("uid", user.ID), zap.Error(err))
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	callback := strings.TrimRight(s.cfg.App.Origin, "/") + "/login"
	err := s.provider.SendPasswordReset(ctx, email, callback)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		return customErrors.UserNotFound
	case errors.Is(err, identity.ErrInvalidEmail):
		return customErrors.FieldError("email", "Please enter a valid email address")
	}
	return err
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	err := s.provider.ConfirmPasswordReset(ctx, code, newPassword)
	switch {
	case errors.Is(err, identity.ErrInvalidActionCode):
		return customErrors.InvalidActionCode
	case errors.Is(err, identity.ErrWeakPassword):
		return customErrors.WeakPassword
	}
	return err
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	tokens, id, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	snap := s.SyncVerification(ctx, id.ID)
	return &Session{User: id, Tokens: tokens, State: snap}, nil
}

func (s *AuthService) CheckEmailVerification(ctx context.Context, user *auth.CurrentUser) appstate.Snapshot {
	if user == nil {
		return appstate.Snapshot{Status: appstate.StatusUnauthenticated}
	}
	return s.SyncVerification(ctx, user.ID)
}

func (s *AuthService) State(user *auth.CurrentUser) appstate.Snapshot {
	if user == nil {
		return appstate.Snapshot{Status: appstate.StatusUnauthenticated}
	}
	return s.state.Get(user.ID)
}

// SyncVerification reloads the identity, records the verification flag and login
// time on the profile, and publishes the result. Failures leave Verified false.
func (s *AuthService) SyncVerification(ctx context.Context, uid string) appstate.Snapshot {
	s.state.Begin(uid)

	snap := appstate.Snapshot{UserID: uid}

	id, err := s.provider.Reload(ctx, uid)
	if err != nil {
		logger.Error("error checking email verification", zap.String("uid", uid), zap.Error(err))
		return s.state.Set(snap)
	}
	snap.Email = id.Email
	snap.DisplayName = id.DisplayName

	if err := s.recordVerification(ctx, id); err != nil {
		logger.Error("error checking email verification", zap.String("uid", uid), zap.Error(err))
		return s.state.Set(snap)
	}

	snap.Verified = id.EmailVerified
	return s.state.Set(snap)
}

// recordVerification stores the verification flag and login time. A profile lost
// to a failed signup write is recreated from the identity.
func (s *AuthService) recordVerification(ctx context.Context, id *models.Identity) error {
	now := s.now()
	err := s.users.UpdateVerification(ctx, id.ID, id.EmailVerified, now)
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	logger.Warn("profile missing, recreating from identity", zap.String("uid", id.ID))
	err = s.users.Create(ctx, &models.UserProfile{
		ID:          id.ID,
		Email:       id.Email,
		Name:        id.DisplayName,
		DisplayName: id.DisplayName,
		IsVerified:  id.EmailVerified,
		LastLogin:   &now,
		CreatedAt:   now,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// created concurrently by a profile save
		return s.users.UpdateVerification(ctx, id.ID, id.EmailVerified, now)
	}
	return err
}
