package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/abisalde/student-portal/internal/errors"
)

type Claims struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"email"`
	Type      string `json:"type"` //access or refresh
	// SessionID ties an access token to the refresh token it was issued with.
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret, issuer string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, customErrors.JWTSecretNotConfigured
	}
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *Manager) GenerateToken(userID, tokenType, email string) (string, error) {
	return m.GenerateSessionToken(userID, tokenType, email, "")
}

// GenerateSessionToken signs a token carrying sessionID, so one sign-in's token
// pair can be told apart from another device's.
func (m *Manager) GenerateSessionToken(userID, tokenType, email, sessionID string) (string, error) {
	var expiration time.Duration
	switch tokenType {
	case TokenTypeAccess:
		expiration = m.accessTTL
	case TokenTypeRefresh:
		expiration = m.refreshTTL
	default:
		return "", customErrors.InvalidTokenType
	}

	now := m.now()
	claims := &Claims{
		UserID:    userID,
		Type:      tokenType,
		UserEmail: email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, customErrors.ExpiredToken
		}
		return nil, customErrors.InvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, customErrors.InvalidToken
	}

	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeRefresh {
		return nil, customErrors.InvalidTokenType
	}

	return claims, nil
}

func (c *Claims) IsAccessToken() bool {
	return c.Type == TokenTypeAccess
}

func (c *Claims) IsRefreshToken() bool {
	return c.Type == TokenTypeRefresh
}

func GetTokenRemainingTTL(tokenString string) time.Duration {
	claims := &Claims{}
	_, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

// SessionIDOf reads the session id without verifying the signature.
func SessionIDOf(tokenString string) string {
	claims := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	return claims.SessionID
}
