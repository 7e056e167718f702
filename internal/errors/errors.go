package errors

import "net/http"

var (
	RateLimitExceeded = NewTypedError("Too many requests. Please try again later.", ErrorTypeRateLimited, http.StatusTooManyRequests, nil)
	TooManyAttempts   = NewTypedError("Too many failed login attempts. Please try again later.", ErrorTypeRateLimited, http.StatusTooManyRequests, nil)

	AuthenticationRequired = NewTypedError("Access Denied Authentication required.", ErrorTypeUnauthenticated, http.StatusUnauthorized, nil)
	InvalidCredentials     = NewTypedError("Invalid email or password.", ErrorTypeInvalidCredentials, http.StatusUnauthorized, nil)
	EmailExists            = NewTypedError("This email is already registered. Please use a different email or try logging in.", ErrorTypeEmailExists, http.StatusConflict, nil)
	WeakPassword           = NewTypedError("Password should be at least 6 characters long.", ErrorTypeWeakPassword, http.StatusBadRequest, nil)
	UserNotFound           = NewTypedError("User not found.", ErrorTypeNotFound, http.StatusNotFound, nil)

	InvalidToken     = NewTypedError("Invalid token header", ErrorTypeUnauthenticated, http.StatusUnauthorized, nil)
	ExpiredToken     = NewTypedError("Expired token", ErrorTypeUnauthenticated, http.StatusUnauthorized, nil)
	InvalidTokenType = NewTypedError("Invalid token type", ErrorTypeToken, http.StatusUnauthorized, nil)

	InvalidRefreshTokenValidation = NewTypedError("Unable to validate refresh token, try again or Logout and Login again", ErrorTypeToken, http.StatusUnauthorized, nil)
	JWTSecretNotConfigured        = NewTypedError("JWT secret not configured", ErrorTypeToken, http.StatusInternalServerError, nil)
	AccessTokenGeneration         = NewTypedError("There's an error generating token, please try again", ErrorTypeToken, http.StatusInternalServerError, nil)
	TokenRevoked                  = NewTypedError("Session has been signed out", ErrorTypeUnauthenticated, http.StatusUnauthorized, nil)

	InvalidActionCode = NewTypedError("The verification link is invalid or has expired.", ErrorTypeBadRequest, http.StatusBadRequest, nil)

	BookingNotFound       = NewTypedError("Booking not found.", ErrorTypeNotFound, http.StatusNotFound, nil)
	BookingNotCancellable = NewTypedError("Only upcoming booked sessions can be cancelled.", ErrorTypeConflict, http.StatusConflict, nil)

	ContactFailed = NewTypedError("Failed to send message. Please try again later.", ErrorTypeInternalServerError, http.StatusBadGateway, nil)

	TestNotFound        = NewTypedError("Mock test not found.", ErrorTypeNotFound, http.StatusNotFound, nil)
	TestSessionNotFound = NewTypedError("Mock test session not found.", ErrorTypeNotFound, http.StatusNotFound, nil)
	InvalidAnswer       = NewTypedError("Unknown question or option.", ErrorTypeBadRequest, http.StatusBadRequest, nil)

	ErrSomethingWentWrong = NewTypedError("Something went wrong! Please try again", ErrorTypeBadRequest, http.StatusBadRequest, nil)
)
