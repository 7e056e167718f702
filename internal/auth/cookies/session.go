package cookies

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/abisalde/student-portal/internal/models"
)

var (
	BrowserSessionTokenName = "student_portal_session_token"
	BrowserAccessTokenName  = "student_portal_access_token"
)

type Options struct {
	Production bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func CreateBrowserSession(tokens models.TokenPair, opts Options, ctx *fiber.Ctx) {
	site := fiber.CookieSameSiteLaxMode

	if !opts.Production {
		site = fiber.CookieSameSiteStrictMode
	}

	refreshTokenExpiration := time.Now().Add(opts.RefreshTTL)
	accessTokenExpiration := time.Now().Add(opts.AccessTTL)

	ctx.Cookie(&fiber.Cookie{
		Secure:   opts.Production,
		HTTPOnly: true,
		Expires:  refreshTokenExpiration,
		Name:     BrowserSessionTokenName,
		Value:    tokens.RefreshToken,
		SameSite: site,
		Path:     "/",
		MaxAge:   int(opts.RefreshTTL.Seconds()),
	})

	ctx.Cookie(&fiber.Cookie{
		Secure:   opts.Production,
		HTTPOnly: true,
		Expires:  accessTokenExpiration,
		Name:     BrowserAccessTokenName,
		Value:    tokens.AccessToken,
		SameSite: site,
		Path:     "/",
		MaxAge:   int(opts.AccessTTL.Seconds()),
	})
}

// ClearBrowserSession expires both session cookies.
func ClearBrowserSession(ctx *fiber.Ctx) {
	for _, name := range []string{BrowserSessionTokenName, BrowserAccessTokenName} {
		ctx.Cookie(&fiber.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			Expires: time.Unix(0, 0),
			MaxAge:  -1,
		})
	}
}
