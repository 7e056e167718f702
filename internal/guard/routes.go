package guard

import "strings"

type Route struct {
	Path  string `json:"path"`
	Gated bool   `json:"gated"`
}

// Routes lists every navigable portal path.
var Routes = []Route{
	{Path: "/"},
	{Path: "/about"},
	{Path: "/contact"},
	{Path: "/login"},
	{Path: "/signup"},
	{Path: "/forgot-password"},
	{Path: "/verify-email"},
	{Path: "/hack"},
	{Path: "/code"},
	{Path: "/booking", Gated: true},
	{Path: "/appointments", Gated: true},
	{Path: "/profile", Gated: true},
	{Path: "/sessions"},
	{Path: "/aptitude", Gated: true},
	{Path: "/handouts", Gated: true},
	{Path: "/manage-sessions"},
	{Path: "/manage-mentors"},
	{Path: "/mentorship"},
}

const (
	LoginPath       = "/login"
	VerifyEmailPath = "/verify-email"
	ProfilePath     = "/profile"
)

// IsGated reports whether path is, or lies under, a gated route.
// Unknown paths are public.
func IsGated(path string) bool {
	for _, r := range Routes {
		if r.Gated && underPath(path, r.Path) {
			return true
		}
	}
	return false
}

func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
