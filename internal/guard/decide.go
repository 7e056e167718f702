package guard

type Kind string

const (
	KindWait     Kind = "wait"
	KindAllow    Kind = "allow"
	KindRedirect Kind = "redirect"
)

// Input is everything a navigation decision depends on.
type Input struct {
	Loading         bool
	Identity        bool
	Verified        bool
	ProfileComplete bool
	RequestedPath   string
}

type Decision struct {
	Kind     Kind   `json:"kind"`
	Location string `json:"location,omitempty"`
	From     string `json:"from,omitempty"`
}

func Allow() Decision { return Decision{Kind: KindAllow} }

func Wait() Decision { return Decision{Kind: KindWait} }

func Redirect(location, from string) Decision {
	return Decision{Kind: KindRedirect, Location: location, From: from}
}

// DecideRoute applies the gates in order: loading, signed in, verified, profile
// complete. The first failing gate wins. Public paths are always allowed.
func DecideRoute(in Input) Decision {
	if !IsGated(in.RequestedPath) {
		return Allow()
	}

	switch {
	case in.Loading:
		return Wait()
	case !in.Identity:
		return Redirect(LoginPath, in.RequestedPath)
	case !in.Verified:
		return Redirect(VerifyEmailPath, in.RequestedPath)
	case !in.ProfileComplete && !underPath(in.RequestedPath, ProfilePath):
		return Redirect(ProfilePath, "")
	}
	return Allow()
}
