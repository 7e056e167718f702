package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/appstate"
	"github.com/abisalde/student-portal/internal/auth"
	"github.com/abisalde/student-portal/pkg/logger"
)

type VerificationSyncer interface {
	SyncVerification(ctx context.Context, uid string) appstate.Snapshot
}

// Guard gathers the inputs of DecideRoute for a caller.
type Guard struct {
	state   *appstate.Store
	syncer  VerificationSyncer
	checker *CompletenessChecker
}

func New(state *appstate.Store, syncer VerificationSyncer, checker *CompletenessChecker) *Guard {
	return &Guard{state: state, syncer: syncer, checker: checker}
}

// Evaluate decides navigation to path. With block set it waits for the
// completeness fetch; otherwise a missing answer is reported as Wait while the
// fetch runs in the background.
func (g *Guard) Evaluate(ctx context.Context, user *auth.CurrentUser, path string, block bool) Decision {
	in := Input{RequestedPath: path}
	if user == nil || !IsGated(path) {
		return DecideRoute(in)
	}
	in.Identity = true

	snap := g.state.Get(user.ID)
	if snap.Status == appstate.StatusUnauthenticated {
		// first sight of this identity since start up
		snap = g.syncer.SyncVerification(ctx, user.ID)
	}
	in.Verified = snap.Verified
	in.Loading = snap.Status == appstate.StatusLoading

	if in.Loading || !in.Verified {
		return DecideRoute(in)
	}

	if block {
		complete, err := g.checker.Check(ctx, user.ID)
		if err != nil {
			logger.Error("profile completeness check failed", zap.String("uid", user.ID), zap.Error(err))
			in.Loading = true
		}
		in.ProfileComplete = complete
		return DecideRoute(in)
	}

	complete, ok := g.checker.Cached(user.ID)
	if !ok || g.checker.InFlight(user.ID) {
		g.checker.Prefetch(user.ID)
		in.Loading = true
	}
	in.ProfileComplete = complete
	return DecideRoute(in)
}
