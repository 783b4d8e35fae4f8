// Package navigation guards leaving a view while a study session is active.
package navigation

import (
	"context"

	"github.com/dmitrijs2005/gophstudy/internal/client/host"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Sessions ends the active session once the user agreed to leave.
type Sessions interface {
	End(ctx context.Context) error
}

type Guard struct {
	bridge   host.Bridge
	sessions Sessions
	log      logging.Logger

	group singleflight.Group
}

type Option func(*Guard)

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) { g.log = l }
}

// NewGuard returns a guard asking b before a session is abandoned. A nil
// bridge lets every navigation through.
func NewGuard(b host.Bridge, sessions Sessions, opts ...Option) *Guard {
	g := &Guard{bridge: b, sessions: sessions, log: logging.Nop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Navigate runs apply unless an active session exists and the user refuses
// to end it. It reports whether apply ran for this call.
//
// Without an active session apply runs right away. Attempts made while a
// confirmation is pending join it instead of asking again: only the first
// attempt applies its view, and joined attempts report false.
func (g *Guard) Navigate(ctx context.Context, to models.View, apply func()) (bool, error) {
	if g.bridge == nil || !g.bridge.HasActiveSession() {
		apply()
		return true, nil
	}

	leader := false
	v, err, _ := g.group.Do("navigate", func() (any, error) {
		leader = true
		if !g.bridge.HasActiveSession() {
			apply()
			return true, nil
		}

		if !g.bridge.ConfirmNavigation() {
			g.log.Info(ctx, "navigation blocked by active session", "to", string(to))
			return false, nil
		}

		if g.sessions != nil {
			if err := g.sessions.End(ctx); err != nil {
				// the session is already cleared locally
				g.log.Warn(ctx, "end session on navigation failed", "to", string(to), "error", err)
			}
		}
		g.bridge.EndSession()
		apply()
		return true, nil
	})
	if !leader {
		g.log.Debug(ctx, "navigation attempt joined pending confirmation", "to", string(to))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
