// Package relay posts quest and progress events to chat platforms through
// pluggable adapters.
package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Event kinds announced to chat.
const (
	KindQuestAccepted      = "quest_accepted"
	KindObjectiveCompleted = "objective_completed"
	KindQuestCompleted     = "quest_completed"
	KindQuestFailed        = "quest_failed"
	KindProjectStatus      = "project_status"
)

// Event is one announcement for the chat relay.
type Event struct {
	Kind      string
	Username  string
	QuestName string
	Detail    string
}

// Message renders the event as a single chat line.
func (e Event) Message() string {
	switch e.Kind {
	case KindQuestAccepted:
		return fmt.Sprintf("**%s** accepted the quest *%s*", e.Username, e.QuestName)
	case KindObjectiveCompleted:
		return fmt.Sprintf("**%s** completed an objective of *%s*: %s", e.Username, e.QuestName, e.Detail)
	case KindQuestCompleted:
		return fmt.Sprintf("**%s** completed the quest *%s*!", e.Username, e.QuestName)
	case KindQuestFailed:
		return fmt.Sprintf("**%s** failed the quest *%s* (%s)", e.Username, e.QuestName, e.Detail)
	case KindProjectStatus:
		return fmt.Sprintf("Project *%s* is now %s", e.QuestName, e.Detail)
	}
	return e.Detail
}

// Adapter posts a rendered event to one chat platform.
type Adapter interface {
	Post(ctx context.Context, evt Event) error
}

// Router fans events out to every configured adapter. Adapter failures
// are logged, never propagated; the relay must not fail game operations.
type Router struct {
	adapters []Adapter
	logger   *zap.Logger
}

// NewRouter creates a Router. A nil logger disables logging.
func NewRouter(logger *zap.Logger, adapters ...Adapter) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{adapters: adapters, logger: logger}
}

// Announce posts the event to all adapters. Safe to call on a nil Router.
func (r *Router) Announce(ctx context.Context, evt Event) {
	if r == nil {
		return
	}
	for _, a := range r.adapters {
		if err := a.Post(ctx, evt); err != nil {
			r.logger.Warn("relay post failed",
				zap.String("kind", evt.Kind),
				zap.Error(err),
			)
		}
	}
}
