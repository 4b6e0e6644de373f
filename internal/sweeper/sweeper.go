// Package sweeper periodically applies the lazy timer-expiry check to
// in-flight quest progress. Timer customizations are evaluated when
// progress is updated; the sweeper covers players who stop sending
// events before a fail-enabled timer runs out.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/everthorn/thorny/internal/progress"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Sweeper runs timer-expiry sweeps on a cron schedule.
type Sweeper struct {
	db     *gorm.DB
	sched  cron.Schedule
	logger *zap.Logger
}

// Opts holds parameters for creating a Sweeper.
type Opts struct {
	DB       *gorm.DB
	Schedule string // 5-field cron expression
	Logger   *zap.Logger
}

// New creates a Sweeper with a parsed schedule.
func New(opts Opts) (*Sweeper, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("sweeper: db is required")
	}
	sched, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("sweeper: parse schedule %q: %w", opts.Schedule, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{db: opts.DB, sched: sched, logger: logger}, nil
}

// Run blocks, sweeping on schedule until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	for {
		next := s.sched.Next(time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}
		failed, err := s.Sweep()
		if err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
			continue
		}
		if failed > 0 {
			s.logger.Info("sweep expired quests", zap.Int("failed", failed))
		}
	}
}

// Sweep runs one pass: every active progress instance whose active
// objective carries a fail-enabled timer gets a timeout check. Returns
// how many quests were failed.
func (s *Sweeper) Sweep() (int, error) {
	ids, err := progress.ListExpirable(s.db)
	if err != nil {
		return 0, err
	}
	failed := 0
	for _, id := range ids {
		didFail, err := progress.CheckTimeout(s.db, id)
		if err != nil {
			s.logger.Warn("timeout check failed",
				zap.Uint("progress_id", id),
				zap.Error(err),
			)
			continue
		}
		if didFail {
			failed++
		}
	}
	return failed, nil
}
