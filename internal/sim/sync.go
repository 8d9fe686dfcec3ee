package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// runSync runs every learner in its own goroutine, at most Workers at once.
// Learner failures are recorded on the learner; only cancellation of ctx
// surfaces as an error.
func (r *Runner) runSync(ctx context.Context, runs []*learnerRun) error {
	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		g.SetLimit(r.cfg.Workers)
	}
	for _, lr := range runs {
		g.Go(func() error {
			r.metrics.LearnerStarted()
			err := r.syncLearner(gctx, lr)
			if ferr := lr.buf.Flush(ctx); ferr != nil {
				err = errors.Join(err, ferr)
			}
			lr.finish(err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// syncLearner is the synchronous control loop: one login, then turns until
// the tutor is done or MaxTurns is reached. Each action is applied as soon
// as it is performed and the learner's clock advances by its duration.
func (r *Runner) syncLearner(ctx context.Context, lr *learnerRun) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("learner panicked: %v\n%s", p, debug.Stack())
		}
	}()

	now := r.cfg.Start
	sessionID := uuid.NewString()
	if err := lr.logTransaction(ctx, lr.tutor.Login(sessionID, now), sessionID); err != nil {
		return err
	}
	lr.log.Debug("learner started", "mode", string(ModeSync))

	for lr.tutor.HasMore() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lr.turns >= r.cfg.MaxTurns {
			err = errStopped
			break
		}
		a, derr := lr.decide(ctx, now, nil)
		if derr != nil {
			return derr
		}
		now = now.Add(a.Duration)
		if aerr := lr.apply(ctx, a, now, sessionID); aerr != nil {
			return aerr
		}
	}

	if lerr := lr.logTransaction(ctx, lr.tutor.Logout(sessionID, now), sessionID); lerr != nil {
		return errors.Join(err, lerr)
	}
	return err
}
