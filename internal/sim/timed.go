package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/des"
	"github.com/abhisek/motivsim/internal/schedule"
	"github.com/abhisek/motivsim/internal/store"
)

// errSessionEnd is the interrupt cause delivered to a studying learner when
// the class session ends.
var errSessionEnd = errors.New("session ended")

// runTimed runs every learner as a process on one simulated clock. Processes
// take turns, so the learners, the attendance map and the sink calls below
// are only ever touched by one goroutine at a time.
func (r *Runner) runTimed(ctx context.Context, runs []*learnerRun) error {
	env := des.NewEnv(r.cfg.Start)
	attendance := make(map[string][]string)

	procs := make([]*des.Proc, len(runs))
	for i, lr := range runs {
		r.metrics.LearnerStarted()
		procs[i] = env.Process(lr.learner.ID, func(p *des.Proc) error {
			return r.timedLearner(ctx, p, lr, attendance)
		})
	}

	runErr := env.Run(ctx, r.cfg.Until)

	for i, lr := range runs {
		err := procs[i].Err()
		if !procs[i].Finished() || errors.Is(err, des.ErrKilled) {
			err = errStopped
		}
		if ferr := lr.buf.Flush(ctx); ferr != nil {
			err = errors.Join(err, ferr)
		}
		lr.finish(err)
	}

	var sessions []store.ClassSessionData
	for _, s := range r.cfg.Schedule.All() {
		if ids, ok := attendance[s.ID]; ok {
			sessions = append(sessions, store.ClassSessionData{ID: s.ID, Start: s.Start, End: s.End, StudentIDs: ids})
		}
	}
	if err := r.sink.AppendSessions(ctx, sessions); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("persist sessions: %w", err))
	}
	return runErr
}

// timedLearner attends sessions until the tutor is done or the schedule
// runs out. In each session the learner logs in, then studies in a child
// process that races the session's end; whichever finishes first wins and
// the loser is stopped before it can touch the tutor again.
func (r *Runner) timedLearner(ctx context.Context, p *des.Proc, lr *learnerRun, attendance map[string][]string) error {
	env := p.Env()
	from := env.Now()
	for lr.tutor.HasMore() {
		sess, ok := r.cfg.Schedule.Next(from)
		if !ok {
			return errStopped
		}
		// A learner who stops early sits out the rest of the session.
		from = sess.End
		if sess.Start.After(env.Now()) {
			if _, err := p.Wait(env.TimeoutAt(sess.Start)); err != nil {
				return err
			}
		}

		attendance[sess.ID] = append(attendance[sess.ID], lr.learner.ID)
		if err := lr.logTransaction(ctx, lr.tutor.Login(sess.ID, env.Now()), sess.ID); err != nil {
			return err
		}

		study := env.Process(lr.learner.ID+"/study", func(sp *des.Proc) error {
			return r.study(ctx, sp, lr, sess)
		})
		end := env.TimeoutAt(sess.End)
		fired, err := p.Wait(study.Done, end)
		if err != nil {
			return err
		}
		if fired == end && !study.Finished() {
			study.Interrupt(errSessionEnd)
			if _, err := p.Wait(study.Done); err != nil {
				return err
			}
		}
		if err := study.Err(); err != nil {
			return err
		}

		if err := lr.logTransaction(ctx, lr.tutor.Logout(sess.ID, env.Now()), sess.ID); err != nil {
			return err
		}
	}
	return nil
}

// study works through turns until the tutor is done, the learner chooses
// to stop, or the session-end interrupt arrives. An action is applied to the
// tutor only once its full duration has elapsed.
func (r *Runner) study(ctx context.Context, p *des.Proc, lr *learnerRun, sess schedule.Session) error {
	env := p.Env()
	delay := lr.learner.StartWorking(sess.End.Sub(env.Now()))
	if err := p.Sleep(delay); err != nil {
		return ignoreInterrupt(err)
	}

	end := sess.End
	for lr.tutor.HasMore() {
		started := env.Now()
		a, err := lr.decide(ctx, started, &end)
		if err != nil {
			return err
		}
		if a.Kind == action.StopWork {
			lr.log.Debug("learner stopped working", "session_id", sess.ID)
			return nil
		}
		if err := p.Sleep(a.Duration); err != nil {
			if !isInterrupt(err) {
				return err
			}
			return lr.interrupted(ctx, a, started, env.Now(), sess.ID)
		}
		if err := lr.apply(ctx, a, env.Now(), sess.ID); err != nil {
			return err
		}
	}
	return nil
}

func isInterrupt(err error) bool {
	var in *des.Interrupt
	return errors.As(err, &in)
}

func ignoreInterrupt(err error) error {
	if isInterrupt(err) {
		return nil
	}
	return err
}
