package retry

import (
	"context"
	"time"
)

type Verdict int

const (
	Succeeded Verdict = iota
	Transient
	Permanent
)

// Policy runs an operation up to MaxAttempts times, pausing Delay between
// attempts that end Transient. Nothing is slept after the last attempt.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Result struct {
	Attempts int
	Verdict  Verdict
	Err      error
}

func (r Result) OK() bool {
	return r.Verdict == Succeeded
}

type Op func(ctx context.Context, attempt int) (Verdict, error)

func (p Policy) Run(ctx context.Context, op Op) Result {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var res Result
	for attempt := 1; attempt <= attempts; attempt++ {
		verdict, err := op(ctx, attempt)
		res = Result{Attempts: attempt, Verdict: verdict, Err: err}

		if verdict != Transient || attempt == attempts {
			return res
		}

		if err := sleep(ctx, p.Delay); err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
