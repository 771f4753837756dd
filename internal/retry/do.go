package retry

import (
	"context"

	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Do runs op until it succeeds, fails with an error transient rejects, or
// attempts are spent. Delays between attempts come from backoff and end early
// when ctx does, in which case ctx.Err() is returned. Otherwise the last error
// from op is returned unchanged.
func Do(ctx context.Context, attempts int, transient func(error) bool, backoff pgretry.BackoffStrategy, op func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if backoff == nil {
		backoff = NoBackoff{}
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || attempt == attempts || !transient(err) {
			return err
		}
		if werr := wait(ctx, backoff.NextDelay(attempt-1)); werr != nil {
			return werr
		}
	}
}
