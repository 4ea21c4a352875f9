package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/joseph-ayodele/docflow/internal/extract"
)

// RetryConfig controls how many prompts are tried before giving up.
type RetryConfig struct {
	MaxAttempts uint
	Delay       time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 2
	}
	return c
}

// Attempt records the completion that produced a value.
type Attempt struct {
	Number int
	Raw    string
}

// CompleteAndParse sends prompts in order until parse accepts an answer.
//
// Attempt n uses prompts[n], repeating the last prompt once the list is
// exhausted. Only extraction failures are retried; a transport error from the
// completer ends the loop at once.
func CompleteAndParse[T any](
	ctx context.Context,
	c Completer,
	prompts []Prompt,
	parse func(raw string) (T, error),
	cfg RetryConfig,
	logger *slog.Logger,
) (T, Attempt, error) {
	var zero T
	if len(prompts) == 0 {
		return zero, Attempt{}, errors.New("llm: no prompts")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	var last Attempt
	n := 0
	v, err := retry.DoWithData(
		func() (T, error) {
			p := prompts[min(n, len(prompts)-1)]
			n++
			raw, err := c.Complete(ctx, p)
			if err != nil {
				return zero, err
			}
			last = Attempt{Number: n, Raw: raw}
			return parse(raw)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.MaxAttempts),
		retry.Delay(cfg.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(extract.IsRecoverable),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("llm.parse.retry",
				"attempt", attempt+1,
				"kind", extract.KindOf(err),
				"error", err,
			)
		}),
	)
	if err != nil {
		return zero, last, err
	}
	return v, last, nil
}
