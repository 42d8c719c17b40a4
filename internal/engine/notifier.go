package engine

import (
    "context"

    "github.com/rs/zerolog"
)

// Notifier is the fire-and-forget fan-out the engine publishes state
// changes through after a unit of work has durably committed.
// Implementations must never feed back into the transaction outcome:
// the engine logs and swallows publish errors, so delivery is
// best-effort.
type Notifier interface {
    Publish(ctx context.Context, topic string, payload any) error
}

// notify publishes one event and swallows any failure.  A nil
// notifier disables fan-out entirely, which keeps tests and one-off
// tooling free of broker wiring.
func notify(ctx context.Context, n Notifier, logger zerolog.Logger, topic string, payload any) {
    if n == nil {
        return
    }
    if err := n.Publish(ctx, topic, payload); err != nil {
        logger.Warn().Err(err).Str("topic", topic).Msg("event publish failed")
    }
}
