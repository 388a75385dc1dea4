package connection

import (
	"github.com/cenkalti/backoff/v4"
)

// newBackOff builds the reconnect delay sequence: InitialDelay grown by
// Multiplier per call to NextBackOff, capped at MaxDelay, randomized by Jitter.
// It never stops on its own; the attempt budget is enforced by the supervisor.
func newBackOff(cfg ReconnectConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
