package midi

import (
	"context"
	"math"
	"sync"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// Pending is the outcome of an asynchronous load. It delivers zero or more
// progress notifications followed by exactly one terminal result.
type Pending struct {
	logger   contracts.Logger
	progress chan contracts.Progress
	done     chan struct{}

	mu       sync.Mutex
	high     float64
	finished bool
	err      error
}

func newPending(logger contracts.Logger, buffer int) *Pending {
	return &Pending{
		logger:   logger,
		progress: make(chan contracts.Progress, buffer),
		done:     make(chan struct{}),
	}
}

// resolvedPending returns a Pending that is already finished with err.
func resolvedPending(logger contracts.Logger, err error) *Pending {
	p := newPending(logger, 0)
	p.finish(err)
	return p
}

// Progress streams loading notifications. The channel is closed when the
// load finishes. Notifications that do not fit the buffer are dropped.
func (p *Pending) Progress() <-chan contracts.Progress {
	return p.progress
}

// Done is closed once the load finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns nil until Done is closed; afterwards it returns the terminal
// result, nil meaning success.
func (p *Pending) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Wait blocks until the load finishes or ctx is done. Giving up on the wait
// does not cancel the load.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// report publishes an engine notification. Fractions are clamped to [0, 1]
// and never go below the highest value already published.
func (p *Pending) report(stage string, fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	switch {
	case math.IsNaN(fraction):
		fraction = p.high
	case fraction < p.high:
		fraction = p.high
	case fraction > 1:
		fraction = 1
	}
	p.high = fraction

	select {
	case p.progress <- contracts.Progress{Stage: stage, Fraction: fraction}:
	default:
		p.logger.Debug("progress buffer full; dropping notification",
			p.logger.Field().String("stage", stage),
			p.logger.Field().Float64("fraction", fraction))
	}
}

// finish records the terminal result. Only the first call has an effect.
func (p *Pending) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.finished = true
	p.err = err
	close(p.progress)
	close(p.done)
}
