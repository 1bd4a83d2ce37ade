package wallet

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/internal/ledger"
)

// Terminal wait failures. Kept distinct so callers can offer "still waiting,
// check again" for a timeout versus "you declined" for a rejection.
var (
	ErrTimeout  = errors.New("payload wait timed out")
	ErrRejected = errors.New("payload was rejected by the user")
)

// Wait windows per payload kind, and the default poll cadence.
const (
	SignInWaitWindow      = 2 * time.Minute
	TransactionWaitWindow = 5 * time.Minute
	DefaultPollInterval   = 2 * time.Second
)

// Broker is the signing service surface the waiter consumes.
type Broker interface {
	CreatePayload(ctx context.Context, tx *ledger.TxDescriptor) (*PayloadReference, error)
	GetPayload(ctx context.Context, id string) (*Resolution, error)
	Subscribe(ctx context.Context, ref *PayloadReference, onEvent func(Resolution)) error
}

var _ Broker = (*Client)(nil)

// PollOptions tune a poll-mode wait.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
}

// Waiter blocks callers until a payload reaches a terminal state, unifying
// the push and poll paths into one awaitable result.
type Waiter struct {
	broker Broker
	clock  clock.Clock
}

// NewWaiter creates a waiter over the given broker.
func NewWaiter(broker Broker) *Waiter {
	return &Waiter{broker: broker, clock: clock.New()}
}

// NewWaiterWithClock creates a waiter with an injected clock, for tests.
func NewWaiterWithClock(broker Broker, clk clock.Clock) *Waiter {
	return &Waiter{broker: broker, clock: clk}
}

// AwaitPush resolves on the first terminal push event, racing the
// subscription against a timer for the given window. Whichever settles
// first wins; the loser's effect is discarded.
func (w *Waiter) AwaitPush(ctx context.Context, ref *PayloadReference, window time.Duration) (*Resolution, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gate := newOneShot()
	go func() {
		err := w.broker.Subscribe(ctx, ref, func(resolution Resolution) {
			if err := resolution.Validate(); err != nil {
				gate.settle(nil, err)
				return
			}
			w.settleTerminal(gate, resolution, ref.ID)
		})
		if err != nil && ctx.Err() == nil {
			gate.settle(nil, err)
		}
	}()

	timer := w.clock.Timer(window)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C:
			if gate.settle(nil, errors.Wrapf(ErrTimeout, "no terminal event within %s for payload<%s>", window, ref.ID)) {
				logrus.Debugf("payload<%s> push wait timed out", ref.ID)
			}
		case <-gate.done:
		}
	}()

	return gate.await(ctx)
}

// AwaitPoll polls the payload status on a fixed cadence up to MaxAttempts.
// The first resolved reply settles the wait; a rejection settles it
// immediately without consuming remaining attempts.
func (w *Waiter) AwaitPoll(ctx context.Context, ref *PayloadReference, opts PollOptions) (*Resolution, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		return nil, errors.New("poll wait requires at least one attempt")
	}

	ticker := w.clock.Ticker(opts.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		resolution, err := w.broker.GetPayload(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if resolution != nil && resolution.Resolved {
			if err = resolution.Validate(); err != nil {
				return nil, err
			}
			if !*resolution.Signed {
				return nil, errors.Wrapf(ErrRejected, "payload<%s>", ref.ID)
			}
			return resolution, nil
		}
		if resolution != nil {
			if err = resolution.Validate(); err != nil {
				return nil, err
			}
		}

		if attempt >= opts.MaxAttempts {
			return nil, errors.Wrapf(ErrTimeout, "payload<%s> unresolved after %d poll attempts", ref.ID, attempt)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// settleTerminal maps a terminal resolution onto the gate: a signed payload
// settles successfully, a declined one settles with ErrRejected.
func (w *Waiter) settleTerminal(gate *oneShot, resolution Resolution, id string) {
	if !resolution.Terminal() {
		return
	}
	if *resolution.Signed {
		gate.settle(&resolution, nil)
		return
	}
	gate.settle(nil, errors.Wrapf(ErrRejected, "payload<%s>", id))
}
