// Package orchestrator drives the full credential acceptance flow end to
// end: server-side issuance, a confirmation grace period, and the user's
// asynchronous accept signature through the signing service.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	credmodel "github.com/ledgerworks/credential-service/internal/credential"
	"github.com/ledgerworks/credential-service/internal/ledger"
	"github.com/ledgerworks/credential-service/pkg/client"
	"github.com/ledgerworks/credential-service/pkg/wallet"
)

// State is the phase an acceptance attempt is in.
type State string

const (
	StateIdle                   State = "idle"
	StateCreating               State = "creating"
	StateWaitingConfirmation    State = "waitingConfirmation"
	StateAwaitingUserAcceptance State = "awaitingUserAcceptance"
	StateDone                   State = "done"
	StateFailed                 State = "failed"
)

// GraceDelay is the floor observed between issuance and the accept hand-off,
// covering ledger propagation latency. When the ledger query is available the
// orchestrator additionally polls until the credential is visible.
const GraceDelay = 5 * time.Second

const (
	defaultVisibilityTimeout  = 30 * time.Second
	defaultVisibilityInterval = time.Second
)

// ErrAttemptInFlight is returned when Start is called on an orchestrator
// already driving an attempt. One orchestrator drives exactly one attempt;
// callers serialize per-subject attempts themselves.
var ErrAttemptInFlight = errors.New("acceptance attempt already in flight")

// Transition is reported to the observer on every state change. Failures
// carry a reason; the hand-off to the user's wallet carries the payload
// reference with its QR code and deep link.
type Transition struct {
	State   State
	Reason  string
	Payload *wallet.PayloadReference
}

// Observer receives state transitions, e.g. to render step-by-step progress.
type Observer func(Transition)

// API is the slice of the credential service the orchestrator consumes.
type API interface {
	GetIssuer(ctx context.Context) (string, error)
	IssueCredential(ctx context.Context, request client.IssueCredentialRequest) (*client.Issuance, error)
}

// Visibility checks whether an issued credential is readable on ledger yet.
type Visibility interface {
	CredentialVisible(ctx context.Context, address, credentialType, issuer string) (bool, error)
}

// Result is the outcome of a completed acceptance flow.
type Result struct {
	Issuer     string
	Issuance   *client.Issuance
	Resolution *wallet.Resolution
}

// Orchestrator runs one acceptance attempt for one subject and credential
// type. Construct a fresh orchestrator per attempt.
type Orchestrator struct {
	api      API
	broker   wallet.Broker
	waiter   *wallet.Waiter
	ledger   Visibility
	observer Observer
	clock    clock.Clock

	visibilityTimeout  time.Duration
	visibilityInterval time.Duration

	mu    sync.Mutex
	state State
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers the transition observer.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithLedger enables poll-until-visible between issuance and the accept
// hand-off. Without it only the grace delay is observed.
func WithLedger(ledger Visibility) Option {
	return func(o *Orchestrator) {
		o.ledger = ledger
	}
}

// WithVisibilityWindow bounds the poll-until-visible phase.
func WithVisibilityWindow(timeout, interval time.Duration) Option {
	return func(o *Orchestrator) {
		o.visibilityTimeout = timeout
		o.visibilityInterval = interval
	}
}

// WithClock swaps the time source, e.g. for tests.
func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clk
	}
}

// New creates an orchestrator over the given service API and signing broker.
func New(apiClient API, broker wallet.Broker, opts ...Option) (*Orchestrator, error) {
	if apiClient == nil {
		return nil, errors.New("api client is required")
	}
	if broker == nil {
		return nil, errors.New("signing broker is required")
	}
	o := &Orchestrator{
		api:                apiClient,
		broker:             broker,
		clock:              clock.New(),
		state:              StateIdle,
		visibilityTimeout:  defaultVisibilityTimeout,
		visibilityInterval: defaultVisibilityInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.waiter = wallet.NewWaiterWithClock(broker, o.clock)
	return o, nil
}

// State returns the current phase of the attempt.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start runs the flow to a terminal state: issue the credential to the
// subject, wait out ledger propagation, then hand the accept transaction to
// the user's wallet and block until they sign, reject, or the wait times
// out. The issue step strictly precedes the accept step.
func (o *Orchestrator) Start(ctx context.Context, subject, credentialType string, metadata *credmodel.Metadata) (*Result, error) {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return nil, errors.Wrapf(ErrAttemptInFlight, "state: %s", o.state)
	}
	o.state = StateCreating
	o.mu.Unlock()
	o.notify(Transition{State: StateCreating})

	issuer, err := o.api.GetIssuer(ctx)
	if err != nil {
		return nil, o.fail(errors.Wrap(err, "resolving issuer"))
	}

	issuance, err := o.api.IssueCredential(ctx, client.IssueCredentialRequest{
		Subject:        subject,
		CredentialType: credentialType,
		Metadata:       metadata,
	})
	if err != nil {
		return nil, o.fail(errors.Wrap(err, "issuing credential"))
	}

	o.transition(Transition{State: StateWaitingConfirmation})
	o.waitForVisibility(ctx, subject, credentialType, issuer)

	acceptTx, err := ledger.BuildAccept(subject, issuer, credentialType)
	if err != nil {
		return nil, o.fail(errors.Wrap(err, "building accept transaction"))
	}
	reference, err := o.broker.CreatePayload(ctx, acceptTx)
	if err != nil {
		return nil, o.fail(errors.Wrap(err, "submitting accept payload"))
	}
	o.transition(Transition{State: StateAwaitingUserAcceptance, Payload: reference})

	resolution, err := o.waiter.AwaitPush(ctx, reference, wallet.TransactionWaitWindow)
	if err != nil {
		return nil, o.fail(err)
	}

	o.transition(Transition{State: StateDone})
	return &Result{Issuer: issuer, Issuance: issuance, Resolution: resolution}, nil
}

// waitForVisibility observes the grace floor and, when a ledger query is
// wired, additionally polls until the freshly issued credential shows up in
// the subject's account objects. Query errors fall back to the plain delay.
func (o *Orchestrator) waitForVisibility(ctx context.Context, subject, credentialType, issuer string) {
	start := o.clock.Now()

	if o.ledger != nil {
		deadline := start.Add(o.visibilityTimeout)
		for {
			visible, err := o.ledger.CredentialVisible(ctx, subject, credentialType, issuer)
			if err != nil {
				logrus.WithError(err).Warn("visibility query failed, falling back to the grace delay")
				break
			}
			if visible {
				break
			}
			if !o.clock.Now().Add(o.visibilityInterval).Before(deadline) {
				logrus.Warn("credential not visible before the deadline, proceeding anyway")
				break
			}
			if !o.sleep(ctx, o.visibilityInterval) {
				return
			}
		}
	}

	// hold the floor so a fast (or absent) query never shortcuts propagation
	if remaining := GraceDelay - o.clock.Since(start); remaining > 0 {
		o.sleep(ctx, remaining)
	}
}

// sleep blocks for d on the orchestrator clock, returning false when the
// context ended first.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	timer := o.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) transition(t Transition) {
	o.mu.Lock()
	o.state = t.State
	o.mu.Unlock()
	o.notify(t)
}

func (o *Orchestrator) fail(err error) error {
	o.transition(Transition{State: StateFailed, Reason: err.Error()})
	return err
}

func (o *Orchestrator) notify(t Transition) {
	if o.observer != nil {
		o.observer(t)
	}
}
