package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"astrocyber/internal/origin"
)

// Asker answers a seeker's query. *oracle.Client implements it.
type Asker interface {
	Ask(ctx context.Context, query string, rec origin.Record) (string, error)
}

// Controller owns one session. Events are applied one at a time under a
// mutex, so ask completions append to the transcript in the order they
// finish.
type Controller struct {
	asker     Asker
	logger    *zap.Logger
	ctx       context.Context
	notify    func()
	afterFunc func(time.Duration, func())

	mu    sync.Mutex
	state State

	asks sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithNotify registers fn to run after every state change. It is called
// without the controller lock held.
func WithNotify(fn func()) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithContext sets the context asks run under. Asks are never cancelled
// by the controller itself.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// WithAfterFunc replaces time.AfterFunc for scheduling the key flag
// clear. fn must not call f before returning.
func WithAfterFunc(fn func(time.Duration, func())) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// NewController starts a session on the terminal screen.
func NewController(asker Asker, opts ...Option) *Controller {
	c := &Controller{
		asker:  asker,
		logger: zap.NewNop(),
		ctx:    context.Background(),
		notify: func() {},
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		state: New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("session", uuid.NewString()))
	return c
}

// SubmitCommand processes a line typed at the terminal prompt.
func (c *Controller) SubmitCommand(raw string) error {
	return c.dispatch(CommandSubmitted{Raw: raw})
}

// SubmitLoginForm captures the origin record and moves to the key
// challenge. Invalid fields leave the session on the login screen.
func (c *Controller) SubmitLoginForm(name, dob, clock, place string) error {
	return c.dispatch(LoginSubmitted{Name: name, DOB: dob, Time: clock, Place: place})
}

// SubmitKeyChallenge checks candidate against the derived key.
func (c *Controller) SubmitKeyChallenge(candidate string) error {
	return c.dispatch(KeySubmitted{Candidate: candidate})
}

// SetPendingInput records text typed but not yet submitted.
func (c *Controller) SetPendingInput(text string) {
	_ = c.dispatch(InputChanged{Text: text})
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Wait blocks until every issued ask has completed.
func (c *Controller) Wait() {
	c.asks.Wait()
}

func (c *Controller) dispatch(ev Event) error {
	c.mu.Lock()
	prev := c.state.Screen
	next, effects, err := Apply(c.state, ev)
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("event rejected", zap.String("event", eventName(ev)), zap.Error(err))
		return err
	}
	c.state = next
	// Effects are started under the lock so a completion can never be
	// applied before the event that issued it.
	for _, eff := range effects {
		c.run(eff)
	}
	c.mu.Unlock()

	if next.Screen != prev {
		c.logger.Debug("screen changed", zap.Stringer("from", prev), zap.Stringer("to", next.Screen))
	}
	c.notify()
	return nil
}

func (c *Controller) run(eff Effect) {
	switch eff := eff.(type) {
	case IssueAsk:
		c.asks.Add(1)
		c.logger.Info("ask dispatched", zap.Uint64("ask", eff.ID), zap.Int("query_len", len(eff.Query)))
		go func() {
			defer c.asks.Done()
			reply, err := c.asker.Ask(c.ctx, eff.Query, eff.Origin)
			if err != nil {
				c.logger.Warn("ask failed", zap.Uint64("ask", eff.ID), zap.Error(err))
			} else {
				c.logger.Info("ask completed", zap.Uint64("ask", eff.ID))
			}
			_ = c.dispatch(AskCompleted{ID: eff.ID, Reply: reply, Err: err})
		}()
	case ScheduleKeyFlagClear:
		c.afterFunc(eff.After, func() {
			_ = c.dispatch(KeyFlagExpired{Gen: eff.Gen})
		})
	}
}

func eventName(ev Event) string {
	switch ev.(type) {
	case CommandSubmitted:
		return "command"
	case LoginSubmitted:
		return "login"
	case KeySubmitted:
		return "key"
	case AskCompleted:
		return "ask_completed"
	case KeyFlagExpired:
		return "key_flag_expired"
	case InputChanged:
		return "input"
	default:
		return "unknown"
	}
}
