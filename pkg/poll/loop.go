package poll

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/vizkit/internal/logging"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
)

// DefaultInterval is the polling period of registrations without Every.
const DefaultInterval = time.Second

// Hooks are optional callbacks fired by the loop.
type Hooks struct {
	// OnSample fires after a sample was merged.
	OnSample func(name string, changes *tree.Changes)
	// OnMiss fires when a due registration had no sample.
	OnMiss func(name string)
	// OnPendingEdits fires with true on every tick while edits are pending, and
	// once with false when the last one was resolved.
	OnPendingEdits func(pending bool)
	// OnLayout fires on ticks without pending edits.
	OnLayout func()
	// OnCommit fires for every leaf written by OnApply.
	OnCommit func(name string, path value.Path, err error)
}

// Registration pairs a source with the tree it feeds.
type Registration struct {
	name     string
	source   Source
	interval time.Duration
	next     time.Time
	model    *tree.Model
}

func (r *Registration) Name() string            { return r.name }
func (r *Registration) Source() Source          { return r.source }
func (r *Registration) Interval() time.Duration { return r.interval }
func (r *Registration) Model() *tree.Model      { return r.model }

// RegisterOption configures a registration.
type RegisterOption func(*Registration)

// Every sets the polling period of a registration.
func Every(d time.Duration) RegisterOption {
	return func(r *Registration) {
		if d > 0 {
			r.interval = d
		}
	}
}

// Loop polls registrations. It is not safe for concurrent use.
type Loop struct {
	logger          *slog.Logger
	hooks           Hooks
	defaultInterval time.Duration

	regs    map[string]*Registration
	order   []string
	pending bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithHooks sets the callbacks.
func WithHooks(hooks Hooks) Option {
	return func(l *Loop) {
		l.hooks = hooks
	}
}

// WithDefaultInterval sets the period used by registrations without Every.
func WithDefaultInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.defaultInterval = d
		}
	}
}

// New creates an empty loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		logger:          logging.NewNop(),
		defaultInterval: DefaultInterval,
		regs:            make(map[string]*Registration),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register adds a source under a unique name with an empty tree. The first
// Tick after registration polls it.
func (l *Loop) Register(name string, src Source, opts ...RegisterOption) (*Registration, error) {
	if _, exists := l.regs[name]; exists {
		return nil, fmt.Errorf("registration %q already exists", name)
	}
	if src == nil {
		return nil, fmt.Errorf("registration %q: nil source", name)
	}
	r := &Registration{
		name:     name,
		source:   src,
		interval: l.defaultInterval,
		model:    tree.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	l.regs[name] = r
	l.order = append(l.order, name)
	l.logger.Debug("registered source", "name", name, "interval", r.interval)
	return r, nil
}

// Unregister stops polling name and tears its tree down.
func (l *Loop) Unregister(name string) bool {
	r, ok := l.regs[name]
	if !ok {
		return false
	}
	delete(l.regs, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	r.model.Reset()
	l.logger.Debug("unregistered source", "name", name)
	return true
}

// Registration returns a registration by name.
func (l *Loop) Registration(name string) (*Registration, bool) {
	r, ok := l.regs[name]
	return r, ok
}

// Registrations returns the registrations in registration order.
func (l *Loop) Registrations() []*Registration {
	out := make([]*Registration, len(l.order))
	for i, name := range l.order {
		out[i] = l.regs[name]
	}
	return out
}

// Report describes one tick.
type Report struct {
	Sampled      []string
	Missed       []string
	Changes      map[string]*tree.Changes
	PendingEdits bool
}

// Tick polls every due registration once. Only shape errors are returned; the
// other registrations are still polled.
func (l *Loop) Tick(now time.Time) (Report, error) {
	rep := Report{Changes: make(map[string]*tree.Changes)}
	var errs []error
	for _, name := range l.order {
		r := l.regs[name]
		if now.Before(r.next) {
			continue
		}
		r.next = now.Add(r.interval)

		v, ok := r.source.Read()
		if !ok {
			rep.Missed = append(rep.Missed, name)
			if l.hooks.OnMiss != nil {
				l.hooks.OnMiss(name)
			}
			continue
		}
		changes, err := r.model.Sync(v)
		if err != nil {
			l.logger.Error("sample does not fit its tree", "name", name, "err", err)
			errs = append(errs, fmt.Errorf("tick %s: %w", name, err))
			continue
		}
		rep.Sampled = append(rep.Sampled, name)
		rep.Changes[name] = changes
		if l.hooks.OnSample != nil {
			l.hooks.OnSample(name, changes)
		}
	}

	pending := l.PendingEdits()
	switch {
	case pending:
		if l.hooks.OnPendingEdits != nil {
			l.hooks.OnPendingEdits(true)
		}
	default:
		if l.pending && l.hooks.OnPendingEdits != nil {
			l.hooks.OnPendingEdits(false)
		}
		if l.hooks.OnLayout != nil {
			l.hooks.OnLayout()
		}
	}
	l.pending = pending
	rep.PendingEdits = pending
	return rep, errors.Join(errs...)
}

// PendingEdits reports whether any tree has dirty nodes.
func (l *Loop) PendingEdits() bool {
	for _, r := range l.regs {
		if r.model.HasDirty() {
			return true
		}
	}
	return false
}
