package vizkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/vizkit/internal/logging"
	"github.com/aretw0/vizkit/pkg/codec"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/observability"
	"github.com/aretw0/vizkit/pkg/poll"
	"github.com/aretw0/vizkit/pkg/ports"
	"github.com/aretw0/vizkit/pkg/proxy"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
)

// Version of the vizkit module.
var Version = "0.4.0"

// Inspector serializes shell access to a poll loop and the trees it feeds.
// All methods are safe for concurrent use.
type Inspector struct {
	mu sync.Mutex

	registry ports.TaskRegistry
	codec    ports.Codec
	policy   *proxy.Policy
	logger   *slog.Logger
	hooks    poll.Hooks
	metrics  *observability.Metrics
	interval time.Duration

	loop  *poll.Loop
	tasks map[string]*proxy.Task
	kinds map[string]string
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithCodec sets the codec shared by all proxies.
func WithCodec(c ports.Codec) Option {
	return func(i *Inspector) {
		i.codec = c
	}
}

// WithPolicy sets the policy registry shared by all proxies.
func WithPolicy(p *proxy.Policy) Option {
	return func(i *Inspector) {
		i.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// WithHooks registers poll loop hooks.
func WithHooks(hooks poll.Hooks) Option {
	return func(i *Inspector) {
		i.hooks = hooks
	}
}

// WithMetrics records loop activity in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Inspector) {
		i.metrics = m
	}
}

// WithInterval sets the default polling period of watches.
func WithInterval(d time.Duration) Option {
	return func(i *Inspector) {
		i.interval = d
	}
}

// New creates an inspector resolving tasks through registry.
func New(registry ports.TaskRegistry, opts ...Option) *Inspector {
	i := &Inspector{
		registry: registry,
		policy:   proxy.DefaultPolicy,
		logger:   logging.NewNop(),
		interval: poll.DefaultInterval,
		tasks:    make(map[string]*proxy.Task),
		kinds:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.codec == nil {
		i.codec = codec.New(nil)
	}

	hooks := []poll.Hooks{observability.LogHooks(i.logger)}
	if i.metrics != nil {
		hooks = append(hooks, i.metrics.Hooks())
	}
	hooks = append(hooks, i.hooks)
	i.loop = poll.New(
		poll.WithLogger(i.logger),
		poll.WithHooks(observability.Chain(hooks...)),
		poll.WithDefaultInterval(i.interval),
	)
	return i
}

// Task returns the shared proxy of a task.
func (i *Inspector) Task(name string) *proxy.Task {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.task(name)
}

func (i *Inspector) task(name string) *proxy.Task {
	if t, ok := i.tasks[name]; ok {
		return t
	}
	t := proxy.NewTask(name, i.registry,
		proxy.WithCodec(i.codec),
		proxy.WithPolicy(i.policy),
		proxy.WithLogger(i.logger),
	)
	i.tasks[name] = t
	return t
}

// Watch describes a port to show as a tree.
type Watch struct {
	// Name of the tree. Defaults to "<task>.<port>".
	Name string
	Task string
	Port string
	// WriterPort receives edits. Defaults to Port.
	WriterPort string
	// ReadOnly disables edits.
	ReadOnly bool
	Interval time.Duration
}

// Watch starts showing a port.
func (i *Inspector) Watch(w Watch) error {
	if w.Task == "" || w.Port == "" {
		return fmt.Errorf("watch needs a task and a port")
	}
	if w.Name == "" {
		w.Name = w.Task + "." + w.Port
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	t := i.task(w.Task)
	var writer *proxy.Writer
	if !w.ReadOnly {
		wp := w.WriterPort
		if wp == "" {
			wp = w.Port
		}
		writer = t.Port(wp).Writer()
	}
	src := poll.NewPortSource(t.Port(w.Port).Reader(), writer)
	if _, err := i.loop.Register(w.Name, src, poll.Every(w.Interval)); err != nil {
		return err
	}
	i.kinds[w.Name] = "port"
	return nil
}

// WatchTask starts showing a whole task: its state, properties and ports.
func (i *Inspector) WatchTask(name, task string, every time.Duration) error {
	if name == "" {
		name = task
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, err := i.loop.Register(name, poll.NewTaskSource(i.task(task)), poll.Every(every)); err != nil {
		return err
	}
	i.kinds[name] = "task"
	return nil
}

// Unwatch stops showing a tree.
func (i *Inspector) Unwatch(name string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.kinds, name)
	return i.loop.Unregister(name)
}

// TreeSummary describes one watched tree.
type TreeSummary struct {
	Name     string        `json:"name"`
	Kind     string        `json:"kind"`
	Nodes    int           `json:"nodes"`
	Dirty    int           `json:"dirty"`
	Interval time.Duration `json:"interval"`
}

// Trees lists the watched trees, sorted by name.
func (i *Inspector) Trees() []TreeSummary {
	i.mu.Lock()
	defer i.mu.Unlock()
	regs := i.loop.Registrations()
	out := make([]TreeSummary, 0, len(regs))
	for _, r := range regs {
		out = append(out, TreeSummary{
			Name:     r.Name(),
			Kind:     i.kinds[r.Name()],
			Nodes:    r.Model().Len(),
			Dirty:    len(r.Model().DirtyNodes()),
			Interval: r.Interval(),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Tree snapshots a watched tree. It fails with domain.ErrNotFound for unknown
// names and domain.ErrUnavailable before the first sample.
func (i *Inspector) Tree(name string) (tree.NodeView, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	r, ok := i.loop.Registration(name)
	if !ok {
		return tree.NodeView{}, fmt.Errorf("tree %q: %w", name, domain.ErrNotFound)
	}
	view, ok := r.Model().View()
	if !ok {
		return tree.NodeView{}, fmt.Errorf("tree %q: %w: no sample yet", name, domain.ErrUnavailable)
	}
	return view, nil
}

// Edit sets a pending value on the scalar at path. input is converted to the
// node's primitive type, so strings typed by an operator are accepted.
func (i *Inspector) Edit(name string, path value.Path, input any) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	r, ok := i.loop.Registration(name)
	if !ok {
		return fmt.Errorf("tree %q: %w", name, domain.ErrNotFound)
	}
	n, ok := r.Model().Find(path)
	if !ok {
		return fmt.Errorf("tree %q: node %q: %w", name, path.String(), domain.ErrNotFound)
	}
	if !n.IsLeaf() {
		return fmt.Errorf("tree %q: node %q: %w", name, path.String(), domain.ErrNotEditable)
	}
	if text, ok := input.(string); ok {
		clean, err := value.Sanitize(text)
		if err != nil {
			return fmt.Errorf("tree %q: node %q: %w", name, path.String(), err)
		}
		input = clean
	}
	v, err := value.Coerce(n.Value(), input)
	if err != nil {
		return fmt.Errorf("tree %q: node %q: %w", name, path.String(), err)
	}
	// Coerce only knows the 64-bit primitive; the codec knows the width.
	if _, err := i.codec.Encode(v); errors.Is(err, value.ErrOutOfRange) {
		return fmt.Errorf("tree %q: node %q: %w", name, path.String(), err)
	}
	return r.Model().Edit(n, v)
}

// SetExpanded records the expansion state of a node.
func (i *Inspector) SetExpanded(name string, path value.Path, expanded bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	r, ok := i.loop.Registration(name)
	if !ok {
		return fmt.Errorf("tree %q: %w", name, domain.ErrNotFound)
	}
	n, ok := r.Model().Find(path)
	if !ok {
		return fmt.Errorf("tree %q: node %q: %w", name, path.String(), domain.ErrNotFound)
	}
	r.Model().SetExpanded(n, expanded)
	return nil
}

// Tick polls every due tree once.
func (i *Inspector) Tick(now time.Time) (poll.Report, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	start := time.Now()
	rep, err := i.loop.Tick(now)
	if i.metrics != nil {
		i.metrics.ObserveTick(time.Since(start))
	}
	return rep, err
}

// Apply writes every pending edit.
func (i *Inspector) Apply() poll.CommitReport {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.loop.OnApply()
}

// Cancel drops every pending edit.
func (i *Inspector) Cancel() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loop.OnCancel()
}

// PendingEdits reports whether any tree holds uncommitted edits.
func (i *Inspector) PendingEdits() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.loop.PendingEdits()
}

// Run ticks every period until ctx is done. Tick errors are logged, not fatal:
// the offending tree keeps its last good state.
func (i *Inspector) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = i.interval
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	if _, err := i.Tick(time.Now()); err != nil {
		i.logger.Error("tick failed", "err", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := i.Tick(now); err != nil {
				i.logger.Error("tick failed", "err", err)
			}
		}
	}
}
