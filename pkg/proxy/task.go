package proxy

import (
	"log/slog"
	"sync"

	"github.com/aretw0/vizkit/internal/logging"
	"github.com/aretw0/vizkit/pkg/codec"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
)

// Task is a proxy for a named task.
type Task struct {
	name       string
	registry   ports.TaskRegistry
	provenance domain.Provenance
	codec      ports.Codec
	policy     *Policy
	logger     *slog.Logger

	mu    sync.Mutex
	ports map[string]*Port
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithProvenance restricts which implementations the proxy binds to.
func WithProvenance(p domain.Provenance) TaskOption {
	return func(t *Task) {
		t.provenance = p
	}
}

// WithCodec sets the codec used to decode samples and encode writes.
func WithCodec(c ports.Codec) TaskOption {
	return func(t *Task) {
		t.codec = c
	}
}

// WithPolicy sets the policy registry consulted for shared roles such as the
// port-proxy bridge. A nil policy disables the lookup.
func WithPolicy(p *Policy) TaskOption {
	return func(t *Task) {
		t.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TaskOption {
	return func(t *Task) {
		t.logger = logger
	}
}

// NewTask creates a proxy resolving name through registry. It performs no lookup.
func NewTask(name string, registry ports.TaskRegistry, opts ...TaskOption) *Task {
	t := &Task{
		name:     name,
		registry: registry,
		logger:   logging.NewNop(),
		ports:    make(map[string]*Port),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.codec == nil {
		t.codec = codec.New(nil)
	}
	return t
}

func (t *Task) Name() string { return t.name }

// Handle returns the identity of the proxied task.
func (t *Task) Handle() domain.TaskHandle {
	return domain.TaskHandle{Name: t.name, Provenance: t.provenance}
}

// Codec returns the codec of the proxy.
func (t *Task) Codec() ports.Codec { return t.codec }

// Resolve looks the task up. The result must not be kept beyond one operation.
func (t *Task) Resolve() (ports.Task, bool) {
	if t.registry == nil {
		return nil, false
	}
	impl, ok := t.registry.FindTask(t.name)
	if !ok || impl == nil {
		return nil, false
	}
	if !t.provenance.Accepts(impl.Provenance()) {
		return nil, false
	}
	return impl, true
}

// Reachable reports whether the task currently resolves.
func (t *Task) Reachable() bool {
	_, ok := t.Resolve()
	return ok
}

// State returns the lifecycle state of the task, or "" when unreachable.
func (t *Task) State() string {
	impl, ok := t.Resolve()
	if !ok {
		return ""
	}
	return impl.State()
}

// PortNames returns the port names of the task, or nil when unreachable.
func (t *Task) PortNames() []string {
	impl, ok := t.Resolve()
	if !ok {
		return nil
	}
	return impl.PortNames()
}

// PropertyNames returns the property names of the task, or nil when unreachable.
func (t *Task) PropertyNames() []string {
	impl, ok := t.Resolve()
	if !ok {
		return nil
	}
	return impl.PropertyNames()
}

// Port returns the proxy of a port. It does no I/O and does not imply the port exists.
func (t *Task) Port(name string) *Port {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.ports[name]; ok {
		return p
	}
	p := &Port{task: t, name: name}
	t.ports[name] = p
	return p
}

// Property returns the proxy of a property. It does no I/O.
func (t *Task) Property(name string) *Property {
	return &Property{task: t, name: name}
}
