package memory

import (
	"sync"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
	"github.com/google/uuid"
)

// Task is an in-memory live task. Safe for concurrent use.
type Task struct {
	name       string
	id         string
	provenance domain.Provenance

	mu        sync.RWMutex
	state     string
	ports     map[string]*Port
	portOrder []string
	props     map[string]*Property
	propOrder []string
}

// NewTask creates a live task in the RUNNING state with a fresh instance ID.
func NewTask(name string) *Task {
	return newTask(name, domain.ProvenanceLive)
}

func newTask(name string, provenance domain.Provenance) *Task {
	return &Task{
		name:       name,
		id:         uuid.NewString(),
		provenance: provenance,
		state:      "RUNNING",
		ports:      make(map[string]*Port),
		props:      make(map[string]*Property),
	}
}

func (t *Task) Name() string                  { return t.name }
func (t *Task) ID() string                    { return t.id }
func (t *Task) Provenance() domain.Provenance { return t.provenance }

func (t *Task) State() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// SetState changes the reported lifecycle state.
func (t *Task) SetState(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// AddPort declares a port. Declaring an existing name replaces it.
func (t *Task) AddPort(name, typeName string, dir domain.Direction) *Port {
	p := newPort(name, typeName, dir)
	t.addPort(p)
	return p
}

func (t *Task) addPort(p *Port) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.ports[p.name]; !exists {
		t.portOrder = append(t.portOrder, p.name)
	}
	t.ports[p.name] = p
}

// AddProperty declares a property holding initial.
func (t *Task) AddProperty(name, typeName string, initial []byte) *Property {
	p := &Property{name: name, typeName: typeName, raw: initial}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.props[name]; !exists {
		t.propOrder = append(t.propOrder, name)
	}
	t.props[name] = p
	return p
}

func (t *Task) PortNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.portOrder...)
}

func (t *Task) Port(name string) (ports.Port, bool) {
	p, ok := t.LocalPort(name)
	if !ok {
		return nil, false
	}
	return p, true
}

// LocalPort returns the concrete port, for emitting samples.
func (t *Task) LocalPort(name string) (*Port, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.ports[name]
	return p, ok
}

func (t *Task) PropertyNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.propOrder...)
}

func (t *Task) Property(name string) (ports.Property, bool) {
	p, ok := t.LocalProperty(name)
	if !ok {
		return nil, false
	}
	return p, true
}

// LocalProperty returns the concrete property.
func (t *Task) LocalProperty(name string) (*Property, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.props[name]
	return p, ok
}

// Property is an in-memory task property.
type Property struct {
	name     string
	typeName string
	readOnly bool

	mu     sync.Mutex
	raw    []byte
	writes int
}

func (p *Property) Name() string     { return p.name }
func (p *Property) TypeName() string { return p.typeName }

func (p *Property) Read() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.raw...), nil
}

func (p *Property) Write(raw []byte) error {
	if p.readOnly {
		return domain.ErrReadOnly
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = append([]byte(nil), raw...)
	p.writes++
	return nil
}

// Writes returns how many writes the property accepted.
func (p *Property) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}
