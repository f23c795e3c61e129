package proxy

import (
	"sync"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
)

// Port is a proxy for one port of a proxied task.
type Port struct {
	task *Task
	name string

	mu  sync.Mutex
	dir domain.Direction
}

func (p *Port) Name() string { return p.name }
func (p *Port) Task() *Task  { return p.task }

// Handle returns the port identity. Its direction is known once the port resolved.
func (p *Port) Handle() domain.PortHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.PortHandle{Task: p.task.name, Port: p.name, Direction: p.dir}
}

// Resolve looks up the task and then the port.
func (p *Port) Resolve() (ports.Task, ports.Port, bool) {
	impl, ok := p.task.Resolve()
	if !ok {
		return nil, nil, false
	}
	port, ok := impl.Port(p.name)
	if !ok || port == nil {
		return nil, nil, false
	}
	p.mu.Lock()
	p.dir = port.Direction()
	p.mu.Unlock()
	return impl, port, true
}

// Reachable reports whether the port currently resolves.
func (p *Port) Reachable() bool {
	_, _, ok := p.Resolve()
	return ok
}

// TypeName returns the type of the port, or "" when unreachable.
func (p *Port) TypeName() string {
	_, port, ok := p.Resolve()
	if !ok {
		return ""
	}
	return port.TypeName()
}

// Reader creates an unbound reader binding.
func (p *Port) Reader() *Reader {
	return &Reader{port: p, logger: p.task.logger.With("task", p.task.name, "port", p.name)}
}

// Writer creates an unbound writer binding.
func (p *Port) Writer() *Writer {
	return &Writer{port: p}
}

// bridge returns the port readers should attach to: the bridged port when the
// policy names a reachable bridging task, src otherwise. The second result
// identifies the bridge instance.
func (p *Port) bridge(owner ports.Task, src ports.Port) (ports.Port, string) {
	bt, ok := p.task.policy.Get(RolePortProxy)
	if !ok || bt == nil || bt.name == p.task.name {
		return src, ""
	}
	impl, ok := bt.Resolve()
	if !ok {
		return src, ""
	}
	b, ok := impl.(ports.Bridge)
	if !ok {
		return src, ""
	}
	bridged, err := b.Bridge(p.task.name, owner.ID(), src)
	if err != nil {
		p.task.logger.Warn("port bridge refused", "task", p.task.name, "port", p.name, "bridge", bt.name, "err", err)
		return src, ""
	}
	return bridged, impl.ID()
}
