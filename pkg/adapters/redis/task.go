package redis

import (
	"fmt"
	"strconv"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// remoteTask is a snapshot of a task announcement taken by one lookup.
type remoteTask struct {
	registry   *Registry
	name       string
	id         string
	state      string
	provenance domain.Provenance

	ports     map[string]*remotePort
	portOrder []string
	props     map[string]*remoteProperty
	propOrder []string
}

func (t *remoteTask) Name() string                  { return t.name }
func (t *remoteTask) ID() string                    { return t.id }
func (t *remoteTask) Provenance() domain.Provenance { return t.provenance }
func (t *remoteTask) State() string                 { return t.state }
func (t *remoteTask) PortNames() []string           { return append([]string(nil), t.portOrder...) }
func (t *remoteTask) PropertyNames() []string       { return append([]string(nil), t.propOrder...) }

func (t *remoteTask) Port(name string) (ports.Port, bool) {
	p, ok := t.ports[name]
	if !ok {
		return nil, false
	}
	return p, true
}

func (t *remoteTask) Property(name string) (ports.Property, bool) {
	p, ok := t.props[name]
	if !ok {
		return nil, false
	}
	return p, true
}

type remotePort struct {
	task     *remoteTask
	name     string
	typeName string
	dir      domain.Direction
}

func (p *remotePort) Name() string                { return p.name }
func (p *remotePort) TypeName() string            { return p.typeName }
func (p *remotePort) Direction() domain.Direction { return p.dir }

// NewReader starts reading after the sample that is current now.
func (p *remotePort) NewReader() (ports.Reader, error) {
	r := p.task.registry
	ctx, cancel := r.ctx()
	defer cancel()
	seq, err := r.client.Get(ctx, r.keys.seq(p.task.name, p.name)).Int64()
	if err != nil && err != backend.Nil {
		return nil, fmt.Errorf("failed to open reader on %s.%s: %w", p.task.name, p.name, err)
	}
	return &remoteReader{port: p, last: seq}, nil
}

func (p *remotePort) NewWriter() (ports.Writer, error) {
	if p.task.provenance == domain.ProvenanceLogged {
		return nil, domain.ErrReadOnly
	}
	return &remoteWriter{port: p}, nil
}

type remoteReader struct {
	port *remotePort
	last int64
}

func (rr *remoteReader) Read() ([]byte, bool, error) {
	p := rr.port
	r := p.task.registry
	ctx, cancel := r.ctx()
	defer cancel()
	vals, err := r.client.MGet(ctx, r.keys.seq(p.task.name, p.name), r.keys.sample(p.task.name, p.name)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s.%s: %w", p.task.name, p.name, err)
	}
	seqStr, _ := vals[0].(string)
	sample, _ := vals[1].(string)
	if seqStr == "" {
		return nil, false, nil
	}
	seq, err := strconv.ParseInt(seqStr, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt sequence on %s.%s: %w", p.task.name, p.name, err)
	}
	if seq <= rr.last {
		return nil, false, nil
	}
	rr.last = seq
	return []byte(sample), true, nil
}

func (rr *remoteReader) Close() error { return nil }

type remoteWriter struct {
	port *remotePort
}

func (w *remoteWriter) Write(raw []byte) error {
	p := w.port
	r := p.task.registry
	ctx, cancel := r.ctx()
	defer cancel()
	return writeSample(ctx, r.client, r.keys, p.task.name, p.name, raw)
}

func (w *remoteWriter) Close() error { return nil }

type remoteProperty struct {
	task     *remoteTask
	name     string
	typeName string
}

func (p *remoteProperty) Name() string     { return p.name }
func (p *remoteProperty) TypeName() string { return p.typeName }

func (p *remoteProperty) Read() ([]byte, error) {
	r := p.task.registry
	ctx, cancel := r.ctx()
	defer cancel()
	raw, err := r.client.Get(ctx, r.keys.prop(p.task.name, p.name)).Bytes()
	if err == backend.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read property %s.%s: %w", p.task.name, p.name, err)
	}
	return raw, nil
}

func (p *remoteProperty) Write(raw []byte) error {
	if p.task.provenance == domain.ProvenanceLogged {
		return domain.ErrReadOnly
	}
	r := p.task.registry
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Set(ctx, r.keys.prop(p.task.name, p.name), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write property %s.%s: %w", p.task.name, p.name, err)
	}
	return nil
}
