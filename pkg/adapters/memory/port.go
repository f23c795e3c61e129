package memory

import (
	"errors"
	"sync"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
)

var errClosed = errors.New("memory: reader closed")

// Port is an in-memory data port. Every reader receives every emitted sample,
// keeping only the latest one until it is read. Writes loop back as samples.
type Port struct {
	name     string
	typeName string
	dir      domain.Direction
	readOnly bool

	mu      sync.Mutex
	readers map[*reader]struct{}
	writes  [][]byte
}

func newPort(name, typeName string, dir domain.Direction) *Port {
	return &Port{
		name:     name,
		typeName: typeName,
		dir:      dir,
		readers:  make(map[*reader]struct{}),
	}
}

func (p *Port) Name() string                { return p.name }
func (p *Port) TypeName() string            { return p.typeName }
func (p *Port) Direction() domain.Direction { return p.dir }

// Emit delivers raw to every open reader.
func (p *Port) Emit(raw []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for r := range p.readers {
		r.deliver(raw)
	}
}

// Writes returns a copy of the samples written through writers, in order.
func (p *Port) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	copy(out, p.writes)
	return out
}

// Readers returns the number of open readers.
func (p *Port) Readers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.readers)
}

func (p *Port) NewReader() (ports.Reader, error) {
	r := &reader{port: p}
	p.mu.Lock()
	p.readers[r] = struct{}{}
	p.mu.Unlock()
	return r, nil
}

func (p *Port) NewWriter() (ports.Writer, error) {
	if p.readOnly {
		return nil, domain.ErrReadOnly
	}
	return &writer{port: p}, nil
}

func (p *Port) detach(r *reader) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.readers, r)
}

type reader struct {
	port *Port

	mu      sync.Mutex
	latest  []byte
	pending bool
	closed  bool
}

func (r *reader) deliver(raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = append([]byte(nil), raw...)
	r.pending = true
}

func (r *reader) Read() ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, errClosed
	}
	if !r.pending {
		return nil, false, nil
	}
	r.pending = false
	return r.latest, true, nil
}

func (r *reader) Close() error {
	r.mu.Lock()
	already := r.closed
	r.closed = true
	r.mu.Unlock()
	if !already {
		r.port.detach(r)
	}
	return nil
}

type writer struct {
	port *Port
}

func (w *writer) Write(raw []byte) error {
	sample := append([]byte(nil), raw...)
	w.port.mu.Lock()
	w.port.writes = append(w.port.writes, sample)
	w.port.mu.Unlock()
	w.port.Emit(sample)
	return nil
}

func (w *writer) Close() error { return nil }
