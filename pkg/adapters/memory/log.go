package memory

import (
	"sync"

	"github.com/aretw0/vizkit/pkg/domain"
)

// Log is a logged task: a recording replayed one step at a time. Its ports are
// output-only and refuse writers, and its properties are read-only.
type Log struct {
	*Task

	mu      sync.Mutex
	streams []*stream
}

type stream struct {
	port    *Port
	samples [][]byte
	next    int
}

// NewLog creates a logged task with a fresh instance ID.
func NewLog(name string) *Log {
	t := newTask(name, domain.ProvenanceLogged)
	t.state = "REPLAY"
	return &Log{Task: t}
}

// AddStream declares an output port replaying samples in order.
func (l *Log) AddStream(name, typeName string, samples ...[]byte) *Port {
	p := newPort(name, typeName, domain.DirectionOutput)
	p.readOnly = true
	l.addPort(p)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.streams = append(l.streams, &stream{port: p, samples: samples})
	return p
}

// AddProperty declares a read-only property.
func (l *Log) AddProperty(name, typeName string, initial []byte) *Property {
	p := l.Task.AddProperty(name, typeName, initial)
	p.readOnly = true
	return p
}

// Step emits the next sample of every stream that has one left. It reports
// whether any stream still has samples after this step.
func (l *Log) Step() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	more := false
	for _, s := range l.streams {
		if s.next < len(s.samples) {
			s.port.Emit(s.samples[s.next])
			s.next++
		}
		if s.next < len(s.samples) {
			more = true
		}
	}
	return more
}
