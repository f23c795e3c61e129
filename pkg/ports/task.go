package ports

import (
	"github.com/aretw0/vizkit/pkg/domain"
)

// TaskRegistry resolves task names to implementations.
type TaskRegistry interface {
	// FindTask returns the implementation currently registered under name.
	FindTask(name string) (Task, bool)
}

// Task is the capability interface shared by every task variant.
type Task interface {
	Name() string
	// ID identifies this instance of the task. It changes when the task restarts,
	// which tells bindings that their underlying reader or writer is stale.
	ID() string
	Provenance() domain.Provenance
	// State is the task's lifecycle state as reported by the runtime (e.g. RUNNING).
	State() string
	PortNames() []string
	Port(name string) (Port, bool)
	PropertyNames() []string
	Property(name string) (Property, bool)
}

// Port is one data port of a task.
type Port interface {
	Name() string
	TypeName() string
	Direction() domain.Direction
	NewReader() (Reader, error)
	NewWriter() (Writer, error)
}

// Reader polls samples from a port.
type Reader interface {
	// Read returns the latest sample if one arrived since the previous call.
	// It never blocks. An error means the connection is broken.
	Read() (raw []byte, ok bool, err error)
	Close() error
}

// Writer pushes samples into a port.
type Writer interface {
	Write(raw []byte) error
	Close() error
}

// Property is a configuration value of a task.
type Property interface {
	Name() string
	TypeName() string
	Read() ([]byte, error)
	Write(raw []byte) error
}

// Bridge is implemented by tasks that can re-export the port of another task,
// so several consumers share one connection to it. instance is the ID of the
// source task instance owning src.
type Bridge interface {
	Bridge(task, instance string, src Port) (Port, error)
}
