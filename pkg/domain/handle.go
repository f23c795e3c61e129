package domain

import "fmt"

// Provenance tells where a task implementation comes from.
type Provenance string

const (
	// ProvenanceAny accepts any implementation.
	ProvenanceAny Provenance = ""
	// ProvenanceLive is a running task reachable through the task registry.
	ProvenanceLive Provenance = "live"
	// ProvenanceLogged is a task replayed from a log.
	ProvenanceLogged Provenance = "logged"
)

// Accepts reports whether an implementation of provenance other satisfies p.
func (p Provenance) Accepts(other Provenance) bool {
	return p == ProvenanceAny || p == other
}

func (p Provenance) String() string {
	if p == ProvenanceAny {
		return "any"
	}
	return string(p)
}

// Direction of a port.
type Direction string

const (
	DirectionUnknown Direction = ""
	DirectionInput   Direction = "input"
	DirectionOutput  Direction = "output"
)

// TaskHandle identifies a task by name and the provenance it must be resolved from.
type TaskHandle struct {
	Name       string     `json:"name"`
	Provenance Provenance `json:"provenance,omitempty"`
}

func (h TaskHandle) String() string {
	if h.Provenance == ProvenanceAny {
		return h.Name
	}
	return fmt.Sprintf("%s(%s)", h.Name, h.Provenance)
}

// PortHandle identifies a port of a task. Direction stays DirectionUnknown
// until the port has been resolved at least once.
type PortHandle struct {
	Task      string    `json:"task"`
	Port      string    `json:"port"`
	Direction Direction `json:"direction,omitempty"`
}

func (h PortHandle) String() string {
	return h.Task + "." + h.Port
}

// BindingState is the state of a lazily created reader or writer.
type BindingState int

const (
	// BindingUnbound means no underlying reader or writer was ever attempted.
	BindingUnbound BindingState = iota
	// BindingValid means the underlying object exists and its port is reachable.
	BindingValid
	// BindingInvalid means creation failed or the owning task went away.
	BindingInvalid
)

func (s BindingState) String() string {
	switch s {
	case BindingUnbound:
		return "unbound"
	case BindingValid:
		return "valid"
	case BindingInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("BindingState(%d)", int(s))
	}
}
