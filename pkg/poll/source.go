package poll

import (
	"fmt"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/proxy"
	"github.com/aretw0/vizkit/pkg/value"
)

// Source produces samples for a registration and accepts leaf edits.
type Source interface {
	// Read returns the latest sample, or false when there is nothing new.
	Read() (value.Value, bool)
	// Write commits one edited leaf.
	Write(path value.Path, leaf value.Value) error
}

// PortSource reads a port and writes edits back as full samples.
type PortSource struct {
	reader *proxy.Reader
	writer *proxy.Writer
	last   value.Value
}

// NewPortSource creates a source over reader. A nil writer makes it read-only.
func NewPortSource(reader *proxy.Reader, writer *proxy.Writer) *PortSource {
	return &PortSource{reader: reader, writer: writer}
}

// Reader returns the reader binding of the source.
func (s *PortSource) Reader() *proxy.Reader { return s.reader }

// Read returns the newest sample. While the binding stays valid and nothing new
// arrived, the previous sample is returned again so cancelled edits are restored;
// an invalid binding yields nothing.
func (s *PortSource) Read() (value.Value, bool) {
	if v, ok := s.reader.Read(); ok {
		s.last = v
		return v, true
	}
	if s.reader.State() != domain.BindingValid {
		s.last = value.Value{}
		return value.Value{}, false
	}
	if !s.last.IsValid() {
		return value.Value{}, false
	}
	return s.last, true
}

// Write patches the last sample with leaf and writes the result. Successive
// writes compose, so several edited leaves of one sample all reach the port.
func (s *PortSource) Write(path value.Path, leaf value.Value) error {
	if s.writer == nil {
		return fmt.Errorf("write %s: %w", path, domain.ErrReadOnly)
	}
	if !s.last.IsValid() {
		return fmt.Errorf("write %s: %w: no sample to patch", path, domain.ErrUnavailable)
	}
	patched, err := s.last.With(path, leaf)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := s.writer.Write(patched); err != nil {
		return err
	}
	s.last = patched
	return nil
}

// Type names of the records built by TaskSource.
const (
	TaskTypeName       = "/vizkit/Task"
	PropertiesTypeName = "/vizkit/Properties"
	PortsTypeName      = "/vizkit/Ports"
)

// TaskSource presents a whole task as one record:
//
//	{state, properties{<name>: <value>...}, ports{<name>: <type>...}}
//
// Only properties can be edited.
type TaskSource struct {
	task *proxy.Task
}

// NewTaskSource creates a source inspecting task.
func NewTaskSource(task *proxy.Task) *TaskSource {
	return &TaskSource{task: task}
}

func (s *TaskSource) Read() (value.Value, bool) {
	impl, ok := s.task.Resolve()
	if !ok {
		return value.Value{}, false
	}
	codec := s.task.Codec()

	var props []value.Field
	for _, name := range impl.PropertyNames() {
		prop, ok := impl.Property(name)
		if !ok {
			continue
		}
		raw, err := prop.Read()
		if err != nil || len(raw) == 0 {
			continue
		}
		v, err := codec.Decode(raw, prop.TypeName())
		if err != nil {
			continue
		}
		props = append(props, value.F(name, v))
	}

	var portFields []value.Field
	for _, name := range impl.PortNames() {
		port, ok := impl.Port(name)
		if !ok {
			continue
		}
		portFields = append(portFields, value.F(name, value.Scalar("string", port.TypeName())))
	}

	return value.Record(TaskTypeName,
		value.F("state", value.Scalar("string", impl.State())),
		value.F("properties", value.Record(PropertiesTypeName, props...)),
		value.F("ports", value.Record(PortsTypeName, portFields...)),
	), true
}

// Write stores an edited property. Paths outside properties are refused, and
// so are edits inside a composite property, which is written as a whole.
func (s *TaskSource) Write(path value.Path, leaf value.Value) error {
	if len(path) < 2 || path[0] != "properties" {
		return fmt.Errorf("write %s: %w", path, domain.ErrNotEditable)
	}
	prop := s.task.Property(path[1])
	if len(path) == 2 {
		return prop.Write(leaf)
	}
	current, ok := prop.Read()
	if !ok {
		return fmt.Errorf("write %s: %w", path, domain.ErrUnavailable)
	}
	patched, err := current.With(path[2:], leaf)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return prop.Write(patched)
}
