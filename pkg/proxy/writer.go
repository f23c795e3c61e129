package proxy

import (
	"errors"
	"fmt"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
	"github.com/aretw0/vizkit/pkg/value"
)

// Writer is a writer binding. Like Reader it re-checks the port on every write.
type Writer struct {
	port *Port

	state      domain.BindingState
	underlying ports.Writer
	taskID     string
	typeName   string
}

// Port returns the proxied port.
func (w *Writer) Port() *Port { return w.port }

// State reports the binding state as of the last check.
func (w *Writer) State() domain.BindingState { return w.state }

// Valid re-checks the port and binds the writer if possible.
func (w *Writer) Valid() bool { return w.check() == nil }

// Write encodes v and sends it to the port.
func (w *Writer) Write(v value.Value) error {
	if err := w.check(); err != nil {
		return err
	}
	if v.TypeName() != w.typeName {
		return fmt.Errorf("write %s: %w: got %s, port carries %s", w.port.Handle(), domain.ErrShapeMismatch, v.TypeName(), w.typeName)
	}
	raw, err := w.port.task.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("write %s: failed to encode: %w", w.port.Handle(), err)
	}
	if err := w.underlying.Write(raw); err != nil {
		w.invalidate()
		return fmt.Errorf("write %s: %w: %w", w.port.Handle(), domain.ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying writer.
func (w *Writer) Close() error {
	var err error
	if w.underlying != nil {
		err = w.underlying.Close()
		w.underlying = nil
	}
	w.state = domain.BindingUnbound
	return err
}

func (w *Writer) check() error {
	impl, port, ok := w.port.Resolve()
	if !ok {
		w.invalidate()
		return fmt.Errorf("write %s: %w", w.port.Handle(), domain.ErrUnavailable)
	}
	if w.underlying != nil && w.taskID == impl.ID() && w.typeName == port.TypeName() {
		w.state = domain.BindingValid
		return nil
	}

	w.release()
	u, err := port.NewWriter()
	if err != nil {
		w.state = domain.BindingInvalid
		if errors.Is(err, domain.ErrReadOnly) {
			return fmt.Errorf("write %s: %w", w.port.Handle(), err)
		}
		return fmt.Errorf("write %s: %w: %w", w.port.Handle(), domain.ErrUnavailable, err)
	}
	w.underlying = u
	w.taskID = impl.ID()
	w.typeName = port.TypeName()
	w.state = domain.BindingValid
	return nil
}

func (w *Writer) invalidate() {
	w.release()
	w.state = domain.BindingInvalid
}

func (w *Writer) release() {
	if w.underlying != nil {
		_ = w.underlying.Close()
		w.underlying = nil
	}
	w.taskID = ""
}
