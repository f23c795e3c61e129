package proxy

import (
	"log/slog"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
	"github.com/aretw0/vizkit/pkg/value"
)

// Reader is a reader binding. Every Read re-checks the port and re-creates the
// underlying reader when the task instance changed or came back.
type Reader struct {
	port   *Port
	logger *slog.Logger

	state      domain.BindingState
	underlying ports.Reader
	taskID     string
	bridgeID   string
	typeName   string
}

// Port returns the proxied port.
func (r *Reader) Port() *Port { return r.port }

// State reports the binding state as of the last check. It has no side effects.
func (r *Reader) State() domain.BindingState { return r.state }

// Valid re-checks the port and binds the reader if possible.
func (r *Reader) Valid() bool { return r.check() }

// Read returns the latest sample if one arrived since the previous call. It never
// blocks and reports false when the binding is invalid or the sample cannot be
// decoded.
func (r *Reader) Read() (value.Value, bool) {
	if !r.check() {
		return value.Value{}, false
	}
	raw, ok, err := r.underlying.Read()
	if err != nil {
		r.logger.Warn("reader connection lost", "err", err)
		r.invalidate()
		return value.Value{}, false
	}
	if !ok {
		return value.Value{}, false
	}
	v, err := r.port.task.codec.Decode(raw, r.typeName)
	if err != nil {
		r.logger.Warn("failed to decode sample", "type", r.typeName, "err", err)
		return value.Value{}, false
	}
	return v, true
}

// Close releases the underlying reader. The binding can be used again afterwards.
func (r *Reader) Close() error {
	var err error
	if r.underlying != nil {
		err = r.underlying.Close()
		r.underlying = nil
	}
	r.state = domain.BindingUnbound
	return err
}

func (r *Reader) check() bool {
	impl, port, ok := r.port.Resolve()
	if !ok {
		r.invalidate()
		return false
	}
	src, bridgeID := r.port.bridge(impl, port)
	if r.underlying != nil && r.taskID == impl.ID() && r.bridgeID == bridgeID && r.typeName == port.TypeName() {
		r.state = domain.BindingValid
		return true
	}

	r.release()
	u, err := src.NewReader()
	if err != nil {
		r.logger.Debug("failed to create reader", "err", err)
		r.state = domain.BindingInvalid
		return false
	}
	if r.state == domain.BindingInvalid {
		r.logger.Info("reader rebound", "instance", impl.ID())
	}
	r.underlying = u
	r.taskID = impl.ID()
	r.bridgeID = bridgeID
	r.typeName = port.TypeName()
	r.state = domain.BindingValid
	return true
}

func (r *Reader) invalidate() {
	r.release()
	r.state = domain.BindingInvalid
}

func (r *Reader) release() {
	if r.underlying != nil {
		_ = r.underlying.Close()
		r.underlying = nil
	}
	r.taskID = ""
	r.bridgeID = ""
}
