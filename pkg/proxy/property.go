package proxy

import (
	"fmt"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
	"github.com/aretw0/vizkit/pkg/value"
)

// Property is a proxy for one property of a proxied task.
type Property struct {
	task *Task
	name string
}

func (p *Property) Name() string { return p.name }

func (p *Property) resolve() (ports.Property, bool) {
	impl, ok := p.task.Resolve()
	if !ok {
		return nil, false
	}
	prop, ok := impl.Property(p.name)
	if !ok || prop == nil {
		return nil, false
	}
	return prop, true
}

// TypeName returns the property type, or "" when unreachable.
func (p *Property) TypeName() string {
	prop, ok := p.resolve()
	if !ok {
		return ""
	}
	return prop.TypeName()
}

// Read returns the current value. It reports false when the property is
// unreachable or its value cannot be decoded.
func (p *Property) Read() (value.Value, bool) {
	prop, ok := p.resolve()
	if !ok {
		return value.Value{}, false
	}
	raw, err := prop.Read()
	if err != nil {
		p.task.logger.Warn("failed to read property", "task", p.task.name, "property", p.name, "err", err)
		return value.Value{}, false
	}
	if len(raw) == 0 {
		return value.Value{}, false
	}
	v, err := p.task.codec.Decode(raw, prop.TypeName())
	if err != nil {
		p.task.logger.Warn("failed to decode property", "task", p.task.name, "property", p.name, "err", err)
		return value.Value{}, false
	}
	return v, true
}

// Write encodes v and stores it in the property.
func (p *Property) Write(v value.Value) error {
	prop, ok := p.resolve()
	if !ok {
		return fmt.Errorf("write %s.%s: %w", p.task.name, p.name, domain.ErrUnavailable)
	}
	raw, err := p.task.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("write %s.%s: failed to encode: %w", p.task.name, p.name, err)
	}
	if err := prop.Write(raw); err != nil {
		return fmt.Errorf("write %s.%s: %w", p.task.name, p.name, err)
	}
	return nil
}
