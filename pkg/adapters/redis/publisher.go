package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// TaskDescriptor is what a publisher announces about a task.
type TaskDescriptor struct {
	Name       string
	State      string
	Provenance domain.Provenance
	Ports      []PortDescriptor
	Properties []PropertyDescriptor
}

// PortDescriptor declares one port of an announced task.
type PortDescriptor struct {
	Name      string
	TypeName  string
	Direction domain.Direction
}

// PropertyDescriptor declares one property and its initial raw value.
type PropertyDescriptor struct {
	Name     string
	TypeName string
	Initial  []byte
}

// Publisher announces tasks of this process to Redis.
type Publisher struct {
	client *backend.Client
	keys   keys
	ttl    time.Duration
}

// NewPublisher creates a publisher. WithTTL makes announcements expire without
// Heartbeat calls.
func NewPublisher(client *backend.Client, opts ...Option) *Publisher {
	o := buildOptions(opts)
	return &Publisher{client: client, keys: keys{prefix: o.prefix}, ttl: o.ttl}
}

// Announce publishes desc under a fresh instance ID, replacing any previous
// announcement of the same name. It returns the new ID.
func (p *Publisher) Announce(ctx context.Context, desc TaskDescriptor) (string, error) {
	if desc.Name == "" {
		return "", fmt.Errorf("task descriptor without name")
	}
	id := uuid.NewString()
	state := desc.State
	if state == "" {
		state = "RUNNING"
	}
	provenance := desc.Provenance
	if provenance == domain.ProvenanceAny {
		provenance = domain.ProvenanceLive
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, p.keys.task(desc.Name), p.keys.ports(desc.Name), p.keys.props(desc.Name))
	pipe.HSet(ctx, p.keys.task(desc.Name), "id", id, "state", state, "provenance", string(provenance))
	for _, port := range desc.Ports {
		pipe.HSet(ctx, p.keys.ports(desc.Name), port.Name, portSpec(port.Direction, port.TypeName))
	}
	for _, prop := range desc.Properties {
		pipe.HSet(ctx, p.keys.props(desc.Name), prop.Name, prop.TypeName)
		if prop.Initial != nil {
			pipe.Set(ctx, p.keys.prop(desc.Name, prop.Name), prop.Initial, 0)
		}
	}
	p.expire(ctx, pipe, desc.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to announce task %s: %w", desc.Name, err)
	}
	return id, nil
}

// Heartbeat extends the TTL of an announcement.
func (p *Publisher) Heartbeat(ctx context.Context, name string) error {
	pipe := p.client.TxPipeline()
	p.expire(ctx, pipe, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to refresh task %s: %w", name, err)
	}
	return nil
}

func (p *Publisher) expire(ctx context.Context, pipe backend.Pipeliner, name string) {
	score := float64(farFuture)
	if p.ttl > 0 {
		score = float64(time.Now().Add(p.ttl).Unix())
		pipe.Expire(ctx, p.keys.task(name), p.ttl)
		pipe.Expire(ctx, p.keys.ports(name), p.ttl)
		pipe.Expire(ctx, p.keys.props(name), p.ttl)
	}
	pipe.ZAdd(ctx, p.keys.index(), backend.Z{Score: score, Member: name})
}

// SetState updates the lifecycle state of an announced task.
func (p *Publisher) SetState(ctx context.Context, name, state string) error {
	if err := p.client.HSet(ctx, p.keys.task(name), "state", state).Err(); err != nil {
		return fmt.Errorf("failed to set state of %s: %w", name, err)
	}
	return nil
}

// Withdraw removes an announcement. Samples stay until overwritten.
func (p *Publisher) Withdraw(ctx context.Context, name string) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, p.keys.task(name), p.keys.ports(name), p.keys.props(name))
	pipe.ZRem(ctx, p.keys.index(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to withdraw task %s: %w", name, err)
	}
	return nil
}

// PublishSample stores raw as the latest sample of task.port.
func (p *Publisher) PublishSample(ctx context.Context, task, port string, raw []byte) error {
	return writeSample(ctx, p.client, p.keys, task, port, raw)
}

// PropertyValue reads the current raw value of a property, for tasks that poll
// for operator edits.
func (p *Publisher) PropertyValue(ctx context.Context, task, prop string) ([]byte, error) {
	raw, err := p.client.Get(ctx, p.keys.prop(task, prop)).Bytes()
	if err == backend.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read property %s.%s: %w", task, prop, err)
	}
	return raw, nil
}

func writeSample(ctx context.Context, client *backend.Client, k keys, task, port string, raw []byte) error {
	pipe := client.TxPipeline()
	pipe.Set(ctx, k.sample(task, port), raw, 0)
	pipe.Incr(ctx, k.seq(task, port))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write sample %s.%s: %w", task, port, err)
	}
	return nil
}
