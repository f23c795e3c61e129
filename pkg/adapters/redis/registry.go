package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/vizkit/internal/logging"
	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Registry implements ports.TaskRegistry on top of Redis.
type Registry struct {
	client  *backend.Client
	keys    keys
	timeout time.Duration
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker
}

// Option configures a Registry or a Publisher.
type Option func(*options)

type options struct {
	prefix  string
	timeout time.Duration
	ttl     time.Duration
	logger  *slog.Logger
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithTimeout bounds every Redis round trip made by a registry lookup.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTTL makes announced tasks expire unless they keep sending heartbeats.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{prefix: defaultPrefix, timeout: defaultTimeout, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewRegistry creates a registry reading task announcements from client.
func NewRegistry(client *backend.Client, opts ...Option) *Registry {
	o := buildOptions(opts)
	r := &Registry{
		client:  client,
		keys:    keys{prefix: o.prefix},
		timeout: o.timeout,
		logger:  o.logger,
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vizkit-redis-registry",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("registry circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return r
}

// BreakerState reports the state of the lookup circuit breaker.
func (r *Registry) BreakerState() gobreaker.State {
	return r.breaker.State()
}

// FindTask implements ports.TaskRegistry. Redis failures resolve as "not found".
func (r *Registry) FindTask(name string) (ports.Task, bool) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return r.lookup(ctx, name)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.logger.Debug("task lookup short-circuited", "task", name)
		} else {
			r.logger.Warn("task lookup failed", "task", name, "err", err)
		}
		return nil, false
	}
	t, _ := res.(*remoteTask)
	if t == nil {
		return nil, false
	}
	return t, true
}

func (r *Registry) lookup(ctx context.Context, name string) (*remoteTask, error) {
	pipe := r.client.Pipeline()
	taskCmd := pipe.HGetAll(ctx, r.keys.task(name))
	portsCmd := pipe.HGetAll(ctx, r.keys.ports(name))
	propsCmd := pipe.HGetAll(ctx, r.keys.props(name))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to look up task %s: %w", name, err)
	}

	fields := taskCmd.Val()
	if len(fields) == 0 || fields["id"] == "" {
		return nil, nil
	}
	t := &remoteTask{
		registry:   r,
		name:       name,
		id:         fields["id"],
		state:      fields["state"],
		provenance: domain.Provenance(fields["provenance"]),
		ports:      make(map[string]*remotePort),
		props:      make(map[string]*remoteProperty),
	}
	if t.provenance == domain.ProvenanceAny {
		t.provenance = domain.ProvenanceLive
	}
	for portName, spec := range portsCmd.Val() {
		dir, typeName := parsePortSpec(spec)
		t.ports[portName] = &remotePort{task: t, name: portName, typeName: typeName, dir: dir}
		t.portOrder = append(t.portOrder, portName)
	}
	sort.Strings(t.portOrder)
	for propName, typeName := range propsCmd.Val() {
		t.props[propName] = &remoteProperty{task: t, name: propName, typeName: typeName}
		t.propOrder = append(t.propOrder, propName)
	}
	sort.Strings(t.propOrder)
	return t, nil
}

// Names lists announced tasks, pruning index entries whose TTL has passed.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := r.client.ZRemRangeByScore(ctx, r.keys.index(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired tasks: %w", err)
	}
	names, err := r.client.ZRange(ctx, r.keys.index(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return names, nil
}

func portSpec(dir domain.Direction, typeName string) string {
	return string(dir) + " " + typeName
}

func parsePortSpec(spec string) (domain.Direction, string) {
	dir, typeName, ok := strings.Cut(spec, " ")
	if !ok {
		return domain.DirectionUnknown, spec
	}
	return domain.Direction(dir), typeName
}

// ctx returns a context bounded by the registry timeout.
func (r *Registry) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}
