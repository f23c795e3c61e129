package proxy

import (
	"sort"
	"sync"
)

// RolePortProxy names the bridging task shared by all port readers.
const RolePortProxy = "port_proxy"

// Policy maps well-known roles to shared task proxies. It starts empty and is
// only changed by explicit Set calls. Safe for concurrent use; a nil *Policy
// behaves as an empty one.
type Policy struct {
	mu    sync.RWMutex
	roles map[string]*Task
}

// DefaultPolicy is the process-wide policy registry.
var DefaultPolicy = NewPolicy()

// NewPolicy creates an empty policy registry.
func NewPolicy() *Policy {
	return &Policy{roles: make(map[string]*Task)}
}

// Set binds role to t. A nil t removes the role.
func (p *Policy) Set(role string, t *Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t == nil {
		delete(p.roles, role)
		return
	}
	p.roles[role] = t
}

// Get returns the task bound to role.
func (p *Policy) Get(role string) (*Task, bool) {
	if p == nil {
		return nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.roles[role]
	return t, ok
}

// Roles returns the bound roles, sorted.
func (p *Policy) Roles() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	roles := make([]string, 0, len(p.roles))
	for role := range p.roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
