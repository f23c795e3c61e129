package memory

import (
	"sync"

	"github.com/aretw0/vizkit/pkg/domain"
	"github.com/aretw0/vizkit/pkg/ports"
)

// Bridge is a live task that re-exports ports of other tasks. All readers of a
// bridged port share one upstream reader.
type Bridge struct {
	*Task

	mu      sync.Mutex
	bridged map[string]*bridgedPort
}

// NewBridge creates a bridging task.
func NewBridge(name string) *Bridge {
	return &Bridge{Task: NewTask(name), bridged: make(map[string]*bridgedPort)}
}

// Bridge implements ports.Bridge. Bridging the same source port twice returns the
// same bridged port while the source task instance and the port type stay the
// same, even when the registry hands out a new port object on every lookup. A
// replaced bridged port closes its upstream reader.
func (b *Bridge) Bridge(task, instance string, src ports.Port) (ports.Port, error) {
	key := task + "." + src.Name()
	b.mu.Lock()
	defer b.mu.Unlock()
	if bp, ok := b.bridged[key]; ok {
		if bp.instance == instance && bp.TypeName() == src.TypeName() {
			return bp, nil
		}
		_ = bp.closeUpstream()
	}
	bp := &bridgedPort{
		Port:     newPort(key, src.TypeName(), domain.DirectionOutput),
		src:      src,
		instance: instance,
	}
	b.bridged[key] = bp
	b.addPort(bp.Port)
	return bp, nil
}

// Upstreams returns the number of upstream readers the bridge holds.
func (b *Bridge) Upstreams() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, bp := range b.bridged {
		bp.pumpMu.Lock()
		if bp.upstream != nil {
			n++
		}
		bp.pumpMu.Unlock()
	}
	return n
}

type bridgedPort struct {
	*Port
	src      ports.Port
	instance string

	pumpMu   sync.Mutex
	upstream ports.Reader
}

func (bp *bridgedPort) NewReader() (ports.Reader, error) {
	bp.pumpMu.Lock()
	defer bp.pumpMu.Unlock()
	if bp.upstream == nil {
		r, err := bp.src.NewReader()
		if err != nil {
			return nil, err
		}
		bp.upstream = r
	}
	local, err := bp.Port.NewReader()
	if err != nil {
		return nil, err
	}
	return &bridgedReader{Reader: local, bp: bp}, nil
}

func (bp *bridgedPort) closeUpstream() error {
	bp.pumpMu.Lock()
	defer bp.pumpMu.Unlock()
	if bp.upstream == nil {
		return nil
	}
	err := bp.upstream.Close()
	bp.upstream = nil
	return err
}

func (bp *bridgedPort) NewWriter() (ports.Writer, error) {
	return bp.src.NewWriter()
}

// pump moves a pending upstream sample to every downstream reader.
func (bp *bridgedPort) pump() error {
	bp.pumpMu.Lock()
	defer bp.pumpMu.Unlock()
	if bp.upstream == nil {
		return nil
	}
	raw, ok, err := bp.upstream.Read()
	if err != nil {
		return err
	}
	if ok {
		bp.Emit(raw)
	}
	return nil
}

type bridgedReader struct {
	ports.Reader
	bp *bridgedPort
}

func (r *bridgedReader) Read() ([]byte, bool, error) {
	if err := r.bp.pump(); err != nil {
		return nil, false, err
	}
	return r.Reader.Read()
}

// Port resolves bridged ports before the task's own ports.
func (b *Bridge) Port(name string) (ports.Port, bool) {
	b.mu.Lock()
	bp, ok := b.bridged[name]
	b.mu.Unlock()
	if ok {
		return bp, true
	}
	return b.Task.Port(name)
}
