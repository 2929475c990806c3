package mono

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"

	"hydra/internal/source"
	"hydra/internal/symbols"
	"hydra/internal/types"
)

var (
	// ErrDivergence: a recursive specialization chain never shrinks its sizes.
	ErrDivergence = errors.New("monomorphization diverges")
	// ErrDepthLimit: the specialization chain is deeper than Config.MaxDepth.
	ErrDepthLimit = errors.New("specialization depth limit reached")
	// ErrCountLimit: more than Config.MaxSpecializations instances were requested.
	ErrCountLimit = errors.New("specialization count limit reached")
)

// LimitError carries the key that tripped a ceiling and, for divergence, the
// ancestor instance it repeats.
type LimitError struct {
	Err      error
	Key      Key
	Ancestor InstanceID
	Limit    int
}

func (e *LimitError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%v (limit %d)", e.Err, e.Limit)
	}
	return e.Err.Error()
}

func (e *LimitError) Unwrap() error { return e.Err }

// Config bounds specialization.
type Config struct {
	MaxDepth             int
	MaxSpecializations   int
	AllowStableRecursion bool
}

// DefaultConfig matches the values hydra.toml starts from.
func DefaultConfig() Config {
	return Config{MaxDepth: 64, MaxSpecializations: 4096}
}

// Request describes one call that needs a specialization.
type Request struct {
	Fn     symbols.SymbolID
	Sizes  []int64
	Types  []types.TypeID
	Subst  *types.Subst
	Parent InstanceID // specialization whose body issues the call
	Site   source.Span
	Caller symbols.SymbolID
}

// Engine owns the specialization cache and the work queue.
//
// Writers (Request, Next, Complete, Defer) take the exclusive lock; readers
// of committed instances may run concurrently.
type Engine struct {
	mu        sync.RWMutex
	cfg       Config
	cache     map[Key]InstanceID
	instances []*Instance // 1-based
	queue     []InstanceID
	schedule  []InstanceID
	deferred  map[symbols.SymbolID][]DeferredCall
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MaxSpecializations <= 0 {
		cfg.MaxSpecializations = def.MaxSpecializations
	}
	return &Engine{
		cfg:       cfg,
		cache:     make(map[Key]InstanceID),
		instances: []*Instance{nil},
		deferred:  make(map[symbols.SymbolID][]DeferredCall),
	}
}

func (e *Engine) Config() Config { return e.cfg }

// Request returns the specialization for req, registering and enqueueing it
// on a cache miss. created reports whether a new instance was registered.
func (e *Engine) Request(req Request) (inst *Instance, created bool, err error) {
	key := KeyOf(req.Fn, req.Sizes, req.Types)
	site := UseSite{Span: req.Site, Caller: req.Caller, From: req.Parent}

	e.mu.Lock()
	defer e.mu.Unlock()

	if anc := e.ancestorOf(req.Parent, req.Fn); anc != nil {
		switch {
		case anc.Key == key:
			if !e.cfg.AllowStableRecursion {
				return nil, false, &LimitError{Err: ErrDivergence, Key: key, Ancestor: anc.ID}
			}
			anc.addSite(site)
			return anc.clone(), false, nil
		case grows(anc.Sizes, req.Sizes):
			return nil, false, &LimitError{Err: ErrDivergence, Key: key, Ancestor: anc.ID}
		}
	}

	if id, ok := e.cache[key]; ok {
		cached := e.instances[id]
		cached.addSite(site)
		return cached.clone(), false, nil
	}

	depth := 0
	if parent := e.get(req.Parent); parent != nil {
		depth = parent.Depth + 1
	}
	if depth >= e.cfg.MaxDepth {
		return nil, false, &LimitError{Err: ErrDepthLimit, Key: key, Limit: e.cfg.MaxDepth}
	}
	if len(e.instances)-1 >= e.cfg.MaxSpecializations {
		return nil, false, &LimitError{Err: ErrCountLimit, Key: key, Limit: e.cfg.MaxSpecializations}
	}

	n, convErr := safecast.Conv[uint32](len(e.instances))
	if convErr != nil {
		panic(fmt.Errorf("mono instances overflow: %w", convErr))
	}
	fresh := &Instance{
		ID:     InstanceID(n),
		Key:    key,
		Fn:     req.Fn,
		Sizes:  slices.Clone(req.Sizes),
		Types:  slices.Clone(req.Types),
		Subst:  req.Subst.Clone(),
		State:  Pending,
		Parent: req.Parent,
		Depth:  depth,
	}
	fresh.addSite(site)
	e.instances = append(e.instances, fresh)
	e.cache[key] = fresh.ID
	e.queue = append(e.queue, fresh.ID)
	return fresh.clone(), true, nil
}

// ancestorOf walks the chain from id upwards and returns the nearest
// instance of fn.
func (e *Engine) ancestorOf(id InstanceID, fn symbols.SymbolID) *Instance {
	for inst := e.get(id); inst != nil; inst = e.get(inst.Parent) {
		if inst.Fn == fn {
			return inst
		}
	}
	return nil
}

// grows: no size strictly decreased, so the chain never bottoms out.
// Type-only chains are left to the depth ceiling.
func grows(prev, next []int64) bool {
	if len(prev) == 0 || len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if next[i] < prev[i] {
			return false
		}
	}
	return true
}

func (e *Engine) get(id InstanceID) *Instance {
	if !id.IsValid() || int(id) >= len(e.instances) {
		return nil
	}
	return e.instances[id]
}

// Next pops the oldest pending specialization and records it in the schedule.
func (e *Engine) Next() (*Instance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	id := e.queue[0]
	e.queue = e.queue[1:]
	e.schedule = append(e.schedule, id)
	return e.instances[id].clone(), true
}

// Complete marks a specialization whose body has been checked.
func (e *Engine) Complete(id InstanceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if inst := e.get(id); inst != nil {
		inst.State = Specialized
	}
}

// Defer records a call from a template body; it is resumed once the caller is
// specialized.
func (e *Engine) Defer(call DeferredCall) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slices.Contains(e.deferred[call.Caller], call) {
		return
	}
	e.deferred[call.Caller] = append(e.deferred[call.Caller], call)
}

// DeferredFor lists the calls recorded while checking fn as a template.
func (e *Engine) DeferredFor(fn symbols.SymbolID) []DeferredCall {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.deferred[fn])
}

// Lookup returns the committed specialization for key.
func (e *Engine) Lookup(key Key) (*Instance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := e.cache[key]
	if !ok {
		return nil, false
	}
	return e.instances[id].clone(), true
}

func (e *Engine) Instance(id InstanceID) (*Instance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	inst := e.get(id)
	if inst == nil {
		return nil, false
	}
	return inst.clone(), true
}

// Instances returns every specialization in registration order.
func (e *Engine) Instances() []*Instance {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Instance, 0, len(e.instances)-1)
	for _, inst := range e.instances[1:] {
		out = append(out, inst.clone())
	}
	return out
}

// Schedule returns the order in which specializations left the queue.
func (e *Engine) Schedule() []InstanceID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.schedule)
}

// Chain returns the specialization chain ending at id, outermost first.
func (e *Engine) Chain(id InstanceID) []InstanceID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []InstanceID
	for inst := e.get(id); inst != nil; inst = e.get(inst.Parent) {
		out = append(out, inst.ID)
	}
	slices.Reverse(out)
	return out
}

// Len is the number of registered specializations.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.instances) - 1
}

// Pending reports whether the queue still holds work.
func (e *Engine) Pending() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.queue) > 0
}
