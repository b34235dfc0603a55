package auto

import (
	"reflect"
	"sync"
)

// Class is the augmentation of host struct type T. It is created once per
// type and registry by Define and binds instances of T to hosts.
type Class[T any] struct {
	typ      reflect.Type
	name     string
	registry *Registry
	cfg      classConfig

	// Fields split by kind; resolved when the first host is bound.
	resolveOnce sync.Once
	checks      []Field
	subs        []Field
	unsubs      []Field

	hostsMu sync.Mutex
	hosts   map[*T]*Host[T]
}

// Define registers the annotations of T on r and returns its Class.
//
// Struct tags are registered first, in declaration order, then the
// annotations passed as options, in argument order. Any registration error
// aborts the definition. A nil r means DefaultRegistry().
//
// Define is idempotent: defining T on the same registry again registers any
// additional annotations and returns the same *Class[T]. Class options
// (logger, recorder, tracer, coalescing) are taken from the first call only.
func Define[T any](r *Registry, opts ...DefineOption) (*Class[T], error) {
	if r == nil {
		r = DefaultRegistry()
	}

	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fieldError("A002", ErrNotStruct, t, "")
	}

	d := definition{cfg: defaultClassConfig()}
	for _, opt := range opts {
		opt.applyDefine(&d)
	}

	if err := r.RegisterTags(t); err != nil {
		return nil, err
	}
	for _, a := range d.annotations {
		if err := r.Register(t, a.Field, a.Kind); err != nil {
			return nil, err
		}
	}

	c := &Class[T]{
		typ:      t,
		name:     className(t),
		registry: r,
		cfg:      d.cfg,
		hosts:    make(map[*T]*Host[T]),
	}
	c.cfg.resolve(c.name)

	return r.loadOrStoreClass(t, c).(*Class[T]), nil
}

// MustDefine is like Define but panics on error.
func MustDefine[T any](r *Registry, opts ...DefineOption) *Class[T] {
	c, err := Define[T](r, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Type returns the host struct type.
func (c *Class[T]) Type() reflect.Type {
	return c.typ
}

// Name returns the host type name used in logs and metrics.
func (c *Class[T]) Name() string {
	return c.name
}

// Registry returns the registry the class was defined on.
func (c *Class[T]) Registry() *Registry {
	return c.registry
}

// Fields returns the class's fields of kind, in registration order.
func (c *Class[T]) Fields(kind Kind) []Field {
	return c.registry.Fields(c.typ, kind)
}

func (c *Class[T]) resolve() {
	c.resolveOnce.Do(func() {
		c.checks, c.subs, c.unsubs = c.registry.freeze(c.typ)
	})
}

// Bind returns the augmented host for inst, using cd to mark for check.
//
// Binding the same instance again returns the existing host (cd is
// ignored), so augmentation never stacks. The first Bind freezes the class:
// later registrations for T fail with ErrRegistryFrozen. A nil cd is allowed
// until the host actually needs to mark for check.
func (c *Class[T]) Bind(inst *T, cd ChangeDetector) *Host[T] {
	if inst == nil {
		panic("auto: Bind called with nil instance of " + c.name)
	}
	c.resolve()

	c.hostsMu.Lock()
	h, ok := c.hosts[inst]
	if !ok {
		h = &Host[T]{class: c, inst: inst, cd: cd}
		c.hosts[inst] = h
	}
	n := len(c.hosts)
	c.hostsMu.Unlock()

	if !ok {
		c.cfg.recorder.SetActiveHosts(c.name, n)
	}
	return h
}

// Host returns the bound host of inst, if any.
func (c *Class[T]) Host(inst *T) (*Host[T], bool) {
	c.hostsMu.Lock()
	defer c.hostsMu.Unlock()
	h, ok := c.hosts[inst]
	return h, ok
}

// ActiveHosts returns the number of bound hosts not yet destroyed.
func (c *Class[T]) ActiveHosts() int {
	c.hostsMu.Lock()
	defer c.hostsMu.Unlock()
	return len(c.hosts)
}

// unbind forgets a destroyed host.
func (c *Class[T]) unbind(inst *T) {
	c.hostsMu.Lock()
	delete(c.hosts, inst)
	n := len(c.hosts)
	c.hostsMu.Unlock()

	c.cfg.recorder.SetActiveHosts(c.name, n)
}
