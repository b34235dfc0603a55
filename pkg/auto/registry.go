package auto

import (
	"reflect"
	"sort"
	"sync"
)

// TagName is the struct tag key read by RegisterTags.
const TagName = "auto"

// Field describes one annotated field of a host class.
type Field struct {
	// Class is the host struct type that owns the field.
	Class reflect.Type
	// Name is the Go field name.
	Name string
	// Kind is the behavior applied to the field.
	Kind Kind
	// Index is the field's index path, suitable for FieldByIndex.
	Index []int
	// Type is the field's static type.
	Type reflect.Type
}

// classEntry is the registry record for one host class.
type classEntry struct {
	fields []Field
	byName map[string]int

	// frozen is set once the first host of the class is bound.
	frozen bool

	// class is the *Class[T] created by Define, if any.
	class any
}

// Registry maps host classes to their annotated fields. Fields are kept in
// registration order, which for struct tags is declaration order.
//
// A Registry is populated while classes are defined and is effectively
// read-only afterwards: a class freezes when its first host is bound.
type Registry struct {
	mu      sync.RWMutex
	classes map[reflect.Type]*classEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[reflect.Type]*classEntry),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide Registry, creating it on first
// use. Define falls back to it when given a nil Registry.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// hostType normalizes a class to its struct type.
func hostType(class reflect.Type) (reflect.Type, bool) {
	if class == nil {
		return nil, false
	}
	if class.Kind() == reflect.Pointer {
		class = class.Elem()
	}
	return class, class.Kind() == reflect.Struct
}

// Register records that field name of class has the given kind.
//
// Registering the same field with the same kind again is a no-op.
// Registering it with a different kind fails with ErrFieldConflict; that is
// a programming error and the class definition must be abandoned. The field's
// static type is checked against the kind, but its value is never read.
func (r *Registry) Register(class reflect.Type, name string, kind Kind) error {
	t, ok := hostType(class)
	if !ok {
		return fieldError("A002", ErrNotStruct, class, name)
	}
	if !kind.Valid() {
		return fieldError("A007", ErrUnknownKind, t, name)
	}

	sf, ok := t.FieldByName(name)
	if !ok {
		return fieldError("A003", ErrUnknownField, t, name).
			WithSuggestion("Check the spelling; annotations use the Go field name, not a tag or JSON name")
	}
	if !sf.IsExported() {
		return fieldError("A004", ErrUnexportedField, t, name).
			WithSuggestion("Export the field so its value can be read")
	}
	if !supportsKind(sf.Type, kind) {
		return fieldError("A005", ErrCapability, t, name).
			WithDetail(sf.Type.String() + " cannot be used as a " + kind.String() + " field")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entry(t)
	if i, exists := entry.byName[name]; exists {
		if existing := entry.fields[i].Kind; existing != kind {
			return fieldError("A001", ErrFieldConflict, t, name).
				WithDetail("already registered as " + existing.String() + ", now as " + kind.String())
		}
		return nil
	}
	if entry.frozen {
		return fieldError("A006", ErrRegistryFrozen, t, name)
	}

	entry.byName[name] = len(entry.fields)
	entry.fields = append(entry.fields, Field{
		Class: t,
		Name:  name,
		Kind:  kind,
		Index: sf.Index,
		Type:  sf.Type,
	})
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(class reflect.Type, name string, kind Kind) {
	if err := r.Register(class, name, kind); err != nil {
		panic(err)
	}
}

// RegisterTags registers every field of class carrying an `auto:"<kind>"`
// struct tag, in declaration order. Fields of embedded structs are visited
// after the embedding field. A tag of "-" or "" is ignored.
func (r *Registry) RegisterTags(class reflect.Type) error {
	t, ok := hostType(class)
	if !ok {
		return fieldError("A002", ErrNotStruct, class, "")
	}
	return r.registerTags(t, t)
}

func (r *Registry) registerTags(host, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup(TagName)
		if ok && tag != "" && tag != "-" {
			kind, valid := ParseKind(tag)
			if !valid {
				return fieldError("A007", ErrUnknownKind, host, sf.Name).
					WithDetail(`tag value "` + tag + `" is not check, subscribe or unsubscribe`)
			}
			if err := r.Register(host, sf.Name, kind); err != nil {
				return err
			}
		}

		if sf.Anonymous {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				if err := r.registerTags(host, et); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Fields returns the fields of class registered with kind, in registration
// order. The result is a copy.
func (r *Registry) Fields(class reflect.Type, kind Kind) []Field {
	t, ok := hostType(class)
	if !ok {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry := r.classes[t]
	if entry == nil {
		return nil
	}
	var out []Field
	for _, f := range entry.fields {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// All returns every registered field of class in registration order.
func (r *Registry) All(class reflect.Type) []Field {
	t, ok := hostType(class)
	if !ok {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry := r.classes[t]
	if entry == nil {
		return nil
	}
	return append([]Field(nil), entry.fields...)
}

// Lookup returns the kind field name of class is registered with.
func (r *Registry) Lookup(class reflect.Type, name string) (Kind, bool) {
	t, ok := hostType(class)
	if !ok {
		return 0, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry := r.classes[t]
	if entry == nil {
		return 0, false
	}
	i, ok := entry.byName[name]
	if !ok {
		return 0, false
	}
	return entry.fields[i].Kind, true
}

// Classes returns every class with at least one registration or definition,
// sorted by type name.
func (r *Registry) Classes() []reflect.Type {
	r.mu.RLock()
	out := make([]reflect.Type, 0, len(r.classes))
	for t := range r.classes {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// Frozen reports whether class already has bound hosts.
func (r *Registry) Frozen(class reflect.Type) bool {
	t, ok := hostType(class)
	if !ok {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry := r.classes[t]
	return entry != nil && entry.frozen
}

// freeze marks t as bound and returns its fields split by kind.
func (r *Registry) freeze(t reflect.Type) (checks, subs, unsubs []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entry(t)
	entry.frozen = true
	for _, f := range entry.fields {
		switch f.Kind {
		case KindCheck:
			checks = append(checks, f)
		case KindSubscribe:
			subs = append(subs, f)
		case KindUnsubscribe:
			unsubs = append(unsubs, f)
		}
	}
	return checks, subs, unsubs
}

// entry returns the record for t, creating it. Caller must hold r.mu.
func (r *Registry) entry(t reflect.Type) *classEntry {
	entry := r.classes[t]
	if entry == nil {
		entry = &classEntry{byName: make(map[string]int)}
		r.classes[t] = entry
	}
	return entry
}

// loadOrStoreClass returns the class stored for t, storing c if none is.
func (r *Registry) loadOrStoreClass(t reflect.Type, c any) any {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entry(t)
	if entry.class == nil {
		entry.class = c
	}
	return entry.class
}
