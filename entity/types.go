package entity

import (
	"reflect"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// TypeInfo is one row of the ancestry table.
type TypeInfo struct {
	Name string
	// Parent is empty for types mapped directly beneath the ORM root.
	Parent string
	Table  string
	Model  reflect.Type
}

// TypeOption customizes a type registration.
type TypeOption func(*TypeInfo)

// WithTable overrides the default table name.
func WithTable(table string) TypeOption {
	return func(ti *TypeInfo) {
		ti.Table = table
	}
}

// WithModel binds a Go model to the type name so instances can be resolved
// without implementing Typed.
func WithModel(model any) TypeOption {
	return func(ti *TypeInfo) {
		ti.Model = indirectType(reflect.TypeOf(model))
	}
}

// Types is the static type ancestry table. It is safe for concurrent use.
type Types struct {
	mu     sync.RWMutex
	byName map[string]TypeInfo
	byGo   map[reflect.Type]string
}

// NewTypes returns an empty ancestry table.
func NewTypes() *Types {
	return &Types{
		byName: make(map[string]TypeInfo),
		byGo:   make(map[reflect.Type]string),
	}
}

// Register adds a type. Parents must be registered before their children,
// which keeps the table acyclic.
func (t *Types) Register(name, parent string, opts ...TypeOption) error {
	if name == "" {
		return goerrors.New("entity: type name is required", goerrors.CategoryValidation)
	}

	info := TypeInfo{Name: name, Parent: parent}
	for _, opt := range opts {
		opt(&info)
	}
	if info.Table == "" {
		info.Table = Tableize(name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byName[name]; exists {
		return goerrors.New("entity: type "+name+" already registered", goerrors.CategoryValidation)
	}
	if parent != "" {
		if _, ok := t.byName[parent]; !ok {
			return goerrors.New("entity: parent type "+parent+" of "+name+" is not registered", goerrors.CategoryValidation)
		}
	}

	t.byName[name] = info
	if info.Model != nil {
		t.byGo[info.Model] = name
	}
	return nil
}

// MustRegister is Register for package level setup; it panics on error.
func (t *Types) MustRegister(name, parent string, opts ...TypeOption) {
	if err := t.Register(name, parent, opts...); err != nil {
		panic(err)
	}
}

// Lookup returns the registration for name.
func (t *Types) Lookup(name string) (TypeInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.byName[name]
	return info, ok
}

// TableOf returns the registered table for name, or its default table name
// when the type is unknown.
func (t *Types) TableOf(name string) string {
	if info, ok := t.Lookup(name); ok {
		return info.Table
	}
	return Tableize(name)
}

// BaseTypeOf walks the ancestor chain of name until it reaches the direct
// child of the ORM root, or a type with no further mapped ancestor.
// Unknown names are their own base.
func (t *Types) BaseTypeOf(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	current := name
	for {
		info, ok := t.byName[current]
		if !ok || info.Parent == "" {
			return current
		}
		if _, ok := t.byName[info.Parent]; !ok {
			return current
		}
		current = info.Parent
	}
}

// TypeNameOf resolves the type name of an instance. Typed entities report
// their own name; otherwise the registered model type is used, falling back to
// the Go type name.
func (t *Types) TypeNameOf(e Entity) string {
	if typed, ok := e.(Typed); ok {
		if name := typed.EntityType(); name != "" {
			return name
		}
	}

	rt := indirectType(reflect.TypeOf(e))
	t.mu.RLock()
	name, ok := t.byGo[rt]
	t.mu.RUnlock()
	if ok {
		return name
	}
	return rt.Name()
}

func indirectType(rt reflect.Type) reflect.Type {
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return rt
}
