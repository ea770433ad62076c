package association

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/loader"
	"github.com/goliatone/go-association-cache/store"
)

// ErrUnknownAssociation is returned when no association is registered under
// the requested name for the owner type or any of its ancestors.
var ErrUnknownAssociation = errors.New("association: unknown association")

// Registry holds the loaders selected for every registered association.
type Registry struct {
	batch *loader.BatchLoader

	mu      sync.RWMutex
	loaders map[string]map[string]Loader
}

// NewRegistry creates a Registry whose cached loaders go through batch.
func NewRegistry(batch *loader.BatchLoader) *Registry {
	return &Registry{
		batch:   batch,
		loaders: make(map[string]map[string]Loader),
	}
}

func (r *Registry) types() *entity.Types {
	return r.batch.Codec().Types()
}

// Register fills defaults for d, validates it and selects its loader.
// Configuration problems are reported here, before anything is loaded.
func (r *Registry) Register(ownerType string, d Descriptor) (Loader, error) {
	d.OwnerType = ownerType
	d = d.withDefaults(r.types())

	if err := d.Validate(r.types()); err != nil {
		return nil, goerrors.FromOzzoValidation(err,
			fmt.Sprintf("association: invalid %s %s.%s", d.Kind, ownerType, d.Name))
	}

	if d.Through != "" {
		via, err := r.Lookup(ownerType, d.Through)
		if err != nil {
			return nil, fmt.Errorf("association: %s.%s goes through %q: %w", ownerType, d.Name, d.Through, err)
		}
		if via.Descriptor().Kind == KindBelongsTo {
			return nil, goerrors.New(
				fmt.Sprintf("association: %s.%s cannot go through belongs_to %q", ownerType, d.Name, d.Through),
				goerrors.CategoryValidation)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.loaders[ownerType]
	if !ok {
		byName = make(map[string]Loader)
		r.loaders[ownerType] = byName
	}
	if _, exists := byName[d.Name]; exists {
		return nil, goerrors.New(
			fmt.Sprintf("association: %s.%s already registered", ownerType, d.Name),
			goerrors.CategoryValidation)
	}

	l := r.selectLoader(d)
	byName[d.Name] = l

	r.batch.Logger().Debug("association registered",
		"owner", ownerType,
		"name", d.Name,
		"kind", d.Kind.String(),
		"target", d.TargetType,
		"cached", d.Cached,
		"loader", fmt.Sprintf("%T", l),
	)
	return l, nil
}

// MustRegister is Register for setup code; it panics on error.
func (r *Registry) MustRegister(ownerType string, d Descriptor) Loader {
	l, err := r.Register(ownerType, d)
	if err != nil {
		panic(err)
	}
	return l
}

func (r *Registry) selectLoader(d Descriptor) Loader {
	switch {
	case d.Through != "":
		return &ThroughLoader{desc: d, registry: r}
	case !d.Cached:
		return NewDirectLoader(d, r.batch.Finder())
	case d.Kind == KindBelongsTo:
		return NewSingleKeyLoader(d, r.batch)
	case d.Kind == KindHasMany:
		return NewForeignKeyCollectionLoader(d, r.batch)
	default:
		return NewJoinTableCollectionLoader(d, r.batch)
	}
}

// Lookup finds the loader for name on ownerType, falling back to the
// associations declared on its ancestors.
func (r *Registry) Lookup(ownerType, name string) (Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for current := ownerType; current != ""; {
		if l, ok := r.loaders[current][name]; ok {
			return l, nil
		}
		info, ok := r.types().Lookup(current)
		if !ok {
			break
		}
		current = info.Parent
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAssociation, ownerType, name)
}

// Associations lists the descriptors declared directly on ownerType, sorted
// by name.
func (r *Registry) Associations(ownerType string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.loaders[ownerType]))
	for _, l := range r.loaders[ownerType] {
		out = append(out, l.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Load loads the association name for owner.
func (r *Registry) Load(ctx context.Context, owner entity.Entity, name string, req Request) ([]entity.Entity, error) {
	l, err := r.Lookup(r.types().TypeNameOf(owner), name)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, owner, req)
}

// LoadOne loads a single related entity, typically a belongs-to. It returns
// nil when there is none.
func (r *Registry) LoadOne(ctx context.Context, owner entity.Entity, name string) (entity.Entity, error) {
	list, err := r.Load(ctx, owner, name, Request{})
	if err != nil {
		return nil, err
	}
	return firstOf(list), nil
}

// DestroyJoinRows removes the owner's rows from every many-to-many join
// table it participates in and drops the owner's cache slot. Call it before
// destroying the owner row.
func (r *Registry) DestroyJoinRows(ctx context.Context, owner entity.Entity) (int64, error) {
	writer, ok := r.batch.Finder().(store.JoinTableWriter)
	if !ok {
		return 0, fmt.Errorf("association: %T cannot delete join rows", r.batch.Finder())
	}

	var total int64
	for current := r.types().TypeNameOf(owner); current != ""; {
		for _, d := range r.Associations(current) {
			if d.Kind != KindHasAndBelongsToMany {
				continue
			}
			n, err := writer.DeleteJoinRows(ctx, d.JoinTable, d.ForeignKey, owner.EntityID())
			if err != nil {
				return total, err
			}
			total += n
		}
		info, ok := r.types().Lookup(current)
		if !ok {
			break
		}
		current = info.Parent
	}

	if err := r.batch.Invalidate(ctx, owner); err != nil {
		r.batch.Logger().WarnContext(ctx, "association cache invalidation failed", "error", err)
	}
	return total, nil
}

// directLoader returns an uncached loader for an association. Through
// associations are already uncached and are returned as they are.
func (r *Registry) directLoader(ownerType, name string) (Loader, error) {
	l, err := r.Lookup(ownerType, name)
	if err != nil {
		return nil, err
	}
	if t, ok := l.(*ThroughLoader); ok {
		return t, nil
	}
	return NewDirectLoader(l.Descriptor(), r.batch.Finder()), nil
}
