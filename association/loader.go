package association

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/loader"
	"github.com/goliatone/go-association-cache/store"
)

// Loader loads one association for an owner. Belongs-to loaders return at
// most one entity.
type Loader interface {
	Descriptor() Descriptor
	Load(ctx context.Context, owner entity.Entity, req Request) ([]entity.Entity, error)
}

var (
	_ Loader = (*SingleKeyLoader)(nil)
	_ Loader = (*ForeignKeyCollectionLoader)(nil)
	_ Loader = (*JoinTableCollectionLoader)(nil)
	_ Loader = (*DirectLoader)(nil)
	_ Loader = (*ThroughLoader)(nil)
)

// DirectLoader reads straight from the store. It serves uncached
// associations and every cached one while the caching switch is off.
type DirectLoader struct {
	desc   Descriptor
	finder store.Finder
}

// NewDirectLoader creates a loader that never touches the cache.
func NewDirectLoader(d Descriptor, finder store.Finder) *DirectLoader {
	return &DirectLoader{desc: d, finder: finder}
}

// Descriptor returns the association configuration.
func (l *DirectLoader) Descriptor() Descriptor { return l.desc }

// Load reads the association from the store.
func (l *DirectLoader) Load(ctx context.Context, owner entity.Entity, req Request) ([]entity.Entity, error) {
	d := l.desc
	switch d.Kind {
	case KindBelongsTo:
		fk, ok, err := entity.Int64Attribute(owner, d.ForeignKey)
		if err != nil || !ok {
			return []entity.Entity{}, err
		}
		e, err := l.finder.FindByID(ctx, d.TargetType, fk)
		if err != nil || e == nil {
			return []entity.Entity{}, err
		}
		return []entity.Entity{e}, nil

	case KindHasMany, KindHasAndBelongsToMany:
		if d.FinderSQL != "" {
			return loadFinderSQL(ctx, l.finder, d, owner, req)
		}
		rows, err := l.finder.FindAll(ctx, d.TargetType, collectionFilter(d, owner, req))
		if err != nil {
			return nil, err
		}
		return narrowEntities(rows, req.IDs), nil
	}
	return nil, fmt.Errorf("association: unsupported kind %s", d.Kind)
}

// SingleKeyLoader serves a cached belongs-to association from the target's
// cache slot.
type SingleKeyLoader struct {
	desc   Descriptor
	batch  *loader.BatchLoader
	direct *DirectLoader
}

// NewSingleKeyLoader creates a cached belongs-to loader.
func NewSingleKeyLoader(d Descriptor, batch *loader.BatchLoader) *SingleKeyLoader {
	return &SingleKeyLoader{desc: d, batch: batch, direct: NewDirectLoader(d, batch.Finder())}
}

// Descriptor returns the association configuration.
func (l *SingleKeyLoader) Descriptor() Descriptor { return l.desc }

// Load reads the owner's foreign key and serves the target from its slot.
func (l *SingleKeyLoader) Load(ctx context.Context, owner entity.Entity, req Request) ([]entity.Entity, error) {
	if !l.batch.Active() {
		return l.direct.Load(ctx, owner, req)
	}

	fk, ok, err := entity.Int64Attribute(owner, l.desc.ForeignKey)
	if err != nil || !ok {
		return []entity.Entity{}, err
	}
	e, err := l.batch.FindByID(ctx, l.desc.TargetType, fk)
	if err != nil || e == nil {
		return []entity.Entity{}, err
	}
	return []entity.Entity{e}, nil
}

// ForeignKeyCollectionLoader serves a cached has-many association: an
// identity-only query selects the children, BatchLoader supplies the rows.
type ForeignKeyCollectionLoader struct {
	desc   Descriptor
	batch  *loader.BatchLoader
	direct *DirectLoader
}

// NewForeignKeyCollectionLoader creates a cached has-many loader.
func NewForeignKeyCollectionLoader(d Descriptor, batch *loader.BatchLoader) *ForeignKeyCollectionLoader {
	return &ForeignKeyCollectionLoader{desc: d, batch: batch, direct: NewDirectLoader(d, batch.Finder())}
}

// Descriptor returns the association configuration.
func (l *ForeignKeyCollectionLoader) Descriptor() Descriptor { return l.desc }

// Load selects the children's identities and retrieves them in order.
func (l *ForeignKeyCollectionLoader) Load(ctx context.Context, owner entity.Entity, req Request) ([]entity.Entity, error) {
	if !l.batch.Active() {
		return l.direct.Load(ctx, owner, req)
	}
	if l.desc.FinderSQL != "" {
		return loadFinderSQL(ctx, l.batch.Finder(), l.desc, owner, req)
	}
	return loadCollection(ctx, l.batch, l.desc, owner, req)
}

// JoinTableCollectionLoader serves a cached many-to-many association. The
// identity query joins the target table to the join table.
type JoinTableCollectionLoader struct {
	desc   Descriptor
	batch  *loader.BatchLoader
	direct *DirectLoader
}

// NewJoinTableCollectionLoader creates a cached many-to-many loader.
func NewJoinTableCollectionLoader(d Descriptor, batch *loader.BatchLoader) *JoinTableCollectionLoader {
	return &JoinTableCollectionLoader{desc: d, batch: batch, direct: NewDirectLoader(d, batch.Finder())}
}

// Descriptor returns the association configuration.
func (l *JoinTableCollectionLoader) Descriptor() Descriptor { return l.desc }

// Load selects the related identities through the join table and retrieves
// them in order.
func (l *JoinTableCollectionLoader) Load(ctx context.Context, owner entity.Entity, req Request) ([]entity.Entity, error) {
	if !l.batch.Active() {
		return l.direct.Load(ctx, owner, req)
	}
	if l.desc.FinderSQL != "" {
		req.IDs = entity.Unique(req.IDs)
		return loadFinderSQL(ctx, l.batch.Finder(), l.desc, owner, req)
	}
	return loadCollection(ctx, l.batch, l.desc, owner, req)
}

// ClearJoinRows deletes the owner's join rows. Call it before destroying the
// owner, then invalidate the owner.
func (l *JoinTableCollectionLoader) ClearJoinRows(ctx context.Context, owner entity.Entity) (int64, error) {
	writer, ok := l.batch.Finder().(store.JoinTableWriter)
	if !ok {
		return 0, fmt.Errorf("association: %T cannot delete join rows", l.batch.Finder())
	}
	return writer.DeleteJoinRows(ctx, l.desc.JoinTable, l.desc.ForeignKey, owner.EntityID())
}

// ThroughLoader follows Through on the owner, then Source on every
// intermediate entity. It always reads from the store.
type ThroughLoader struct {
	desc     Descriptor
	registry *Registry
}

// Descriptor returns the association configuration.
func (l *ThroughLoader) Descriptor() Descriptor { return l.desc }

// Load walks the intermediate association and collects the distinct
// targets in encounter order.
func (l *ThroughLoader) Load(ctx context.Context, owner entity.Entity, req Request) ([]entity.Entity, error) {
	via, err := l.registry.directLoader(l.desc.OwnerType, l.desc.Through)
	if err != nil {
		return nil, err
	}
	intermediates, err := via.Load(ctx, owner, Request{})
	if err != nil {
		return nil, err
	}

	sourceType := via.Descriptor().TargetType
	out := make([]entity.Entity, 0)
	seen := make(map[int64]struct{})
	for _, mid := range intermediates {
		source, err := l.registry.directLoader(sourceType, l.desc.Source)
		if err != nil {
			return nil, err
		}
		rows, err := source.Load(ctx, mid, Request{Conditions: req.Conditions, Order: req.Order, Joins: req.Joins})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if _, dup := seen[row.EntityID()]; dup {
				continue
			}
			seen[row.EntityID()] = struct{}{}
			out = append(out, row)
		}
	}
	out = narrowEntities(out, req.IDs)
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func collectionFilter(d Descriptor, owner entity.Entity, req Request) store.Filter {
	ownerID := owner.EntityID()
	if d.Kind == KindHasAndBelongsToMany {
		f := req.filter(d, store.Where(d.JoinTable+"."+d.ForeignKey+" = ?", ownerID))
		join := "JOIN " + d.JoinTable + " ON " + d.JoinTable + "." + d.AssociationForeignKey + " = ?TableAlias.id"
		f.Joins = append([]string{join}, f.Joins...)
		return f
	}
	return req.filter(d, store.Where("?TableAlias."+d.ForeignKey+" = ?", ownerID))
}

// loadCollection selects identities and reconciles them through the batch
// loader. Caller joins force full rows because they cannot be safely
// projected to identities.
func loadCollection(ctx context.Context, batch *loader.BatchLoader, d Descriptor, owner entity.Entity, req Request) ([]entity.Entity, error) {
	ctx, span := batch.Tracer().Start(ctx, "assoccache.LoadCollection", trace.WithAttributes(
		attribute.String("assoccache.owner", d.OwnerType),
		attribute.String("assoccache.association", d.Name),
	))
	defer span.End()

	filter := collectionFilter(d, owner, req)
	finder := batch.Finder()

	var ids []int64
	if len(req.Joins) > 0 {
		rows, err := finder.FindAll(ctx, d.TargetType, filter)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		ids = entity.IDs(rows)
	} else {
		selected, err := finder.SelectIDs(ctx, d.TargetType, filter)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		ids = selected
	}

	return batch.Retrieve(ctx, d.TargetType, narrowIDs(ids, req.IDs))
}

func loadFinderSQL(ctx context.Context, finder store.Finder, d Descriptor, owner entity.Entity, req Request) ([]entity.Entity, error) {
	rows, err := finder.FindBySQL(ctx, d.TargetType, d.FinderSQL, owner.EntityID())
	if err != nil {
		return nil, err
	}
	if !req.narrowed() {
		return rows, nil
	}
	return scan(rows, req.IDs), nil
}
