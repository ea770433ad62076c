package loader

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/store"
)

// FindByID returns one entity by literal identity through its cache slot. A
// missing row yields nil without an error and is not cached.
func (b *BatchLoader) FindByID(ctx context.Context, typeName string, id int64) (entity.Entity, error) {
	if !b.Active() {
		return b.finder.FindByID(ctx, typeName, id)
	}

	ctx, span := b.tracer.Start(ctx, "assoccache.FindByID", trace.WithAttributes(
		attribute.String("assoccache.type", typeName),
		attribute.Int64("assoccache.id", id),
	))
	defer span.End()

	v, err := b.store.Get(ctx, b.codec.KeyForType(typeName, id), func(ctx context.Context) (any, error) {
		e, err := b.finder.FindByID(ctx, typeName, id)
		if err != nil || e == nil {
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		return nil, b.fail(span, err)
	}
	e, _ := v.(entity.Entity)
	return e, nil
}

// FindAll forces an identity-only query for filter and reconciles the
// resulting identities through Retrieve.
func (b *BatchLoader) FindAll(ctx context.Context, typeName string, filter store.Filter) ([]entity.Entity, error) {
	if !b.Active() {
		return b.finder.FindAll(ctx, typeName, filter)
	}

	ids, err := b.finder.SelectIDs(ctx, typeName, filter)
	if err != nil {
		return nil, err
	}
	return b.Retrieve(ctx, typeName, ids)
}

// FindFirst is FindAll limited to one row. It returns nil when nothing
// matches.
func (b *BatchLoader) FindFirst(ctx context.Context, typeName string, filter store.Filter) (entity.Entity, error) {
	filter.Limit = 1
	found, err := b.FindAll(ctx, typeName, filter)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

// FindIDs loads an explicit identity list, preserving its order.
func (b *BatchLoader) FindIDs(ctx context.Context, typeName string, ids []int64) ([]entity.Entity, error) {
	return b.Load(ctx, typeName, ids)
}

// Cache writes e into its slot, overwriting any previous entry. The slot is
// resolved from e's own type, which must be registered (directly, through
// WithModel, or as an EntityType kind) to land where lookups read. Use
// CacheAs when that is not the case.
func (b *BatchLoader) Cache(ctx context.Context, e entity.Entity) error {
	return b.store.Put(ctx, b.codec.KeyOf(e), e)
}

// CacheAs writes e into the slot lookups of typeName read.
func (b *BatchLoader) CacheAs(ctx context.Context, typeName string, e entity.Entity) error {
	return b.store.Put(ctx, b.codec.KeyForType(typeName, e.EntityID()), e)
}

// Invalidate removes e's slot. Call it after updating or destroying the row;
// nothing here detects stale entries on its own. Like Cache, the slot comes
// from e's registered type; use InvalidateRef for types the ancestry table
// cannot resolve from the instance.
func (b *BatchLoader) Invalidate(ctx context.Context, e entity.Entity) error {
	return b.store.Delete(ctx, b.codec.KeyOf(e))
}

// InvalidateRef removes the slot for typeName and id.
func (b *BatchLoader) InvalidateRef(ctx context.Context, typeName string, id int64) error {
	return b.store.Delete(ctx, b.codec.KeyForType(typeName, id))
}
