package loader

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-association-cache/cache"
	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/store"
)

const tracerName = "github.com/goliatone/go-association-cache/loader"

// Option configures a BatchLoader.
type Option func(*BatchLoader)

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(b *BatchLoader) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTracer sets the tracer. Default: the global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *BatchLoader) {
		if tracer != nil {
			b.tracer = tracer
		}
	}
}

// WithSwitch sets the caching switch. Default: the process-wide switch.
func WithSwitch(sw *cache.Switch) Option {
	return func(b *BatchLoader) {
		if sw != nil {
			b.sw = sw
		}
	}
}

// BatchLoader loads entities by identity through the cache.
type BatchLoader struct {
	store  cache.Store
	codec  *entity.Codec
	finder store.Finder
	sw     *cache.Switch
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a BatchLoader.
func New(cacheStore cache.Store, codec *entity.Codec, finder store.Finder, opts ...Option) *BatchLoader {
	if codec == nil {
		codec = entity.NewCodec(nil)
	}
	b := &BatchLoader{
		store:  cacheStore,
		codec:  codec,
		finder: finder,
		sw:     cache.Default(),
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the cache store entries are read from and written to.
func (b *BatchLoader) Store() cache.Store { return b.store }

// Codec returns the key codec.
func (b *BatchLoader) Codec() *entity.Codec { return b.codec }

// Finder returns the persistent store queried on misses.
func (b *BatchLoader) Finder() store.Finder { return b.finder }

// Switch returns the caching switch consulted by Active.
func (b *BatchLoader) Switch() *cache.Switch { return b.sw }

// Logger returns the structured logger.
func (b *BatchLoader) Logger() *slog.Logger { return b.logger }

// Tracer returns the tracer spans are started on.
func (b *BatchLoader) Tracer() trace.Tracer { return b.tracer }

// Active reports whether caching is currently on.
func (b *BatchLoader) Active() bool { return b.sw.Active() }

// Load returns the entities for ids in input order, through the cache when
// caching is active and straight from the store otherwise.
func (b *BatchLoader) Load(ctx context.Context, typeName string, ids []int64) ([]entity.Entity, error) {
	if !b.Active() {
		return b.LoadDirect(ctx, typeName, ids)
	}
	return b.Retrieve(ctx, typeName, ids)
}

// Retrieve returns the entities for ids in input order. Duplicates are kept
// positionally but looked up once. At most one store query is issued, for the
// identities absent from the cache, and its rows are written back under the
// requested base type before returning. Rows that no longer exist leave no slot in the output.
func (b *BatchLoader) Retrieve(ctx context.Context, typeName string, ids []int64) ([]entity.Entity, error) {
	ctx, span := b.tracer.Start(ctx, "assoccache.Retrieve", trace.WithAttributes(
		attribute.String("assoccache.type", typeName),
		attribute.Int("assoccache.requested", len(ids)),
	))
	defer span.End()

	if len(ids) == 0 {
		return []entity.Entity{}, nil
	}

	base := b.codec.Types().BaseTypeOf(typeName)
	keys := make([]string, len(ids))
	distinctIDs := make([]int64, 0, len(ids))
	distinctKeys := make([]string, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for i, id := range ids {
		keys[i] = b.codec.KeyFor(base, id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinctIDs = append(distinctIDs, id)
		distinctKeys = append(distinctKeys, keys[i])
	}

	found, err := b.store.GetMultiple(ctx, distinctKeys)
	if err != nil {
		return nil, b.fail(span, err)
	}

	hits := make(map[string]entity.Entity, len(found))
	var missing []int64
	for i, id := range distinctIDs {
		if e, ok := found[distinctKeys[i]].(entity.Entity); ok && e != nil {
			hits[distinctKeys[i]] = e
			continue
		}
		missing = append(missing, id)
	}

	fetched := make(map[int64]entity.Entity, len(missing))
	if len(missing) > 0 {
		rows, err := b.finder.FindByIDs(ctx, typeName, missing)
		if err != nil {
			return nil, b.fail(span, err)
		}
		for _, row := range rows {
			if row == nil {
				continue
			}
			fetched[row.EntityID()] = row
		}
		for id, row := range fetched {
			key := b.codec.KeyFor(base, id)
			if err := b.store.Put(ctx, key, row); err != nil {
				b.logger.WarnContext(ctx, "association cache write-through failed", "key", key, "error", err)
			}
		}
	}

	out := make([]entity.Entity, 0, len(ids))
	for i, id := range ids {
		if e, ok := hits[keys[i]]; ok {
			out = append(out, e)
			continue
		}
		if e, ok := fetched[id]; ok {
			out = append(out, e)
		}
	}

	span.SetAttributes(
		attribute.Int("assoccache.hits", len(hits)),
		attribute.Int("assoccache.missing", len(missing)),
		attribute.Int("assoccache.fetched", len(fetched)),
	)
	b.logger.DebugContext(ctx, "association cache batch",
		"type", typeName,
		"requested", len(ids),
		"distinct", len(distinctIDs),
		"hits", len(hits),
		"missing", len(missing),
		"fetched", len(fetched),
	)

	return out, nil
}

// LoadDirect fetches ids from the store without touching the cache and
// returns them in input order.
func (b *BatchLoader) LoadDirect(ctx context.Context, typeName string, ids []int64) ([]entity.Entity, error) {
	if len(ids) == 0 {
		return []entity.Entity{}, nil
	}
	rows, err := b.finder.FindByIDs(ctx, typeName, entity.Unique(ids))
	if err != nil {
		return nil, err
	}
	return Arrange(ids, rows), nil
}

// Arrange orders rows to follow ids. Duplicated ids repeat their row and ids
// without a row are skipped.
func Arrange(ids []int64, rows []entity.Entity) []entity.Entity {
	byID := make(map[int64]entity.Entity, len(rows))
	for _, row := range rows {
		if row != nil {
			byID[row.EntityID()] = row
		}
	}
	out := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out
}

func (b *BatchLoader) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
