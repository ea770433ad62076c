package repositorycache

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-association-cache/association"
	"github.com/goliatone/go-association-cache/cache"
	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/loader"
)

// InvalidationPolicy decides what the decorator does with cache slots after a
// successful mutation.
type InvalidationPolicy int

const (
	// InvalidateExplicit leaves slots alone. Callers invalidate through the
	// BatchLoader after mutating rows.
	InvalidateExplicit InvalidationPolicy = iota
	// InvalidateOnMutation drops the slot of every updated or deleted record.
	// Criteria based deletes drop every slot of the type.
	InvalidateOnMutation
)

// String returns the policy name used in configuration and logs.
func (p InvalidationPolicy) String() string {
	switch p {
	case InvalidateExplicit:
		return "explicit"
	case InvalidateOnMutation:
		return "on_mutation"
	default:
		return "unknown"
	}
}

// Option configures a CachedRepository.
type Option func(*options)

type options struct {
	policy   InvalidationPolicy
	logger   *slog.Logger
	registry *association.Registry
}

// WithInvalidationPolicy sets the policy. Default: InvalidateExplicit.
func WithInvalidationPolicy(policy InvalidationPolicy) Option {
	return func(o *options) { o.policy = policy }
}

// WithLogger sets the logger. Default: the BatchLoader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry makes Delete and ForceDelete remove the record's many-to-many
// join rows before the row itself.
func WithRegistry(registry *association.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// Interface assertion to ensure CachedRepository implements Repository[T]
var _ repository.Repository[entity.Entity] = (*CachedRepository[entity.Entity])(nil)

// CachedRepository decorates a base repository so identity lookups share the
// association cache slots.
type CachedRepository[T entity.Entity] struct {
	base     repository.Repository[T]
	batch    *loader.BatchLoader
	typeName string
	opts     options
}

// New creates a CachedRepository for records of typeName.
func New[T entity.Entity](base repository.Repository[T], batch *loader.BatchLoader, typeName string, opts ...Option) *CachedRepository[T] {
	o := options{policy: InvalidateExplicit, logger: batch.Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	return &CachedRepository[T]{
		base:     base,
		batch:    batch,
		typeName: typeName,
		opts:     o,
	}
}

// Policy returns the configured invalidation policy.
func (c *CachedRepository[T]) Policy() InvalidationPolicy {
	return c.opts.policy
}

// Get retrieves a single record using the provided criteria. Results are
// written into their slot but the lookup itself is not cached.
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	record, err := c.base.Get(ctx, criteria...)
	if err == nil {
		c.warm(ctx, record)
	}
	return record, err
}

// GetByID serves plain identity lookups from the record's cache slot. Calls
// with criteria, non numeric ids or a bypassed context go to the base
// repository.
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	if len(criteria) > 0 || !c.cacheable(ctx) {
		return c.base.GetByID(ctx, id, criteria...)
	}
	numeric, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return c.base.GetByID(ctx, id)
	}

	key := c.batch.Codec().KeyForType(c.typeName, numeric)
	record, err := cache.GetOrFetch(ctx, c.batch.Store(), key, func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id)
	})
	if errors.Is(err, cache.ErrInvalidResultType) {
		c.opts.logger.DebugContext(ctx, "cache slot holds a different model, reading through", "key", key)
		return c.base.GetByID(ctx, id)
	}
	return record, err
}

// GetByIDs loads records by identity through the batch loader, in ids order.
// Missing rows are skipped.
func (c *CachedRepository[T]) GetByIDs(ctx context.Context, ids []int64) ([]T, error) {
	var (
		found []entity.Entity
		err   error
	)
	if c.cacheable(ctx) {
		found, err = c.batch.Retrieve(ctx, c.typeName, ids)
	} else {
		found, err = c.batch.LoadDirect(ctx, c.typeName, ids)
	}
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(found))
	for _, e := range found {
		record, ok := e.(T)
		if !ok {
			return nil, cache.ErrInvalidResultType
		}
		out = append(out, record)
	}
	return out, nil
}

// List retrieves multiple records and writes each into its slot.
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	records, total, err := c.base.List(ctx, criteria...)
	if err == nil {
		for _, record := range records {
			c.warm(ctx, record)
		}
	}
	return records, total, err
}

// Count returns the number of records matching the criteria
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.Count(ctx, criteria...)
}

// GetByIdentifier retrieves a record by identifier and writes it into its slot.
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	record, err := c.base.GetByIdentifier(ctx, identifier, criteria...)
	if err == nil {
		c.warm(ctx, record)
	}
	return record, err
}

// Create creates a new record. New rows have no slot to invalidate.
func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	return c.base.Create(ctx, record, criteria...)
}

// CreateTx creates a new record within a transaction
func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	return c.base.CreateTx(ctx, tx, record, criteria...)
}

// CreateMany creates multiple records
func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	return c.base.CreateMany(ctx, records, criteria...)
}

// CreateManyTx creates multiple records within a transaction
func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	return c.base.CreateManyTx(ctx, tx, records, criteria...)
}

// GetOrCreate gets a record or creates it if it doesn't exist
func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	return c.base.GetOrCreate(ctx, record)
}

// GetOrCreateTx gets a record or creates it if it doesn't exist within a transaction
func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	return c.base.GetOrCreateTx(ctx, tx, record)
}

// Update updates a record
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Update(ctx, record, criteria...)
	if err == nil {
		c.afterMutation(ctx, result)
	}
	return result, err
}

// UpdateTx updates a record within a transaction
func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpdateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.afterMutation(ctx, result)
	}
	return result, err
}

// UpdateMany updates multiple records
func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateMany(ctx, records, criteria...)
	if err == nil {
		c.afterMutation(ctx, result...)
	}
	return result, err
}

// UpdateManyTx updates multiple records within a transaction
func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.afterMutation(ctx, result...)
	}
	return result, err
}

// Upsert inserts or updates a record
func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Upsert(ctx, record, criteria...)
	if err == nil {
		c.afterMutation(ctx, result)
	}
	return result, err
}

// UpsertTx inserts or updates a record within a transaction
func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpsertTx(ctx, tx, record, criteria...)
	if err == nil {
		c.afterMutation(ctx, result)
	}
	return result, err
}

// UpsertMany inserts or updates multiple records
func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertMany(ctx, records, criteria...)
	if err == nil {
		c.afterMutation(ctx, result...)
	}
	return result, err
}

// UpsertManyTx inserts or updates multiple records within a transaction
func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.afterMutation(ctx, result...)
	}
	return result, err
}

// Delete deletes a record
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	if err := c.beforeDestroy(ctx, record); err != nil {
		return err
	}
	err := c.base.Delete(ctx, record)
	if err == nil {
		c.afterMutation(ctx, record)
	}
	return err
}

// DeleteTx deletes a record within a transaction. Join rows are left to the
// transaction.
func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.DeleteTx(ctx, tx, record)
	if err == nil {
		c.afterMutation(ctx, record)
	}
	return err
}

// DeleteMany deletes multiple records based on criteria
func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteMany(ctx, criteria...)
	if err == nil {
		c.afterCriteriaMutation(ctx)
	}
	return err
}

// DeleteManyTx deletes multiple records based on criteria within a transaction
func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteManyTx(ctx, tx, criteria...)
	if err == nil {
		c.afterCriteriaMutation(ctx)
	}
	return err
}

// DeleteWhere deletes records based on criteria
func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhere(ctx, criteria...)
	if err == nil {
		c.afterCriteriaMutation(ctx)
	}
	return err
}

// DeleteWhereTx deletes records based on criteria within a transaction
func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhereTx(ctx, tx, criteria...)
	if err == nil {
		c.afterCriteriaMutation(ctx)
	}
	return err
}

// ForceDelete force deletes a record (bypassing soft delete)
func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	if err := c.beforeDestroy(ctx, record); err != nil {
		return err
	}
	err := c.base.ForceDelete(ctx, record)
	if err == nil {
		c.afterMutation(ctx, record)
	}
	return err
}

// ForceDeleteTx force deletes a record within a transaction (bypassing soft delete)
func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.ForceDeleteTx(ctx, tx, record)
	if err == nil {
		c.afterMutation(ctx, record)
	}
	return err
}

// GetTx reads within a transaction. Transactional reads bypass the cache.
func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetTx(ctx, tx, criteria...)
}

// GetByIDTx retrieves a record by ID within a transaction, bypassing the cache.
func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIDTx(ctx, tx, id, criteria...)
}

// ListTx retrieves multiple records within a transaction.
func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.ListTx(ctx, tx, criteria...)
}

// CountTx returns the number of matching records within a transaction.
func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.CountTx(ctx, tx, criteria...)
}

// GetByIdentifierTx retrieves a record by identifier within a transaction.
func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw executes a raw SQL query. Results are not cached.
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

// RawTx executes a raw SQL query within a transaction.
func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

// Handlers returns the model handlers from the base repository
func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}

func (c *CachedRepository[T]) cacheable(ctx context.Context) bool {
	return c.batch.Active() && !bypassed(ctx)
}

// warm writes a freshly read record into its slot.
func (c *CachedRepository[T]) warm(ctx context.Context, record T) {
	if !c.cacheable(ctx) || isZero(record) {
		return
	}
	if err := c.batch.CacheAs(ctx, c.typeName, record); err != nil {
		c.opts.logger.WarnContext(ctx, "association cache write failed", "type", c.typeName, "error", err)
	}
}

func (c *CachedRepository[T]) beforeDestroy(ctx context.Context, record T) error {
	if c.opts.registry == nil || isZero(record) {
		return nil
	}
	_, err := c.opts.registry.DestroyJoinRows(ctx, record)
	return err
}

// afterMutation drops the slots of records under InvalidateOnMutation.
// Failures are logged; the mutation already succeeded.
func (c *CachedRepository[T]) afterMutation(ctx context.Context, records ...T) {
	if c.opts.policy != InvalidateOnMutation {
		return
	}
	for _, record := range records {
		if isZero(record) {
			continue
		}
		if err := c.batch.InvalidateRef(ctx, c.typeName, record.EntityID()); err != nil {
			c.opts.logger.WarnContext(ctx, "association cache invalidation failed",
				"type", c.typeName, "id", record.EntityID(), "error", err)
		}
	}
}

// afterCriteriaMutation drops every slot of the type, since the affected
// records are unknown.
func (c *CachedRepository[T]) afterCriteriaMutation(ctx context.Context) {
	if c.opts.policy != InvalidateOnMutation {
		return
	}
	if err := c.invalidateByPrefix(ctx, c.batch.Codec().Types().BaseTypeOf(c.typeName)+entity.KeySeparator); err != nil {
		c.opts.logger.WarnContext(ctx, "association cache invalidation failed", "type", c.typeName, "error", err)
	}
}

// invalidateByPrefix removes all cached keys that start with the given prefix
func (c *CachedRepository[T]) invalidateByPrefix(ctx context.Context, prefix string) error {
	var errs []error
	for _, key := range c.batch.Store().Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := c.batch.Store().Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isZero(e entity.Entity) bool {
	if e == nil {
		return true
	}
	if rv := reflect.ValueOf(e); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return true
	}
	return e.EntityID() == 0
}
