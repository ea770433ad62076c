// Package bunstore implements store.Finder on top of uptrace/bun.
//
// Models are registered under the type name the association cache uses:
//
//	db, err := bunstore.Open(bunstore.DriverSQLite, "file:app.db")
//	s := bunstore.New(db)
//	bunstore.Register[User](s, "User")
//	bunstore.Register[User](s, "Admin", bunstore.WithScope(store.Where("?TableAlias.kind = ?", "Admin")))
//
// Conditions, joins and order fragments may use bun placeholders such as
// ?TableAlias.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/store"
)

// Supported drivers for Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open connects to a database and wraps it with the matching bun dialect.
func Open(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverSQLite:
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		_ = sqldb.Close()
		return nil, fmt.Errorf("bunstore: unsupported driver %q", driver)
	}
}

var (
	_ store.Finder          = (*Store)(nil)
	_ store.JoinTableWriter = (*Store)(nil)
)

// Store runs association cache queries against a bun database.
type Store struct {
	db *bun.DB

	mu     sync.RWMutex
	models map[string]model
}

type model struct {
	pk       string
	scope    []store.Condition
	newOne   func() any
	newSlice func() any
	entities func(any) []entity.Entity
	entity   func(any) entity.Entity
}

// Option customizes a model registration.
type Option func(*model)

// WithScope adds conditions applied to every query for the type, typically a
// single table inheritance discriminator.
func WithScope(conditions ...store.Condition) Option {
	return func(m *model) {
		m.scope = append(m.scope, conditions...)
	}
}

// WithPrimaryKey overrides the identity column. Default: "id".
func WithPrimaryKey(column string) Option {
	return func(m *model) {
		m.pk = column
	}
}

// New creates a Store over db.
func New(db *bun.DB) *Store {
	return &Store{db: db, models: make(map[string]model)}
}

// DB returns the underlying bun database.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Register binds typeName to the bun model T.
func Register[T any, PT interface {
	*T
	entity.Entity
}](s *Store, typeName string, opts ...Option) {
	m := model{
		pk:       "id",
		newOne:   func() any { return PT(new(T)) },
		newSlice: func() any { return new([]T) },
		entities: func(v any) []entity.Entity {
			rows := *(v.(*[]T))
			out := make([]entity.Entity, 0, len(rows))
			for i := range rows {
				out = append(out, PT(&rows[i]))
			}
			return out
		},
		entity: func(v any) entity.Entity { return v.(PT) },
	}
	for _, opt := range opts {
		opt(&m)
	}

	s.mu.Lock()
	s.models[typeName] = m
	s.mu.Unlock()
}

func (s *Store) model(typeName string) (model, error) {
	s.mu.RLock()
	m, ok := s.models[typeName]
	s.mu.RUnlock()
	if !ok {
		return model{}, fmt.Errorf("%w: %s", store.ErrUnknownType, typeName)
	}
	return m, nil
}

// FindByID implements store.Finder.
func (s *Store) FindByID(ctx context.Context, typeName string, id int64) (entity.Entity, error) {
	m, err := s.model(typeName)
	if err != nil {
		return nil, err
	}

	row := m.newOne()
	q := s.db.NewSelect().Model(row).Where("?TableAlias.? = ?", bun.Ident(m.pk), id).Limit(1)
	q = applyConditions(q, m.scope)
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m.entity(row), nil
}

// FindByIDs implements store.Finder.
func (s *Store) FindByIDs(ctx context.Context, typeName string, ids []int64) ([]entity.Entity, error) {
	m, err := s.model(typeName)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows := m.newSlice()
	q := s.db.NewSelect().Model(rows).Where("?TableAlias.? IN (?)", bun.Ident(m.pk), bun.In(ids))
	q = applyConditions(q, m.scope)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return m.entities(rows), nil
}

// SelectIDs implements store.Finder. Only the identity column is projected.
func (s *Store) SelectIDs(ctx context.Context, typeName string, filter store.Filter) ([]int64, error) {
	m, err := s.model(typeName)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0)
	q := s.db.NewSelect().Model(m.newOne()).ColumnExpr("?TableAlias.?", bun.Ident(m.pk))
	q = applyConditions(q, m.scope)
	q = applyFilter(q, filter)
	if err := q.Scan(ctx, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FindAll implements store.Finder.
func (s *Store) FindAll(ctx context.Context, typeName string, filter store.Filter) ([]entity.Entity, error) {
	m, err := s.model(typeName)
	if err != nil {
		return nil, err
	}

	rows := m.newSlice()
	q := s.db.NewSelect().Model(rows)
	q = applyConditions(q, m.scope)
	q = applyFilter(q, filter)
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return m.entities(rows), nil
}

// FindBySQL implements store.Finder.
func (s *Store) FindBySQL(ctx context.Context, typeName string, query string, args ...any) ([]entity.Entity, error) {
	m, err := s.model(typeName)
	if err != nil {
		return nil, err
	}

	rows := m.newSlice()
	if err := s.db.NewRaw(query, args...).Scan(ctx, rows); err != nil {
		return nil, err
	}
	return m.entities(rows), nil
}

// DeleteJoinRows implements store.JoinTableWriter.
func (s *Store) DeleteJoinRows(ctx context.Context, joinTable, foreignKey string, ownerID int64) (int64, error) {
	res, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(joinTable)).
		Where("? = ?", bun.Ident(foreignKey), ownerID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func applyConditions(q *bun.SelectQuery, conditions []store.Condition) *bun.SelectQuery {
	for _, c := range conditions {
		q = q.Where(c.SQL, c.Args...)
	}
	return q
}

func applyFilter(q *bun.SelectQuery, filter store.Filter) *bun.SelectQuery {
	for _, join := range filter.Joins {
		q = q.Join(join)
	}
	q = applyConditions(q, filter.Conditions)
	for _, order := range filter.Order {
		q = q.OrderExpr(order)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}
