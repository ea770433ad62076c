// Package store defines the persistent store collaborator the association
// cache loads through. Query construction stays on the store side: the cache
// only hands over type names, identities and filter fragments.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-association-cache/entity"
)

// ErrUnknownType is returned when a type name has no registered model.
var ErrUnknownType = errors.New("store: unknown entity type")

// Condition is a raw SQL predicate with positional "?" placeholders.
type Condition struct {
	SQL  string
	Args []any
}

// Where builds a Condition.
func Where(sql string, args ...any) Condition {
	return Condition{SQL: sql, Args: args}
}

// Filter narrows a query. Conditions are ANDed. Order entries are raw ORDER BY
// fragments applied in sequence. Joins are raw JOIN fragments.
type Filter struct {
	Conditions []Condition
	Joins      []string
	Order      []string
	Limit      int
}

// HasJoins reports whether the filter needs joins.
func (f Filter) HasJoins() bool {
	return len(f.Joins) > 0
}

// Finder is the read side of the persistent store.
type Finder interface {
	// FindByID returns the entity or nil when the row does not exist.
	FindByID(ctx context.Context, typeName string, id int64) (entity.Entity, error)
	// FindByIDs returns the entities whose identity is in ids, in no
	// particular order. Rows that no longer exist are simply absent.
	FindByIDs(ctx context.Context, typeName string, ids []int64) ([]entity.Entity, error)
	// SelectIDs runs an identity-only projection and returns identities in
	// query order.
	SelectIDs(ctx context.Context, typeName string, filter Filter) ([]int64, error)
	// FindAll materializes full entities in query order.
	FindAll(ctx context.Context, typeName string, filter Filter) ([]entity.Entity, error)
	// FindBySQL materializes entities from a raw query.
	FindBySQL(ctx context.Context, typeName string, query string, args ...any) ([]entity.Entity, error)
}

// JoinTableWriter deletes many-to-many join rows.
type JoinTableWriter interface {
	DeleteJoinRows(ctx context.Context, joinTable, foreignKey string, ownerID int64) (int64, error)
}
