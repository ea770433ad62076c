package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// Entity is an in-memory object representing one persisted row.
type Entity interface {
	EntityID() int64
}

// Typed is implemented by entities that know their own type name, typically
// single table inheritance models whose runtime type is stored in a column.
type Typed interface {
	EntityType() string
}

// Ref identifies one persisted row. Type is always the base type closest to
// the ORM root.
type Ref struct {
	Type string
	ID   int64
}

// String renders the ref in cache key form.
func (r Ref) String() string {
	return r.Type + KeySeparator + strconv.FormatInt(r.ID, 10)
}

// ParseKey splits a cache key back into its ref.
func ParseKey(key string) (Ref, error) {
	idx := strings.LastIndex(key, KeySeparator)
	if idx <= 0 {
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	id, err := strconv.ParseInt(key[idx+len(KeySeparator):], 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	return Ref{Type: key[:idx], ID: id}, nil
}

// IDs collects the identities of the given entities, preserving order.
func IDs(entities []Entity) []int64 {
	ids := make([]int64, 0, len(entities))
	for _, e := range entities {
		if e == nil {
			continue
		}
		ids = append(ids, e.EntityID())
	}
	return ids
}

// Unique returns ids with duplicates removed, keeping first occurrences.
func Unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
