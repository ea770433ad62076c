package association

import (
	"github.com/goliatone/go-association-cache/entity"
	"github.com/goliatone/go-association-cache/store"
)

// Request carries caller options for one association load.
type Request struct {
	// IDs narrows a collection to the given identities, in the collection's
	// order. Ignored by belongs-to.
	IDs []int64
	// Conditions are ANDed with the association's own conditions.
	Conditions []store.Condition
	// Order is applied before the association's own order.
	Order []string
	// Joins are caller supplied join fragments. Their presence disables the
	// identity-only query.
	Joins []string
	// Limit caps the number of rows selected. Zero means no limit.
	Limit int
}

func (r Request) narrowed() bool {
	return len(r.IDs) > 0
}

// filter merges the request with the descriptor's own conditions and order.
func (r Request) filter(d Descriptor, own ...store.Condition) store.Filter {
	f := store.Filter{
		Joins: append([]string(nil), r.Joins...),
		Limit: r.Limit,
	}
	f.Conditions = append(f.Conditions, own...)
	f.Conditions = append(f.Conditions, d.Conditions...)
	f.Conditions = append(f.Conditions, r.Conditions...)
	f.Order = append(f.Order, r.Order...)
	if d.Order != "" {
		f.Order = append(f.Order, d.Order)
	}
	return f
}

// narrowIDs keeps the ids that were asked for, in selection order.
func narrowIDs(ids []int64, wanted []int64) []int64 {
	if len(wanted) == 0 {
		return ids
	}
	keep := make(map[int64]struct{}, len(wanted))
	for _, id := range wanted {
		keep[id] = struct{}{}
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// narrowEntities is narrowIDs over materialized rows.
func narrowEntities(rows []entity.Entity, wanted []int64) []entity.Entity {
	if len(wanted) == 0 {
		return rows
	}
	keep := make(map[int64]struct{}, len(wanted))
	for _, id := range wanted {
		keep[id] = struct{}{}
	}
	out := make([]entity.Entity, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if _, ok := keep[row.EntityID()]; ok {
			out = append(out, row)
		}
	}
	return out
}

// scan picks rows out of a collection materialized by a custom finder. A
// single id detects the first match; several ids select every match.
func scan(rows []entity.Entity, ids []int64) []entity.Entity {
	if len(ids) == 1 {
		for _, row := range rows {
			if row != nil && row.EntityID() == ids[0] {
				return []entity.Entity{row}
			}
		}
		return []entity.Entity{}
	}
	return narrowEntities(rows, ids)
}

func firstOf(list []entity.Entity) entity.Entity {
	if len(list) == 0 {
		return nil
	}
	return list[0]
}
