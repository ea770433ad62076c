// Package repositorycache decorates go-repository-bun repositories so their
// identity lookups share the association cache.
//
// # Overview
//
// A CachedRepository wraps a base repository for one entity type. GetByID
// without criteria is served from the record's cache slot, the same slot
// association loaders read and write, so a user loaded through
// account.users is a cache hit for users.GetByID and vice versa.
//
//	batch := loader.New(store, codec, finder)
//	users := repositorycache.New[*User](base, batch, "User",
//		repositorycache.WithInvalidationPolicy(repositorycache.InvalidateOnMutation),
//	)
//	user, err := users.GetByID(ctx, "42")
//
// # Cached vs Pass-through Operations
//
//   - GetByID (no criteria, numeric id) reads through the slot.
//   - GetByIDs reconciles an identity list through the BatchLoader.
//   - Get, GetByIdentifier and List go to the base repository and write the
//     records they return into their slots.
//   - Count, Raw and every *Tx read pass through untouched.
//
// When the caching switch is off, or the context was built with
// WithoutCache, every read goes to the base repository.
//
// # Invalidation
//
// Cached records are never checked for staleness. The InvalidationPolicy
// decides who drops slots after a write:
//
//   - InvalidateExplicit (default): nobody. Callers call
//     BatchLoader.Invalidate after mutating rows.
//   - InvalidateOnMutation: successful updates, upserts and deletes drop the
//     slots of the records involved. Criteria based deletes drop every slot
//     of the type.
//
// Creates never invalidate; a new row has no slot yet.
//
// # Join rows
//
// With WithRegistry, Delete and ForceDelete first remove the record's rows
// from every many-to-many join table registered for its type. Transactional
// deletes leave join rows to the caller's transaction.
//
// # Compatibility
//
// CachedRepository[T] implements repository.Repository[T] from
// go-repository-bun and can replace the base repository wherever it is used.
package repositorycache
