// Package association loads related entities for an owner through the
// association cache.
//
// Associations are declared as Descriptors and registered once per owner
// type. Registration fills naming defaults, validates the descriptor and
// picks a loading strategy:
//
//	BelongsTo, cached             SingleKeyLoader
//	HasMany, cached               ForeignKeyCollectionLoader
//	HasAndBelongsToMany, cached   JoinTableCollectionLoader
//	HasMany with Through          ThroughLoader (never cached)
//	anything else                 DirectLoader
//
// Every cached strategy computes an ordered identity list and hands it to
// loader.BatchLoader, so collections and single lookups share one
// reconciliation path. When the caching switch is off the cached strategies
// behave exactly like DirectLoader.
//
//	reg := association.NewRegistry(batch)
//	reg.MustRegister("Account", association.HasMany("users", association.Cached()))
//	users, err := reg.Load(ctx, account, "users", association.Request{})
package association
