// Package loader reconciles ordered identity lists against the cache.
//
// BatchLoader.Retrieve is the single code path every bulk lookup funnels
// through: keys are built for each identity, present entries are taken from
// the store, all missing identities are fetched in one store query, fetched
// rows are written back, and the result is reassembled in input order.
//
//	ids := []int64{5, 5, 7}
//	users, err := batch.Retrieve(ctx, "User", ids)
//	// one query for {5, 7}; users is [user5, user5, user7]
//
// Identities whose rows no longer exist are dropped from the output. A result
// shorter than its input means some identities were stale, not that the call
// failed.
//
// Cached entries are never checked for staleness. Callers that mutate rows are
// responsible for calling Invalidate afterwards.
package loader
