// Package resultcache caches the results of expensive queries, keyed by an
// opaque fingerprint of the query and its parameters.
//
// # Operations
//
// A [ResultCache] exposes four operations:
//
//   - [ResultCache.Add] stores a result for a fixed duration. If a live entry
//     already exists for the fingerprint the call is a silent no-op, so cache
//     population code can run more than once without special cases.
//   - [ResultCache.AddOrReplace] does the same but can replace the existing
//     entry when overwrite is true.
//   - [ResultCache.Get] returns the live result, or false. It never fails.
//   - [ResultCache.Purge] drops an entry before it expires.
//
// Entries expire at an absolute deadline computed when they are inserted
// (insert time plus duration). Reads do not extend it. The deadline is
// produced by an [ExpirationPolicy]; [AbsolutePolicy] is the default.
//
// # Fingerprints and tokens
//
// The fingerprint type K only needs to be comparable. The cache never looks
// inside it. Each fingerprint is assigned a token of the form
// "<name>:<uuid>" the first time it is added, and that token is what the
// store sees. The assignment is permanent: purging or expiring an entry does
// not release the token, and adding the fingerprint again reuses it.
// Concurrent first adds of the same fingerprint are serialized so they agree
// on a single token.
//
// The fingerprint package provides a ready-made key type built from query
// text and parameters:
//
//	c, err := resultcache.New[fingerprint.Key, []Order]("orders", resultcache.Config{})
//	key := fingerprint.MustNew("SELECT * FROM orders WHERE customer = ?", id)
//	if orders, ok := c.Get(key); ok {
//	    return orders, nil
//	}
//
// # Stores
//
// Storage is delegated to a [cache.Store] selected by [Config.Backend]: an
// in-process map (default), SQLite, Redis, or an in-process map tiered in
// front of Redis. The in-process store hands back the exact value that was
// added. SQLite and Redis serialize values with msgpack, so V must be
// encodable and its fields exported.
//
// # Errors
//
// Only construction can fail. [New] returns an error matching
// [ErrConfiguration] when the store cannot be built. After that, store
// failures are logged and counted in [Stats] but never returned: Get reports
// a miss and Add, AddOrReplace and Purge do nothing.
package resultcache
