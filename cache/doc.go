// Package cache provides the storage primitive a result cache sits on, with
// several backend implementations and a generic decoding helper.
//
// # Store Interface
//
// The [Store] interface defines five operations: [Store.Set], [Store.Add],
// [Store.Get], [Store.Remove] and [Store.Close]. Every entry carries an
// absolute deadline. Once it passes, the entry is invisible to Get and Add
// treats the slot as free. Reads never move the deadline.
//
// [Store.Add] is the insert-if-absent primitive: it stores the value only if
// no live entry exists and reports whether it did. A live entry is left
// untouched, which is not an error.
//
// The interface uses [any] for values rather than generics because Go does
// not allow generic methods on interfaces. Type safety comes from [Decode]
// and [GetContext].
//
// # Implementations
//
//   - [NewInMemory] keeps entries in a mutex-guarded map. Values are stored
//     as-is, so mutations to stored pointers are visible through the store.
//     A background goroutine sweeps expired entries every expiry check
//     interval. [WithMaxEntries] bounds the map; when it is full the entry
//     closest to its deadline is evicted.
//
//   - [NewSQLite] uses [modernc.org/sqlite] (pure Go, no CGO). Values are
//     msgpack BLOBs. Add is a single upsert that only overwrites rows whose
//     deadline has passed, so it stays atomic across processes sharing the
//     file.
//
//   - [NewRedis] uses [github.com/redis/go-redis/v9]. Set maps to SET with a
//     TTL and Add to SET NX, so expiry is native and no reaper is needed. The
//     caller owns the client; [Store.Close] is a no-op.
//
//   - [NewComposite] chains stores in order. Get returns the first hit, Set
//     and Remove apply to every tier. Add is decided by the last tier, and a
//     stored value is then copied into the tiers in front of it.
//
//   - [NewBreaker] routes every call of another store through a
//     [resilience.CircuitBreaker], failing fast while the backend is down.
//
// # Serialization
//
// The SQLite and Redis backends return values as [Encoded] msgpack payloads.
// [Decode] unmarshals those and type asserts everything else, so callers do
// not need to know which backend produced a value:
//
//	found, val, err := store.Get(ctx, key)
//	if found && err == nil {
//	    rows, err := cache.Decode[[]Row](val)
//	}
//
// Struct fields must be exported to survive serialization. Functions,
// channels and complex numbers cannot be stored in a serialized backend.
//
// # Timeouts
//
// The SQLite and Redis backends bound every operation with
// [DefaultQueryTimeout], adjustable with [WithQueryTimeout].
package cache
