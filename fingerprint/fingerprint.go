// Package fingerprint derives comparable cache keys for queries.
//
// A Key is equal for two calls with the same query text and the same parameter
// values, so it can be used directly as the key type of a resultcache.ResultCache.
package fingerprint

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Key identifies a query together with its parameters.
type Key struct {
	// Sum is the xxhash64 of the canonical form.
	Sum uint64
	// canonical keeps equality exact even when two canonical forms collide on Sum.
	canonical string
}

// New returns the Key for query executed with params. Surrounding whitespace
// in query is ignored. The query and the parameters are encoded as one msgpack
// stream, so any value msgpack can encode is accepted and no query text can
// run into the parameters; map parameters are encoded with sorted keys.
func New(query string, params ...any) (Key, error) {
	var buf strings.Builder
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.EncodeString(strings.TrimSpace(query)); err != nil {
		return Key{}, errors.Wrap(err, "fingerprint: encoding query")
	}
	for i, p := range params {
		if err := enc.Encode(p); err != nil {
			return Key{}, errors.Wrapf(err, "fingerprint: encoding parameter %d", i)
		}
	}
	canonical := buf.String()
	return Key{Sum: xxhash.Sum64String(canonical), canonical: canonical}, nil
}

// MustNew is like New but panics if a parameter cannot be encoded.
func MustNew(query string, params ...any) Key {
	k, err := New(query, params...)
	if err != nil {
		panic(err)
	}
	return k
}

// IsZero reports whether k was never produced by New.
func (k Key) IsZero() bool {
	return k.Sum == 0 && k.canonical == ""
}

// String returns the hex form of Sum.
func (k Key) String() string {
	return strconv.FormatUint(k.Sum, 16)
}
