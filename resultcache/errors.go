package resultcache

import "github.com/cockroachdb/errors"

// ErrConfiguration marks every error returned by New and LoadConfig when the
// underlying store cannot be built from the supplied options. A cache that
// failed this way must not be used; callers typically fall back to running
// their queries uncached.
var ErrConfiguration = errors.New("resultcache: configuration error")

func configErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

func wrapConfigError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrConfiguration)
}
