// Package state provides durable key/value storage for charm state that must
// survive between hook invocations.
package state

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Backend names accepted by the state-backend setting.
const (
	BackendJuju      = "juju"
	BackendConfigMap = "configmap"
)

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value stored under key. The boolean is false when the
	// key has never been set.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
}

// Scoped is implemented by stores that know whether every unit of the
// application reads and writes the same data.
type Scoped interface {
	ApplicationScoped() bool
}

// ApplicationScoped reports whether store is shared by every unit of the
// application. Stores that do not say are treated as unit-scoped.
func ApplicationScoped(store Store) bool {
	scoped, ok := store.(Scoped)

	return ok && scoped.ApplicationScoped()
}

// GetBool reads a boolean flag. Unset keys read as false.
func GetBool(ctx context.Context, store Store, key string) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}

	if !ok || raw == "" {
		return false, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(err, "state key %s holds a non-boolean value %q", key, raw)
	}

	return value, nil
}

// SetBool stores a boolean flag.
func SetBool(ctx context.Context, store Store, key string, value bool) error {
	return store.Set(ctx, key, strconv.FormatBool(value))
}
