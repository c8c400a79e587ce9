package state

import (
	"context"

	"github.com/cockroachdb/errors"
)

// StateTools is the subset of hook tools backing HookToolStore.
type StateTools interface {
	StateGet(ctx context.Context, key string) (string, bool, error)
	StateSet(ctx context.Context, key, value string) error
}

// HookToolStore keeps state in the Juju controller through state-get and
// state-set. The state belongs to the unit and survives pod churn.
type HookToolStore struct {
	tools StateTools
}

// NewHookToolStore creates a store backed by the Juju state hook tools.
func NewHookToolStore(tools StateTools) *HookToolStore {
	return &HookToolStore{tools: tools}
}

// Get reads key with state-get.
func (s *HookToolStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.tools.StateGet(ctx, key)
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read state key %s", key)
	}

	return value, ok, nil
}

// Set writes key with state-set.
func (s *HookToolStore) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(s.tools.StateSet(ctx, key, value), "failed to write state key %s", key)
}

// ApplicationScoped is false: every unit has its own state-get data, so a new
// leader does not see what a previous leader stored.
func (s *HookToolStore) ApplicationScoped() bool {
	return false
}

var (
	_ Store  = (*HookToolStore)(nil)
	_ Scoped = (*HookToolStore)(nil)
)
