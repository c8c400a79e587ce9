// Package hooktool gives the charm typed, context-aware access to the Juju
// hook tools through goops.
//
// goops runs the tools and decodes their output; this package narrows it to
// the calls the charm makes and gives them the signatures the state and
// relation packages expect.
package hooktool

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gruyaume/goops/commands"
)

// Status is a unit workload status understood by status-set.
type Status string

// Workload statuses a charm may set.
const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusWaiting     Status = "waiting"
	StatusBlocked     Status = "blocked"
)

// Commands is the subset of the goops hook commands the charm uses.
// *commands.Command from goops.NewHookContext satisfies it.
type Commands interface {
	IsLeader() (bool, error)
	StatusSet(opts *commands.StatusSetOptions) error
	StateGet(opts *commands.StateGetOptions) (string, error)
	StateSet(opts *commands.StateSetOptions) error
	RelationIDs(opts *commands.RelationIDsOptions) ([]string, error)
	RelationList(opts *commands.RelationListOptions) ([]string, error)
	RelationGet(opts *commands.RelationGetOptions) (map[string]string, error)
	RelationSet(opts *commands.RelationSetOptions) error
}

// Tools adapts goops hook commands to the charm's interfaces.
type Tools struct {
	cmds Commands
}

// New creates Tools over cmds.
func New(cmds Commands) *Tools {
	return &Tools{cmds: cmds}
}

// IsLeader reports whether this unit currently holds application leadership.
func (t *Tools) IsLeader(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Wrap(err, "is-leader cancelled")
	}

	leader, err := t.cmds.IsLeader()
	if err != nil {
		return false, errors.Wrap(err, "failed to run is-leader")
	}

	return leader, nil
}

// StatusSet sets the workload status of this unit.
func (t *Tools) StatusSet(ctx context.Context, status Status, message string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "status-set cancelled")
	}

	err := t.cmds.StatusSet(&commands.StatusSetOptions{
		Name:    commands.StatusName(status),
		Message: message,
	})

	return errors.Wrapf(err, "failed to set %s status", status)
}

// StateGet reads a key from the unit's server-side state. The boolean is false
// when the key has never been set. state-get prints nothing for a missing key,
// so an empty value reads as unset.
func (t *Tools) StateGet(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, errors.Wrap(err, "state-get cancelled")
	}

	value, err := t.cmds.StateGet(&commands.StateGetOptions{Key: key})
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get state key %s", key)
	}

	return value, value != "", nil
}

// StateSet stores a key in the unit's server-side state.
func (t *Tools) StateSet(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "state-set cancelled")
	}

	err := t.cmds.StateSet(&commands.StateSetOptions{Key: key, Value: value})

	return errors.Wrapf(err, "failed to set state key %s", key)
}

// RelationIDs lists the ids of all relations established on an endpoint.
func (t *Tools) RelationIDs(ctx context.Context, endpoint string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "relation-ids cancelled")
	}

	ids, err := t.cmds.RelationIDs(&commands.RelationIDsOptions{Name: endpoint})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list relations on %s", endpoint)
	}

	return ids, nil
}

// RelationList lists the remote units participating in a relation.
func (t *Tools) RelationList(ctx context.Context, relationID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "relation-list cancelled")
	}

	units, err := t.cmds.RelationList(&commands.RelationListOptions{ID: relationID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list units of relation %s", relationID)
	}

	return units, nil
}

// RelationGet reads the databag of a relation member. When app is true the
// member is an application name and its application databag is returned.
func (t *Tools) RelationGet(
	ctx context.Context,
	relationID, member string,
	app bool,
) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "relation-get cancelled")
	}

	data, err := t.cmds.RelationGet(&commands.RelationGetOptions{
		ID:     relationID,
		UnitID: member,
		App:    app,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s databag on relation %s", member, relationID)
	}

	if data == nil {
		data = map[string]string{}
	}

	return data, nil
}

// RelationSet writes keys into the local databag of a relation. The
// application databag is written when app is true, which requires leadership.
func (t *Tools) RelationSet(ctx context.Context, relationID string, app bool, data map[string]string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "relation-set cancelled")
	}

	err := t.cmds.RelationSet(&commands.RelationSetOptions{
		ID:   relationID,
		App:  app,
		Data: data,
	})

	return errors.Wrapf(err, "failed to set data on relation %s", relationID)
}
