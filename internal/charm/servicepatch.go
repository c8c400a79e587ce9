package charm

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/spring-music-operator/internal/metrics"
	"github.com/lexfrei/spring-music-operator/internal/servicepatch"
	"github.com/lexfrei/spring-music-operator/internal/state"
)

// FlagServicePatched is set once the application Service carries the right
// ports.
const FlagServicePatched = "k8s_service_patched"

// retryServicePatch runs the patch from hooks after install. A unit-scoped
// flag cannot tell a new leader that an earlier leader already patched, so
// with such a store the patch runs from install only.
func (c *Charm) retryServicePatch(ctx context.Context) error {
	if !state.ApplicationScoped(c.Store) {
		c.Logger.V(1).Info("charm state is unit-scoped, leaving the service patch to install")

		return nil
	}

	return c.patchService(ctx)
}

// patchService fixes the ports of the Service Juju created for the
// application. Only the leader patches, and only until it has succeeded once.
func (c *Charm) patchService(ctx context.Context) error {
	leader, err := c.isLeader(ctx)
	if err != nil {
		return err
	}

	if !leader {
		c.Logger.V(1).Info("not the leader, skipping service patch")
		c.metrics().RecordServicePatch(ctx, metrics.StatusSkipped)

		return nil
	}

	patched, err := state.GetBool(ctx, c.Store, FlagServicePatched)
	if err != nil {
		return errors.Wrap(err, "failed to read service patch flag")
	}

	if patched {
		c.Logger.V(1).Info("service already patched")
		c.metrics().RecordServicePatch(ctx, metrics.StatusSkipped)

		return nil
	}

	app := c.Identity.Application

	//nolint:gosec // port is validated to fit in 16 bits
	ports := []servicepatch.Port{{Name: app, Port: int32(c.Port), TargetPort: int32(c.Port)}}

	err = c.Patcher.SetPorts(ctx, app, ports)

	var patchErr *servicepatch.PatchFailedError
	if errors.As(err, &patchErr) {
		c.Logger.Error(err, "unable to patch the kubernetes service")
		c.metrics().RecordServicePatch(ctx, metrics.StatusError)

		return nil
	}

	if err != nil {
		return errors.Wrap(err, "failed to patch service")
	}

	if err := state.SetBool(ctx, c.Store, FlagServicePatched, true); err != nil {
		return errors.Wrap(err, "failed to record service patch")
	}

	c.metrics().RecordServicePatch(ctx, metrics.StatusSuccess)
	c.Logger.Info("successfully patched the kubernetes service", "service", app, "port", c.Port)

	return nil
}
