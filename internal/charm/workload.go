package charm

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/spring-music-operator/internal/config"
	"github.com/lexfrei/spring-music-operator/internal/hooktool"
	"github.com/lexfrei/spring-music-operator/internal/relation"
	"github.com/lexfrei/spring-music-operator/internal/workload"
)

// Pebble layer of the Spring Music service.
const (
	ServiceName  = "spring-music"
	LayerLabel   = "spring-music"
	Command      = "/cnb/process/web"
	layerSummary = "application layer"
	layerDesc    = "Pebble config layer for the Spring Music application"
	svcSummary   = "Spring Music application"
)

// Spring profiles selected by the presence of a log sink.
const (
	ProfilesDefault = "production"
	ProfilesLoki    = "production,loki-logging"
)

// Environment variables passed to Spring Music.
const (
	EnvContextPath     = "SERVER_SERVLET_CONTEXT_PATH"
	EnvCharm           = "JUJU_CHARM"
	EnvModel           = "JUJU_MODEL"
	EnvModelUUID       = "JUJU_MODEL_UUID"
	EnvApplication     = "JUJU_APPLICATION"
	EnvUnit            = "JUJU_UNIT"
	EnvProfilesActive  = "SPRING_PROFILES_ACTIVE"
	EnvLokiPushAPIURL  = "LOKI_PUSH_API_URL"
	defaultContextPath = "/"
)

// ContextPath returns the servlet context path matching the ingress URL, or
// "/" while ingress is not ready.
func ContextPath(ingress relation.Ingress) (string, error) {
	if !ingress.Ready {
		return defaultContextPath, nil
	}

	parsed, err := url.Parse(ingress.URL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid ingress url %q", ingress.URL)
	}

	if parsed.Path == "" {
		return defaultContextPath, nil
	}

	return parsed.Path, nil
}

// BuildEnvironment computes the environment of the spring-music service.
func BuildEnvironment(identity config.Identity, contextPath string, lokiEndpoints []relation.LokiEndpoint) map[string]string {
	env := map[string]string{
		EnvContextPath: contextPath,
		EnvCharm:       identity.Charm,
		EnvModel:       identity.Model,
		EnvModelUUID:   identity.ModelUUID,
		EnvApplication: identity.Application,
		EnvUnit:        identity.Unit,
	}

	// Without a log sink the Loki URL is left out entirely, so the replaced
	// layer drops a URL set by an earlier one.
	if len(lokiEndpoints) > 0 {
		env[EnvProfilesActive] = ProfilesLoki
		env[EnvLokiPushAPIURL] = lokiEndpoints[0].URL
	} else {
		env[EnvProfilesActive] = ProfilesDefault
	}

	return env
}

// BuildLayer wraps env into the spring-music Pebble layer.
func BuildLayer(env map[string]string) *workload.Layer {
	return &workload.Layer{
		Summary:     layerSummary,
		Description: layerDesc,
		Services: map[string]workload.Service{
			ServiceName: {
				Override:    workload.OverrideReplace,
				Summary:     svcSummary,
				Command:     Command,
				Environment: env,
			},
		},
	}
}

//nolint:funlen // sequential steps with a status update between each
func (c *Charm) reconcileWorkload(ctx context.Context) error {
	if !c.Supervisor.CanConnect(ctx) {
		return c.setStatus(ctx, hooktool.StatusWaiting, fmt.Sprintf("container '%s' not yet ready", c.Container))
	}

	ingress, err := c.Relations.Ingress(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read ingress")
	}

	contextPath, err := ContextPath(ingress)
	if err != nil {
		return err
	}

	c.Logger.V(1).Info("servlet context path", "contextPath", contextPath, "ingressURL", ingress.URL)

	lokiEndpoints, err := c.Relations.LokiEndpoints(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read loki endpoints")
	}

	env := BuildEnvironment(c.Identity, contextPath, lokiEndpoints)
	c.Logger.V(1).Info("loki push api url", "url", env[EnvLokiPushAPIURL])

	layer := BuildLayer(env)

	plan, err := c.Supervisor.Plan(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get plan")
	}

	if plan.Satisfies(layer) {
		c.Logger.V(1).Info("no differences found in the pebble plan, no restart needed")

		return c.setStatus(ctx, hooktool.StatusActive, "")
	}

	if err := c.setStatus(ctx, hooktool.StatusMaintenance, fmt.Sprintf("updating the %s service", ServiceName)); err != nil {
		return err
	}

	if err := c.Supervisor.AddLayer(ctx, LayerLabel, layer, true); err != nil {
		return errors.Wrap(err, "failed to add layer")
	}

	c.metrics().RecordLayerUpdate(ctx, ServiceName)

	stopMsg := fmt.Sprintf("stopping the '%s' service to update the configurations", ServiceName)
	if err := c.setStatus(ctx, hooktool.StatusMaintenance, stopMsg); err != nil {
		return err
	}

	restarted, err := c.stopService(ctx)
	if err != nil {
		return err
	}

	if err := c.setStatus(ctx, hooktool.StatusMaintenance, fmt.Sprintf("starting the '%s' service", ServiceName)); err != nil {
		return err
	}

	if err := c.Supervisor.Start(ctx, ServiceName); err != nil {
		return errors.Wrapf(err, "failed to start %s", ServiceName)
	}

	c.metrics().RecordServiceStart(ctx, ServiceName, restarted)

	if restarted {
		c.Logger.Info("spring music restarted")
	} else {
		c.Logger.Info("spring music started")
	}

	return c.setStatus(ctx, hooktool.StatusActive, "")
}

// stopService stops the service if it is running and reports whether it did.
func (c *Charm) stopService(ctx context.Context) (bool, error) {
	info, err := c.Supervisor.Service(ctx, ServiceName)
	if errors.Is(err, workload.ErrServiceNotFound) {
		c.Logger.V(1).Info("service not created yet, nothing to stop", "service", ServiceName)

		return false, nil
	}

	if err != nil {
		return false, errors.Wrapf(err, "failed to get %s", ServiceName)
	}

	if !info.Running {
		return false, nil
	}

	c.Logger.Info("stopping spring music")

	if err := c.Supervisor.Stop(ctx, ServiceName); err != nil {
		return false, errors.Wrapf(err, "failed to stop %s", ServiceName)
	}

	return true, nil
}
