package charm

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"

	"github.com/lexfrei/spring-music-operator/internal/config"
	"github.com/lexfrei/spring-music-operator/internal/event"
	"github.com/lexfrei/spring-music-operator/internal/hooktool"
	"github.com/lexfrei/spring-music-operator/internal/metrics"
	"github.com/lexfrei/spring-music-operator/internal/relation"
	"github.com/lexfrei/spring-music-operator/internal/servicepatch"
	"github.com/lexfrei/spring-music-operator/internal/state"
	"github.com/lexfrei/spring-music-operator/internal/workload"
)

// Unit is the local unit as seen through the hook tools.
type Unit interface {
	IsLeader(ctx context.Context) (bool, error)
	StatusSet(ctx context.Context, status hooktool.Status, message string) error
}

// Relations reads and publishes relation data.
type Relations interface {
	Ingress(ctx context.Context) (relation.Ingress, error)
	PublishIngressRequest(ctx context.Context, req relation.IngressRequest) error
	LokiEndpoints(ctx context.Context) ([]relation.LokiEndpoint, error)
	PublishScrapeJobs(ctx context.Context, metadata relation.ScrapeMetadata, jobs []relation.ScrapeJob) error
}

// ServicePatcher rewrites the ports of a Kubernetes Service.
type ServicePatcher interface {
	SetPorts(ctx context.Context, serviceName string, ports []servicepatch.Port) error
}

// Charm holds everything a hook handler needs. All collaborators are
// required except Metrics, which defaults to a no-op collector.
type Charm struct {
	Identity config.Identity

	// Port is the port Spring Music listens on.
	Port int

	// ClusterDomain is used to build the in-cluster host name for ingress.
	ClusterDomain string

	// Container is the name of the workload container.
	Container string

	Unit       Unit
	Supervisor workload.Supervisor
	Patcher    ServicePatcher
	Store      state.Store
	Relations  Relations
	Metrics    metrics.Collector
	Logger     logr.Logger
}

// Handle dispatches ev and records its duration and outcome.
func (c *Charm) Handle(ctx context.Context, ev event.Event) error {
	start := time.Now()

	err := c.Dispatch(ctx, ev)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		c.metrics().RecordHookError(ctx, ev.Hook, metrics.ClassifyKubernetesError(err))
	}

	c.metrics().RecordHookDuration(ctx, ev.Hook, status, time.Since(start))

	return err
}

// Dispatch runs the handlers for ev.
//
//nolint:cyclop // one case per event kind
func (c *Charm) Dispatch(ctx context.Context, ev event.Event) error {
	logger := c.Logger.WithValues("hook", ev.Hook, "event", ev.Kind.String())

	switch ev.Kind {
	case event.KindInstall:
		return c.patchService(ctx)

	case event.KindUpgrade:
		if err := c.reconcileWorkload(ctx); err != nil {
			return err
		}

		if err := c.retryServicePatch(ctx); err != nil {
			return err
		}

		return c.publishScrapeJobs(ctx)

	case event.KindLeaderElected:
		if err := c.retryServicePatch(ctx); err != nil {
			return err
		}

		if err := c.publishIngressRequest(ctx); err != nil {
			return err
		}

		return c.publishScrapeJobs(ctx)

	case event.KindApplicationReady:
		return c.reconcileWorkload(ctx)

	case event.KindIngressChanged:
		// The databag of a broken relation can no longer be written.
		if !strings.HasSuffix(ev.Hook, "-relation-broken") {
			if err := c.publishIngressRequest(ctx); err != nil {
				return err
			}
		}

		return c.reconcileWorkload(ctx)

	case event.KindLogSinkJoined:
		logger.V(1).Info("loki endpoint joined")

		return c.reconcileWorkload(ctx)

	case event.KindLogSinkDeparted:
		logger.V(1).Info("loki endpoint departed")

		return c.reconcileWorkload(ctx)

	case event.KindMetricsEndpointChanged:
		return c.publishScrapeJobs(ctx)

	case event.KindUnknown:
	}

	logger.V(1).Info("no handler for hook")

	return nil
}

func (c *Charm) setStatus(ctx context.Context, status hooktool.Status, message string) error {
	if err := c.Unit.StatusSet(ctx, status, message); err != nil {
		return errors.Wrapf(err, "failed to set %s status", status)
	}

	c.metrics().RecordUnitStatus(ctx, string(status))

	return nil
}

func (c *Charm) isLeader(ctx context.Context) (bool, error) {
	leader, err := c.Unit.IsLeader(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to check leadership")
	}

	return leader, nil
}

func (c *Charm) metrics() metrics.Collector {
	if c.Metrics == nil {
		return metrics.NewNoopCollector()
	}

	return c.Metrics
}
