package charm

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/lexfrei/spring-music-operator/internal/config"
	"github.com/lexfrei/spring-music-operator/internal/event"
	"github.com/lexfrei/spring-music-operator/internal/hooktool"
	"github.com/lexfrei/spring-music-operator/internal/metrics"
	"github.com/lexfrei/spring-music-operator/internal/relation"
	"github.com/lexfrei/spring-music-operator/internal/state"
	"github.com/lexfrei/spring-music-operator/internal/workload"
)

// Run wires the charm for the current hook and dispatches it.
//
// The function performs the following steps:
//  1. Wraps the goops hook commands and connects to Pebble
//  2. Selects the state store backend; the Kubernetes client is only built
//     once the store or the Service patch needs it
//  3. Classifies the hook and dispatches it
//  4. Writes hook metrics to the textfile, when configured
func Run(ctx context.Context, cfg *config.Config, cmds hooktool.Commands) error {
	logger := log.FromContext(ctx).WithName("charm").WithValues("unit", cfg.Unit)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	supervisor, err := workload.NewPebbleSupervisor(cfg.PebbleSocket, nil)
	if err != nil {
		return err
	}

	charm, err := newCharm(cfg, hooktool.New(cmds), supervisor, newKubeClient(buildKubeClient), collector, logger)
	if err != nil {
		return err
	}

	ev := event.Parse(cfg.Hook, cfg.Endpoints)
	logger.V(1).Info("dispatching hook", "hook", ev.Hook, "event", ev.Kind.String())

	handleErr := charm.Handle(ctx, ev)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile, registry); err != nil {
			logger.Error(err, "failed to write metrics textfile", "path", cfg.MetricsTextfile)
		}
	}

	return errors.Wrapf(handleErr, "failed to handle %s", cfg.Hook)
}

func newCharm(
	cfg *config.Config,
	tools *hooktool.Tools,
	supervisor workload.Supervisor,
	kube *kubeClient,
	collector metrics.Collector,
	logger logr.Logger,
) (*Charm, error) {
	store, err := newStore(cfg, tools, kube)
	if err != nil {
		return nil, err
	}

	return &Charm{
		Identity:      cfg.Identity,
		Port:          cfg.Port,
		ClusterDomain: cfg.ClusterDomain,
		Container:     cfg.Endpoints.Container,
		Unit:          tools,
		Supervisor:    supervisor,
		Patcher:       &lazyPatcher{kube: kube, namespace: cfg.Namespace(), collector: collector},
		Store:         store,
		Relations:     relation.NewClient(tools, cfg.Endpoints),
		Metrics:       collector,
		Logger:        logger,
	}, nil
}

func newStore(cfg *config.Config, tools state.StateTools, kube *kubeClient) (state.Store, error) {
	switch cfg.StateBackend {
	case state.BackendJuju:
		return state.NewHookToolStore(tools), nil
	case state.BackendConfigMap:
		return &lazyConfigMapStore{
			kube:      kube,
			namespace: cfg.Namespace(),
			name:      state.ConfigMapName(cfg.Application),
		}, nil
	}

	//nolint:wrapcheck // this is a new error, not wrapping external
	return nil, errors.Newf("unsupported state backend %q", cfg.StateBackend)
}
