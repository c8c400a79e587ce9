package charm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/lexfrei/spring-music-operator/internal/metrics"
	"github.com/lexfrei/spring-music-operator/internal/servicepatch"
	"github.com/lexfrei/spring-music-operator/internal/state"
)

// kubeClient builds the Kubernetes client on first use. Hooks that only talk
// to Pebble and the hook tools never load a kubeconfig.
type kubeClient struct {
	build func() (client.Client, error)

	once   sync.Once
	client client.Client
	err    error
}

func newKubeClient(build func() (client.Client, error)) *kubeClient {
	return &kubeClient{build: build}
}

func (k *kubeClient) get() (client.Client, error) {
	k.once.Do(func() {
		k.client, k.err = k.build()
	})

	return k.client, k.err
}

func buildKubeClient() (client.Client, error) {
	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load kubernetes config")
	}

	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))

	kube, err := client.New(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kubernetes client")
	}

	return kube, nil
}

// lazyPatcher is a servicepatch.Patcher that connects on the first patch.
// A client that cannot be built is a failed patch, retried on a later hook.
type lazyPatcher struct {
	kube      *kubeClient
	namespace string
	collector metrics.Collector
}

func (p *lazyPatcher) SetPorts(ctx context.Context, serviceName string, ports []servicepatch.Port) error {
	kube, err := p.kube.get()
	if err != nil {
		return &servicepatch.PatchFailedError{Namespace: p.namespace, Service: serviceName, Err: err}
	}

	return servicepatch.NewPatcher(kube, p.namespace, p.collector).SetPorts(ctx, serviceName, ports)
}

// lazyConfigMapStore is a state.ConfigMapStore that connects on first access.
type lazyConfigMapStore struct {
	kube      *kubeClient
	namespace string
	name      string
}

func (s *lazyConfigMapStore) store() (*state.ConfigMapStore, error) {
	kube, err := s.kube.get()
	if err != nil {
		return nil, err
	}

	return state.NewConfigMapStore(kube, s.namespace, s.name), nil
}

func (s *lazyConfigMapStore) Get(ctx context.Context, key string) (string, bool, error) {
	store, err := s.store()
	if err != nil {
		return "", false, err
	}

	return store.Get(ctx, key)
}

func (s *lazyConfigMapStore) Set(ctx context.Context, key, value string) error {
	store, err := s.store()
	if err != nil {
		return err
	}

	return store.Set(ctx, key, value)
}

func (s *lazyConfigMapStore) ApplicationScoped() bool {
	return true
}

var (
	_ ServicePatcher = (*lazyPatcher)(nil)
	_ state.Store    = (*lazyConfigMapStore)(nil)
	_ state.Scoped   = (*lazyConfigMapStore)(nil)
)
