package state

import (
	"context"

	"github.com/cockroachdb/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const managedByLabel = "app.kubernetes.io/managed-by"

// ConfigMapStore keeps state in a ConfigMap in the model namespace, so it is
// shared by every unit of the application and outlives any single unit.
type ConfigMapStore struct {
	client    client.Client
	namespace string
	name      string
}

// NewConfigMapStore creates a store backed by the ConfigMap namespace/name.
func NewConfigMapStore(c client.Client, namespace, name string) *ConfigMapStore {
	return &ConfigMapStore{
		client:    c,
		namespace: namespace,
		name:      name,
	}
}

// ConfigMapName returns the name of the state ConfigMap for an application.
func ConfigMapName(application string) string {
	return application + "-operator-state"
}

// Get reads key from the ConfigMap. A missing ConfigMap reads as empty state.
func (s *ConfigMapStore) Get(ctx context.Context, key string) (string, bool, error) {
	configMap := &corev1.ConfigMap{}

	err := s.client.Get(ctx, types.NamespacedName{Namespace: s.namespace, Name: s.name}, configMap)
	if apierrors.IsNotFound(err) {
		return "", false, nil
	}

	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get configmap %s/%s", s.namespace, s.name)
	}

	value, ok := configMap.Data[key]

	return value, ok, nil
}

// Set writes key into the ConfigMap, creating it on first use.
func (s *ConfigMapStore) Set(ctx context.Context, key, value string) error {
	configMap := &corev1.ConfigMap{}

	err := s.client.Get(ctx, types.NamespacedName{Namespace: s.namespace, Name: s.name}, configMap)
	if apierrors.IsNotFound(err) {
		return s.create(ctx, key, value)
	}

	if err != nil {
		return errors.Wrapf(err, "failed to get configmap %s/%s", s.namespace, s.name)
	}

	base := configMap.DeepCopy()

	if configMap.Data == nil {
		configMap.Data = map[string]string{}
	}

	configMap.Data[key] = value

	if err := s.client.Patch(ctx, configMap, client.MergeFrom(base)); err != nil {
		return errors.Wrapf(err, "failed to patch configmap %s/%s", s.namespace, s.name)
	}

	return nil
}

func (s *ConfigMapStore) create(ctx context.Context, key, value string) error {
	configMap := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      s.name,
			Namespace: s.namespace,
			Labels: map[string]string{
				managedByLabel: "spring-music-operator",
			},
		},
		Data: map[string]string{key: value},
	}

	if err := s.client.Create(ctx, configMap); err != nil {
		return errors.Wrapf(err, "failed to create configmap %s/%s", s.namespace, s.name)
	}

	return nil
}

// ApplicationScoped is true: every unit reads the same ConfigMap.
func (s *ConfigMapStore) ApplicationScoped() bool {
	return true
}

var (
	_ Store  = (*ConfigMapStore)(nil)
	_ Scoped = (*ConfigMapStore)(nil)
)
