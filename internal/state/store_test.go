package state

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gruyaume/goops/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/lexfrei/spring-music-operator/internal/hooktool"
	"github.com/lexfrei/spring-music-operator/internal/testutil"
)

func setupFakeClient(objs ...client.Object) client.Client {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))

	return fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build()
}

func TestConfigMapStore_GetMissingConfigMap(t *testing.T) {
	t.Parallel()

	store := NewConfigMapStore(setupFakeClient(), "dev", ConfigMapName("spring-music"))

	value, ok, err := store.Get(context.Background(), "k8s_service_patched")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestConfigMapStore_SetCreatesConfigMap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fakeClient := setupFakeClient()
	store := NewConfigMapStore(fakeClient, "dev", ConfigMapName("spring-music"))

	require.NoError(t, store.Set(ctx, "k8s_service_patched", "true"))

	configMap := &corev1.ConfigMap{}
	err := fakeClient.Get(ctx, types.NamespacedName{Namespace: "dev", Name: "spring-music-operator-state"}, configMap)
	require.NoError(t, err)
	assert.Equal(t, "true", configMap.Data["k8s_service_patched"])
	assert.Equal(t, "spring-music-operator", configMap.Labels["app.kubernetes.io/managed-by"])

	value, ok, err := store.Get(ctx, "k8s_service_patched")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)
}

func TestConfigMapStore_SetKeepsOtherKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	existing := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "spring-music-operator-state",
			Namespace: "dev",
		},
		Data: map[string]string{"other": "value"},
	}

	fakeClient := setupFakeClient(existing)
	store := NewConfigMapStore(fakeClient, "dev", "spring-music-operator-state")

	require.NoError(t, store.Set(ctx, "k8s_service_patched", "true"))

	configMap := &corev1.ConfigMap{}
	err := fakeClient.Get(ctx, types.NamespacedName{Namespace: "dev", Name: "spring-music-operator-state"}, configMap)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"other": "value", "k8s_service_patched": "true"}, configMap.Data)
}

func TestConfigMapStore_SetWithNilData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	existing := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "spring-music-operator-state",
			Namespace: "dev",
		},
	}

	store := NewConfigMapStore(setupFakeClient(existing), "dev", "spring-music-operator-state")

	require.NoError(t, store.Set(ctx, "k8s_service_patched", "false"))

	value, ok, err := store.Get(ctx, "k8s_service_patched")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", value)
}

func TestHookToolStore_RoundTrip(t *testing.T) {
	t.Parallel()

	cmds := &testutil.MockCommands{}
	cmds.On("StateSet", &commands.StateSetOptions{Key: "k8s_service_patched", Value: "true"}).Return(nil)
	cmds.On("StateGet", &commands.StateGetOptions{Key: "k8s_service_patched"}).Return("true", nil)

	store := NewHookToolStore(hooktool.New(cmds))
	ctx := context.Background()

	require.NoError(t, SetBool(ctx, store, "k8s_service_patched", true))

	patched, err := GetBool(ctx, store, "k8s_service_patched")
	require.NoError(t, err)
	assert.True(t, patched)
	cmds.AssertExpectations(t)
}

func TestHookToolStore_GetError(t *testing.T) {
	t.Parallel()

	cmds := &testutil.MockCommands{}
	cmds.On("StateGet", &commands.StateGetOptions{Key: "k8s_service_patched"}).Return("", errors.New("exit status 2"))

	store := NewHookToolStore(hooktool.New(cmds))

	_, _, err := store.Get(context.Background(), "k8s_service_patched")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read state key k8s_service_patched")
}

type plainStore struct{}

func (plainStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (plainStore) Set(context.Context, string, string) error         { return nil }

func TestApplicationScoped(t *testing.T) {
	t.Parallel()

	assert.True(t, ApplicationScoped(NewConfigMapStore(setupFakeClient(), "dev", "spring-music-operator-state")))
	assert.False(t, ApplicationScoped(NewHookToolStore(hooktool.New(&testutil.MockCommands{}))))
	assert.False(t, ApplicationScoped(plainStore{}))
}

func TestGetBool_UnsetIsFalse(t *testing.T) {
	t.Parallel()

	store := NewConfigMapStore(setupFakeClient(), "dev", "spring-music-operator-state")

	patched, err := GetBool(context.Background(), store, "k8s_service_patched")

	require.NoError(t, err)
	assert.False(t, patched)
}

func TestGetBool_RejectsGarbage(t *testing.T) {
	t.Parallel()

	existing := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "spring-music-operator-state",
			Namespace: "dev",
		},
		Data: map[string]string{"k8s_service_patched": "maybe"},
	}

	store := NewConfigMapStore(setupFakeClient(existing), "dev", "spring-music-operator-state")

	_, err := GetBool(context.Background(), store, "k8s_service_patched")

	require.Error(t, err)
}
