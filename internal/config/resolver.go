// Package config resolves the hook context and operator settings the charm
// runs with.
package config

import (
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/lexfrei/spring-music-operator/internal/state"
)

// Operator setting keys read from viper.
const (
	KeyCharmDir        = "charm-dir"
	KeyPebbleSocket    = "pebble-socket"
	KeyStateBackend    = "state-backend"
	KeyClusterDomain   = "cluster-domain"
	KeyMetricsTextfile = "metrics-textfile"
	KeyPort            = "port"
)

// Defaults for operator settings.
const (
	DefaultPort          = 8080
	DefaultClusterDomain = "cluster.local"
	DefaultStateBackend  = state.BackendConfigMap
)

//nolint:gochecknoglobals // parsed once, read-only
var hookToolStateConstraint = mustConstraint(">= 2.8.0")

// HookEnvironment is the hook context the Juju agent exports to the charm.
// The goops environment satisfies it.
type HookEnvironment interface {
	JujuHookName() string
	JujuUnitName() string
	JujuModelName() string
	JujuModelUUID() string
	JujuCharmDir() string
	JujuVersion() string
}

// Identity names this unit and the model it runs in.
type Identity struct {
	Charm       string
	Model       string
	ModelUUID   string
	Application string
	Unit        string
}

// Config is the fully resolved configuration for one hook invocation.
type Config struct {
	Identity

	// Hook is the name of the hook being dispatched, e.g. "install".
	Hook string

	// CharmDir is the directory holding metadata.yaml.
	CharmDir string

	// Metadata is the parsed metadata.yaml of the charm.
	Metadata *Metadata

	// Endpoints are the container and relation names resolved from Metadata.
	Endpoints Endpoints

	// JujuVersion is the agent version, nil when not reported or unparseable.
	JujuVersion *semver.Version

	// PebbleSocket is the Pebble socket of the workload container.
	PebbleSocket string

	// StateBackend selects where persistent charm state lives.
	StateBackend string

	// ClusterDomain is the Kubernetes cluster domain for service DNS names.
	ClusterDomain string

	// MetricsTextfile is where hook metrics are written. Empty disables it.
	MetricsTextfile string

	// Port is the port the workload listens on.
	Port int
}

// Namespace returns the Kubernetes namespace of the model. Juju names the
// namespace after the model.
func (c *Config) Namespace() string {
	return c.Model
}

// SupportsHookToolState reports whether the agent provides state-get and
// state-set. An unknown version is assumed to be recent.
func (c *Config) SupportsHookToolState() bool {
	if c.JujuVersion == nil {
		return true
	}

	return hookToolStateConstraint.Check(c.JujuVersion)
}

// PebbleSocketPath returns where Juju mounts the Pebble socket of container
// into the charm container.
func PebbleSocketPath(container string) string {
	return path.Join("/charm/containers", container, "pebble.socket")
}

// ParseJujuVersion parses an agent version. Juju reports builds as a fourth
// numeric segment ("2.9.44.1"), which is dropped. It returns nil when the
// version cannot be parsed.
func ParseJujuVersion(raw string) *semver.Version {
	if raw == "" {
		return nil
	}

	if version, err := semver.NewVersion(raw); err == nil {
		return version
	}

	core, pre, hasPre := strings.Cut(raw, "-")

	parts := strings.Split(core, ".")
	if len(parts) <= 3 {
		return nil
	}

	trimmed := strings.Join(parts[:3], ".")
	if hasPre {
		trimmed += "-" + pre
	}

	version, err := semver.NewVersion(trimmed)
	if err != nil {
		return nil
	}

	return version
}

// Load resolves and validates the configuration for the current hook from the
// agent environment and the operator settings in v.
//
//nolint:funlen,cyclop,wrapcheck // flat validation of every setting; errors.Newf creates new errors
func Load(v *viper.Viper, env HookEnvironment) (*Config, error) {
	cfg := &Config{
		Hook:            env.JujuHookName(),
		CharmDir:        v.GetString(KeyCharmDir),
		PebbleSocket:    v.GetString(KeyPebbleSocket),
		StateBackend:    v.GetString(KeyStateBackend),
		ClusterDomain:   v.GetString(KeyClusterDomain),
		MetricsTextfile: v.GetString(KeyMetricsTextfile),
		Port:            v.GetInt(KeyPort),
		JujuVersion:     ParseJujuVersion(env.JujuVersion()),
	}

	if cfg.Hook == "" {
		return nil, errors.New("no hook to dispatch: JUJU_HOOK_NAME is not set")
	}

	unit := env.JujuUnitName()

	application, _, found := strings.Cut(unit, "/")
	if !found || application == "" {
		return nil, errors.Newf("invalid unit name %q", unit)
	}

	modelUUID := env.JujuModelUUID()
	if _, err := uuid.Parse(modelUUID); err != nil {
		return nil, errors.Wrapf(err, "invalid model uuid %q", modelUUID)
	}

	model := env.JujuModelName()
	if model == "" {
		return nil, errors.New("model name is required")
	}

	if cfg.CharmDir == "" {
		cfg.CharmDir = env.JujuCharmDir()
	}

	metadata, err := LoadMetadata(cfg.CharmDir)
	if err != nil {
		return nil, err
	}

	cfg.Metadata = metadata
	cfg.Endpoints = metadata.Endpoints()
	cfg.Identity = Identity{
		Charm:       metadata.Name,
		Model:       model,
		ModelUUID:   modelUUID,
		Application: application,
		Unit:        unit,
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, errors.Newf("invalid port %d", cfg.Port)
	}

	if cfg.ClusterDomain == "" {
		cfg.ClusterDomain = DefaultClusterDomain
	}

	if cfg.PebbleSocket == "" {
		cfg.PebbleSocket = PebbleSocketPath(cfg.Endpoints.Container)
	}

	if cfg.StateBackend == "" {
		cfg.StateBackend = DefaultStateBackend
	}

	switch cfg.StateBackend {
	case state.BackendJuju:
		if !cfg.SupportsHookToolState() {
			return nil, errors.Newf(
				"juju %s does not provide state-get/state-set, use --state-backend=%s",
				cfg.JujuVersion, state.BackendConfigMap,
			)
		}
	case state.BackendConfigMap:
	default:
		return nil, errors.Newf("unsupported state backend %q", cfg.StateBackend)
	}

	return cfg, nil
}

func mustConstraint(raw string) *semver.Constraints {
	constraint, err := semver.NewConstraint(raw)
	if err != nil {
		panic(err)
	}

	return constraint
}
