package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Relation interfaces the charm integrates with.
const (
	InterfaceIngress          = "ingress"
	InterfaceLokiPushAPI      = "loki_push_api"
	InterfacePrometheusScrape = "prometheus_scrape"
)

// Default endpoint names, used when metadata.yaml does not declare an
// endpoint for the interface.
const (
	DefaultContainer       = "application"
	DefaultIngressEndpoint = "ingress"
	DefaultLoggingEndpoint = "logging"
	DefaultMetricsEndpoint = "metrics-endpoint"
)

// RelationSpec is a relation endpoint declared in metadata.yaml.
type RelationSpec struct {
	Interface string `yaml:"interface"`
	Limit     int    `yaml:"limit,omitempty"`
	Optional  bool   `yaml:"optional,omitempty"`
}

// ContainerSpec is a workload container declared in metadata.yaml.
type ContainerSpec struct {
	Resource string `yaml:"resource,omitempty"`
}

// Metadata is the subset of metadata.yaml the charm reads.
type Metadata struct {
	Name       string                   `yaml:"name"`
	Summary    string                   `yaml:"summary,omitempty"`
	Containers map[string]ContainerSpec `yaml:"containers,omitempty"`
	Requires   map[string]RelationSpec  `yaml:"requires,omitempty"`
	Provides   map[string]RelationSpec  `yaml:"provides,omitempty"`
}

// Endpoints names the container and relation endpoints events refer to.
type Endpoints struct {
	Container string
	Ingress   string
	Logging   string
	Metrics   string
}

// DefaultEndpoints returns the endpoint names used by the published charm.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Container: DefaultContainer,
		Ingress:   DefaultIngressEndpoint,
		Logging:   DefaultLoggingEndpoint,
		Metrics:   DefaultMetricsEndpoint,
	}
}

// LoadMetadata reads metadata.yaml from charmDir.
func LoadMetadata(charmDir string) (*Metadata, error) {
	if charmDir == "" {
		return nil, errors.New("charm directory is required")
	}

	path := filepath.Join(charmDir, "metadata.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	metadata := &Metadata{}

	if err := yaml.Unmarshal(data, metadata); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	if metadata.Name == "" {
		return nil, errors.Newf("%s does not declare a charm name", path)
	}

	return metadata, nil
}

// Endpoints resolves endpoint names from the declared relations by interface.
func (m *Metadata) Endpoints() Endpoints {
	endpoints := DefaultEndpoints()

	if name, ok := endpointFor(m.Requires, InterfaceIngress); ok {
		endpoints.Ingress = name
	}

	if name, ok := endpointFor(m.Requires, InterfaceLokiPushAPI); ok {
		endpoints.Logging = name
	}

	if name, ok := endpointFor(m.Provides, InterfacePrometheusScrape); ok {
		endpoints.Metrics = name
	}

	if len(m.Containers) > 0 {
		containers := make([]string, 0, len(m.Containers))
		for name := range m.Containers {
			containers = append(containers, name)
		}

		sort.Strings(containers)

		if _, ok := m.Containers[DefaultContainer]; !ok {
			endpoints.Container = containers[0]
		}
	}

	return endpoints
}

func endpointFor(relations map[string]RelationSpec, iface string) (string, bool) {
	names := make([]string, 0, len(relations))
	for name := range relations {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if relations[name].Interface == iface {
			return name, true
		}
	}

	return "", false
}
