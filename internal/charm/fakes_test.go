package charm

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/lexfrei/spring-music-operator/internal/config"
	"github.com/lexfrei/spring-music-operator/internal/hooktool"
	"github.com/lexfrei/spring-music-operator/internal/metrics"
	"github.com/lexfrei/spring-music-operator/internal/relation"
	"github.com/lexfrei/spring-music-operator/internal/servicepatch"
	"github.com/lexfrei/spring-music-operator/internal/testutil"
)

type statusUpdate struct {
	Status  hooktool.Status
	Message string
}

type fakeUnit struct {
	leader   bool
	statuses []statusUpdate
}

func (u *fakeUnit) IsLeader(_ context.Context) (bool, error) {
	return u.leader, nil
}

func (u *fakeUnit) StatusSet(_ context.Context, status hooktool.Status, message string) error {
	u.statuses = append(u.statuses, statusUpdate{Status: status, Message: message})

	return nil
}

func (u *fakeUnit) last() statusUpdate {
	if len(u.statuses) == 0 {
		return statusUpdate{}
	}

	return u.statuses[len(u.statuses)-1]
}

type fakeRelations struct {
	ingress        relation.Ingress
	lokiEndpoints  []relation.LokiEndpoint
	lokiErr        error
	reads          int
	ingressReqs    []relation.IngressRequest
	scrapeMetadata []relation.ScrapeMetadata
	scrapeJobs     [][]relation.ScrapeJob
}

func (r *fakeRelations) Ingress(_ context.Context) (relation.Ingress, error) {
	r.reads++

	return r.ingress, nil
}

func (r *fakeRelations) PublishIngressRequest(_ context.Context, req relation.IngressRequest) error {
	r.ingressReqs = append(r.ingressReqs, req)

	return nil
}

func (r *fakeRelations) LokiEndpoints(_ context.Context) ([]relation.LokiEndpoint, error) {
	r.reads++

	return r.lokiEndpoints, r.lokiErr
}

func (r *fakeRelations) PublishScrapeJobs(
	_ context.Context,
	metadata relation.ScrapeMetadata,
	jobs []relation.ScrapeJob,
) error {
	r.scrapeMetadata = append(r.scrapeMetadata, metadata)
	r.scrapeJobs = append(r.scrapeJobs, jobs)

	return nil
}

type fakePatcher struct {
	calls  []string
	ports  [][]servicepatch.Port
	err    error
	onCall func()
}

func (p *fakePatcher) SetPorts(_ context.Context, serviceName string, ports []servicepatch.Port) error {
	if p.onCall != nil {
		p.onCall()
	}

	p.calls = append(p.calls, serviceName)
	p.ports = append(p.ports, ports)

	return p.err
}

// memStore is shared by every unit of the application, like the ConfigMap
// store.
type memStore map[string]string

func (s memStore) ApplicationScoped() bool {
	return true
}

func (s memStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := s[key]

	return value, ok, nil
}

func (s memStore) Set(_ context.Context, key, value string) error {
	s[key] = value

	return nil
}

// unitStore belongs to a single unit, like the state-get store.
type unitStore struct {
	memStore
}

func (unitStore) ApplicationScoped() bool {
	return false
}

type fixture struct {
	charm      *Charm
	unit       *fakeUnit
	supervisor *testutil.FakeSupervisor
	relations  *fakeRelations
	patcher    *fakePatcher
	store      memStore
}

func testIdentity() config.Identity {
	return config.Identity{
		Charm:       "spring-music",
		Model:       "dev",
		ModelUUID:   "0f6a3c5e-7b1d-4f8e-9a2c-3d4e5f607182",
		Application: "spring-music",
		Unit:        "spring-music/0",
	}
}

func newFixture(leader bool, collector metrics.Collector) *fixture {
	f := &fixture{
		unit:       &fakeUnit{leader: leader},
		supervisor: testutil.NewFakeSupervisor(),
		relations:  &fakeRelations{},
		patcher:    &fakePatcher{},
		store:      memStore{},
	}

	f.charm = &Charm{
		Identity:      testIdentity(),
		Port:          8080,
		ClusterDomain: "cluster.local",
		Container:     "application",
		Unit:          f.unit,
		Supervisor:    f.supervisor,
		Patcher:       f.patcher,
		Store:         f.store,
		Relations:     f.relations,
		Metrics:       collector,
		Logger:        logr.Discard(),
	}

	return f
}
