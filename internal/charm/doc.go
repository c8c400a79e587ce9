// Package charm implements the Spring Music charm: one process per Juju hook,
// one dispatched event per process.
//
// Every hook runs the same binary. The hook name is classified into an
// event.Kind and Dispatch routes it to one or more handlers:
//
//   - Service Reconciler: computes the Pebble layer for the spring-music
//     service from relation data, applies it only when it differs from the
//     current plan, and restarts the service after a change.
//
//   - Port Patcher: rewrites the ports of the Kubernetes Service Juju created
//     for the application. Runs on the leader only and at most once per
//     application, gated by the k8s_service_patched state flag. Hooks after
//     install retry it only when that flag is shared by every unit.
//
//   - Relation publishers: the leader advertises an ingress request and
//     Prometheus scrape jobs to related applications.
//
// # Architecture
//
//	juju agent ──hook──> cmd/charm (goops) ──> config.Load ──> event.Parse
//	                                                              │
//	                                                              ▼
//	                                                      Charm.Dispatch
//	                                           ┌──────────────┼───────────────┐
//	                                           ▼              ▼               ▼
//	                                   Port Patcher   Service Reconciler   publishers
//	                                  (Kubernetes API)    (Pebble API)     (relation-set)
//
// # Errors
//
// A failed Service patch is logged and retried on a later hook because the
// state flag stays false. Every other error fails the hook, and Juju retries
// it.
package charm
