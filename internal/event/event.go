// Package event maps Juju hook names to the events the charm handles.
package event

import (
	"strings"

	"github.com/lexfrei/spring-music-operator/internal/config"
)

// Kind identifies a handled event.
type Kind int

const (
	KindUnknown Kind = iota
	KindInstall
	KindUpgrade
	KindLeaderElected
	KindApplicationReady
	KindIngressChanged
	KindLogSinkJoined
	KindLogSinkDeparted
	KindMetricsEndpointChanged
)

//nolint:gochecknoglobals // lookup table
var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindInstall:                "install",
	KindUpgrade:                "upgrade",
	KindLeaderElected:          "leader-elected",
	KindApplicationReady:       "application-ready",
	KindIngressChanged:         "ingress-changed",
	KindLogSinkJoined:          "log-sink-joined",
	KindLogSinkDeparted:        "log-sink-departed",
	KindMetricsEndpointChanged: "metrics-endpoint-changed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// Event is one dispatched hook.
type Event struct {
	Kind Kind

	// Hook is the raw hook name.
	Hook string

	// Relation is the endpoint name for relation hooks, empty otherwise.
	Relation string
}

// Parse classifies hook using the endpoint names declared by the charm.
func Parse(hook string, endpoints config.Endpoints) Event {
	ev := Event{Kind: KindUnknown, Hook: hook}

	switch hook {
	case "install":
		ev.Kind = KindInstall

		return ev
	case "upgrade-charm":
		ev.Kind = KindUpgrade

		return ev
	case "leader-elected":
		ev.Kind = KindLeaderElected

		return ev
	case endpoints.Container + "-pebble-ready":
		ev.Kind = KindApplicationReady

		return ev
	}

	endpoint, suffix, ok := splitRelationHook(hook)
	if !ok {
		return ev
	}

	ev.Relation = endpoint

	switch endpoint {
	case endpoints.Ingress:
		switch suffix {
		case "joined", "changed", "broken":
			ev.Kind = KindIngressChanged
		}
	case endpoints.Logging:
		switch suffix {
		case "joined", "changed":
			ev.Kind = KindLogSinkJoined
		case "departed", "broken":
			ev.Kind = KindLogSinkDeparted
		}
	case endpoints.Metrics:
		switch suffix {
		case "joined", "changed":
			ev.Kind = KindMetricsEndpointChanged
		}
	}

	if ev.Kind == KindUnknown {
		ev.Relation = ""
	}

	return ev
}

// splitRelationHook splits "<endpoint>-relation-<suffix>".
func splitRelationHook(hook string) (string, string, bool) {
	idx := strings.LastIndex(hook, "-relation-")
	if idx <= 0 {
		return "", "", false
	}

	return hook[:idx], hook[idx+len("-relation-"):], true
}
