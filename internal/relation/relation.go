// Package relation reads and writes the relation data the charm exchanges
// with ingress, log sink and scrape providers.
package relation

import (
	"context"
	"strings"

	"github.com/lexfrei/spring-music-operator/internal/config"
)

// HookTools is the subset of Juju hook tools used for relation data.
type HookTools interface {
	RelationIDs(ctx context.Context, endpoint string) ([]string, error)
	RelationList(ctx context.Context, relationID string) ([]string, error)
	RelationGet(ctx context.Context, relationID, member string, app bool) (map[string]string, error)
	RelationSet(ctx context.Context, relationID string, app bool, data map[string]string) error
}

// Client exposes the charm's relations by endpoint role.
type Client struct {
	tools     HookTools
	endpoints config.Endpoints
}

// NewClient creates a Client for the given endpoint names.
func NewClient(tools HookTools, endpoints config.Endpoints) *Client {
	return &Client{
		tools:     tools,
		endpoints: endpoints,
	}
}

// remoteApp derives the remote application name from its first unit.
func remoteApp(units []string) string {
	if len(units) == 0 {
		return ""
	}

	app, _, _ := strings.Cut(units[0], "/")

	return app
}
