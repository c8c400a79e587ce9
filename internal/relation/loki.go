package relation

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// LokiEndpoint is a push API endpoint published by a log sink unit.
type LokiEndpoint struct {
	URL string `json:"url"`
}

// LokiEndpoints collects the endpoints of every log sink unit on every
// logging relation, in relation and unit order.
func (c *Client) LokiEndpoints(ctx context.Context) ([]LokiEndpoint, error) {
	ids, err := c.tools.RelationIDs(ctx, c.endpoints.Logging)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list logging relations")
	}

	var endpoints []LokiEndpoint

	for _, id := range ids {
		units, err := c.tools.RelationList(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list units of %s", id)
		}

		for _, unit := range units {
			data, err := c.tools.RelationGet(ctx, id, unit, false)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read logging data of %s", unit)
			}

			raw := data["endpoint"]
			if raw == "" {
				continue
			}

			var endpoint LokiEndpoint

			if err := json.Unmarshal([]byte(raw), &endpoint); err != nil {
				return nil, errors.Wrapf(err, "invalid loki endpoint from %s", unit)
			}

			if endpoint.URL == "" {
				continue
			}

			endpoints = append(endpoints, endpoint)
		}
	}

	return endpoints, nil
}
