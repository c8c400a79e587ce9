package relation

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Ingress is the state of the ingress relation as seen by the requirer.
type Ingress struct {
	URL   string
	Ready bool
}

// IngressRequest is what the requirer asks the ingress provider to route.
type IngressRequest struct {
	Model string
	Name  string
	Host  string
	Port  int
}

type ingressData struct {
	URL string `yaml:"url"`
}

// Ingress returns the URL published by the ingress provider. The result is
// not ready while no provider is related or it has not published a URL yet.
func (c *Client) Ingress(ctx context.Context) (Ingress, error) {
	ids, err := c.tools.RelationIDs(ctx, c.endpoints.Ingress)
	if err != nil {
		return Ingress{}, errors.Wrap(err, "failed to list ingress relations")
	}

	if len(ids) == 0 {
		return Ingress{}, nil
	}

	// The endpoint is limited to a single provider.
	relationID := ids[0]

	units, err := c.tools.RelationList(ctx, relationID)
	if err != nil {
		return Ingress{}, errors.Wrapf(err, "failed to list units of %s", relationID)
	}

	app := remoteApp(units)
	if app == "" {
		return Ingress{}, nil
	}

	data, err := c.tools.RelationGet(ctx, relationID, app, true)
	if err != nil {
		return Ingress{}, errors.Wrapf(err, "failed to read ingress data of %s", app)
	}

	raw := data["ingress"]
	if raw == "" {
		return Ingress{}, nil
	}

	var published ingressData

	if err := yaml.Unmarshal([]byte(raw), &published); err != nil {
		return Ingress{}, errors.Wrapf(err, "invalid ingress data from %s", app)
	}

	if published.URL == "" {
		return Ingress{}, nil
	}

	return Ingress{URL: published.URL, Ready: true}, nil
}

// PublishIngressRequest writes the request into the application databag of
// every ingress relation. Only the leader may call it.
func (c *Client) PublishIngressRequest(ctx context.Context, req IngressRequest) error {
	ids, err := c.tools.RelationIDs(ctx, c.endpoints.Ingress)
	if err != nil {
		return errors.Wrap(err, "failed to list ingress relations")
	}

	data := map[string]string{
		"model": req.Model,
		"name":  req.Name,
		"host":  req.Host,
		"port":  strconv.Itoa(req.Port),
	}

	for _, id := range ids {
		if err := c.tools.RelationSet(ctx, id, true, data); err != nil {
			return errors.Wrap(err, "failed to publish ingress request")
		}
	}

	return nil
}
