package mediawiki

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	mwclient "cgt.name/pkg/go-mwclient"
	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/heartmarshall/wikibox/internal/config"
	"github.com/heartmarshall/wikibox/internal/domain"
)

// MWClient serves API through go-mwclient. The library has no context
// support, so cancellation is only checked before each call.
type MWClient struct {
	client *mwclient.Client
	log    *slog.Logger
}

// NewMWClient creates an MWClient for the wiki described by cfg.
func NewMWClient(cfg config.WikiConfig, logger *slog.Logger) (*MWClient, error) {
	c, err := mwclient.New(cfg.Endpoint(), cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("mwclient: new client: %w", err)
	}
	return &MWClient{
		client: c,
		log:    logger.With("adapter", "mwclient"),
	}, nil
}

// Get sends p through go-mwclient. API warnings are logged and the
// response is still returned; every other failure matches domain.ErrTransport.
func (m *MWClient) Get(ctx context.Context, p params.Values) (*jason.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := make(params.Values, len(p)+1)
	maps.Copy(q, p)
	if _, ok := q["formatversion"]; !ok {
		q["formatversion"] = "1"
	}

	m.log.DebugContext(ctx, "mwclient request", slog.String("action", q["action"]))

	resp, err := m.client.Get(q)
	if resp != nil {
		if apiErr := envelopeError(resp); apiErr != nil {
			return nil, apiErr
		}
	}
	if err != nil {
		if resp != nil {
			m.log.WarnContext(ctx, "mediawiki api warning",
				slog.String("action", q["action"]),
				slog.String("warning", err.Error()),
			)
			return resp, nil
		}
		return nil, fmt.Errorf("mwclient: %w: %w", domain.ErrTransport, err)
	}
	return resp, nil
}
