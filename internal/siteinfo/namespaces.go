// Package siteinfo reads site metadata from meta=siteinfo.
package siteinfo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/heartmarshall/wikibox/internal/domain"
	"github.com/heartmarshall/wikibox/internal/pacer"
)

// API is the wiki query capability the reader depends on.
type API interface {
	Get(ctx context.Context, p params.Values) (*jason.Object, error)
}

// Reader queries site metadata.
type Reader struct {
	api   API
	pacer pacer.Pacer
	log   *slog.Logger
}

// NewReader creates a Reader.
func NewReader(api API, p pacer.Pacer, logger *slog.Logger) *Reader {
	return &Reader{api: api, pacer: p, log: logger.With("component", "siteinfo")}
}

// Namespaces lists the namespaces of the site ordered by id. The
// localized name is read from "*" (formatversion=1) or "name".
func (r *Reader) Namespaces(ctx context.Context) ([]domain.Namespace, error) {
	if err := r.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := r.api.Get(ctx, params.Values{
		"action": "query",
		"meta":   "siteinfo",
		"siprop": "namespaces",
	})
	if err != nil {
		return nil, fmt.Errorf("siteinfo: %w", err)
	}

	nsObj, err := resp.GetObject("query", "namespaces")
	if err != nil {
		return nil, fmt.Errorf("siteinfo: %w: query.namespaces: %w", domain.ErrTransport, err)
	}

	var out []domain.Namespace
	for key, v := range nsObj.Map() {
		obj, err := v.Object()
		if err != nil {
			return nil, fmt.Errorf("siteinfo: %w: namespace %s: %w", domain.ErrTransport, key, err)
		}
		id, err := obj.GetInt64("id")
		if err != nil {
			n, convErr := strconv.Atoi(key)
			if convErr != nil {
				return nil, fmt.Errorf("siteinfo: %w: namespace key %q", domain.ErrTransport, key)
			}
			id = int64(n)
		}
		ns := domain.Namespace{ID: int(id)}
		if ns.Name, err = obj.GetString("*"); err != nil {
			ns.Name, _ = obj.GetString("name")
		}
		ns.Canonical, _ = obj.GetString("canonical")
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	r.log.DebugContext(ctx, "namespaces loaded", slog.Int("count", len(out)))
	return out, nil
}
