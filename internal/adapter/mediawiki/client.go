// Package mediawiki talks to a MediaWiki api.php endpoint and decodes the
// query shapes the harvester depends on.
package mediawiki

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/heartmarshall/wikibox/internal/config"
	"github.com/heartmarshall/wikibox/internal/domain"
)

const defaultTimeout = 30 * time.Second

// API is the query surface shared by both transports.
type API interface {
	Get(ctx context.Context, p params.Values) (*jason.Object, error)
}

// New returns the transport selected by cfg.Transport.
func New(cfg config.WikiConfig, logger *slog.Logger) (API, error) {
	switch cfg.Transport {
	case config.TransportMWClient:
		return NewMWClient(cfg, logger)
	case config.TransportHTTP, "":
		return NewClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("mediawiki: unknown transport %q", cfg.Transport)
	}
}

// Client issues api.php GET requests over net/http and decodes the
// response with jason.
type Client struct {
	apiURL     string
	indexURL   string
	userAgent  string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	log        *slog.Logger
}

// NewClient creates a Client for the wiki described by cfg.
func NewClient(cfg config.WikiConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiURL:     cfg.Endpoint(),
		indexURL:   cfg.IndexURL(),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		retries:    cfg.Retries,
		retryDelay: 500 * time.Millisecond,
		log:        logger.With("adapter", "mediawiki"),
	}
}

// NewClientWithURL creates a Client for an explicit api.php URL (for testing).
func NewClientWithURL(apiURL string, logger *slog.Logger) *Client {
	return NewClient(config.WikiConfig{APIURL: apiURL, UserAgent: "wikibox-test"}, logger)
}

// Get sends p to api.php. format=json is always set; formatversion
// defaults to 1 unless p overrides it.
//
// Network failures, non-200 statuses, undecodable bodies and API error
// envelopes are returned as errors matching domain.ErrTransport.
func (c *Client) Get(ctx context.Context, p params.Values) (*jason.Object, error) {
	q := url.Values{}
	for k, v := range p {
		q.Set(k, v)
	}
	q.Set("format", "json")
	if q.Get("formatversion") == "" {
		q.Set("formatversion", "1")
	}

	action := q.Get("action")
	c.log.DebugContext(ctx, "mediawiki request", slog.String("action", action), slog.String("query", q.Encode()))

	body, status, err := c.fetch(ctx, c.apiURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("mediawiki: %w: unexpected status %d", domain.ErrTransport, status)
	}

	obj, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: %w: decode json: %w", domain.ErrTransport, err)
	}
	if apiErr := envelopeError(obj); apiErr != nil {
		c.log.ErrorContext(ctx, "mediawiki api error",
			slog.String("action", action),
			slog.String("code", apiErr.Code),
			slog.String("info", apiErr.Info),
		)
		return nil, apiErr
	}
	logWarnings(ctx, c.log, action, obj)

	return obj, nil
}

// RawSection fetches the raw wikitext of section 0 of title through
// index.php?action=raw. A 404 is reported as a domain.MissingPage.
func (c *Client) RawSection(ctx context.Context, title string) (domain.RawSection, error) {
	q := url.Values{}
	q.Set("title", domain.URLTitle(title))
	q.Set("action", "raw")
	q.Set("section", "0")

	body, status, err := c.fetch(ctx, c.indexURL+"?"+q.Encode())
	if err != nil {
		return domain.RawSection{}, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.RawSection{}, domain.MissingPage{Title: title, Reason: "page does not exist"}
	default:
		return domain.RawSection{}, fmt.Errorf("mediawiki: %w: unexpected status %d", domain.ErrTransport, status)
	}

	return domain.RawSection{Title: title, Text: string(body)}, nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("mediawiki: create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		c.log.ErrorContext(ctx, "mediawiki request failed", slog.String("url", redact(reqURL)), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("mediawiki: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("mediawiki: %w: read body: %w", domain.ErrTransport, err)
	}
	return body, resp.StatusCode, nil
}

// do executes the request. A 5xx status or a network error is a transport
// fault; it is retried only when the client was configured with retries,
// which is off by default.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)

		failed := err != nil || (resp != nil && resp.StatusCode >= 500)
		if !failed || attempt >= c.retries {
			return resp, err
		}
		if ctx.Err() != nil {
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}
			return nil, ctx.Err()
		}

		reason := "network error"
		if err == nil && resp != nil {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		c.log.WarnContext(ctx, "mediawiki retry",
			slog.String("url", redact(req.URL.String())),
			slog.String("reason", reason),
			slog.Int("attempt", attempt+1),
		)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// redact trims long titles= lists out of log lines.
func redact(u string) string {
	const max = 200
	if len(u) <= max {
		return u
	}
	return u[:max] + "..."
}

// envelopeError returns the {"error": {...}} envelope as an APIError, or nil.
func envelopeError(obj *jason.Object) *domain.APIError {
	e, err := obj.GetObject("error")
	if err != nil {
		return nil
	}
	code, _ := e.GetString("code")
	info, _ := e.GetString("info")
	if info == "" {
		info, _ = e.GetString("*")
	}
	return &domain.APIError{Code: code, Info: info}
}

func logWarnings(ctx context.Context, log *slog.Logger, action string, obj *jason.Object) {
	warnings, err := obj.GetObject("warnings")
	if err != nil {
		return
	}
	for module, v := range warnings.Map() {
		text := module
		if w, err := v.Object(); err == nil {
			if s, err := w.GetString("*"); err == nil {
				text = s
			} else if s, err := w.GetString("warnings"); err == nil {
				text = s
			}
		}
		log.WarnContext(ctx, "mediawiki api warning",
			slog.String("action", action),
			slog.String("module", module),
			slog.String("warning", strings.TrimSpace(text)),
		)
	}
}
