package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxBatchSize is the largest titles= batch the revisions query accepts
// for non-bot clients.
const MaxBatchSize = 50

// MaxMemberLimit is the largest cmlimit/aplimit for non-bot clients.
const MaxMemberLimit = 500

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Wiki.validate(); err != nil {
		return fmt.Errorf("wiki: %w", err)
	}
	if err := c.Harvest.validate(); err != nil {
		return fmt.Errorf("harvest: %w", err)
	}
	if c.Output.Indent < 0 || c.Output.Indent > 8 {
		return fmt.Errorf("output.indent must be within 0..8 (got %d)", c.Output.Indent)
	}
	if c.Output.Store && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when output.store is enabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}

func (w *WikiConfig) validate() error {
	endpoint := w.Endpoint()
	if endpoint == "" {
		return fmt.Errorf("site or api_url is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("api_url %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url %q must be http or https", endpoint)
	}
	if w.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", w.Timeout)
	}
	if w.Retries < 0 || w.Retries > MaxRetries {
		return fmt.Errorf("retries must be within 0..%d (got %d)", MaxRetries, w.Retries)
	}
	switch w.Transport {
	case TransportHTTP, TransportMWClient:
	default:
		return fmt.Errorf("transport must be %q or %q (got %q)", TransportHTTP, TransportMWClient, w.Transport)
	}
	return nil
}

func (h *HarvestConfig) validate() error {
	if h.BatchSize < 1 || h.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch_size must be within 1..%d (got %d)", MaxBatchSize, h.BatchSize)
	}
	if h.MemberLimit < 1 || h.MemberLimit > MaxMemberLimit {
		return fmt.Errorf("member_limit must be within 1..%d (got %d)", MaxMemberLimit, h.MemberLimit)
	}
	if h.MaxListItems <= 0 {
		return fmt.Errorf("max_list_items must be > 0 (got %d)", h.MaxListItems)
	}
	if h.RequestDelay <= 0 {
		return fmt.Errorf("request_delay must be > 0 (got %v)", h.RequestDelay)
	}
	h.Categories = ParseList(h.Categories)
	h.TrimSuffixes = ParseList(h.TrimSuffixes)
	return nil
}

// ParseList trims every element and drops empty ones. A nil or all-empty
// input returns a nil slice.
func ParseList(raw []string) []string {
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
