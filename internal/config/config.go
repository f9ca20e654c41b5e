package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Wiki     WikiConfig     `yaml:"wiki"`
	Harvest  HarvestConfig  `yaml:"harvest"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// WikiConfig identifies the MediaWiki site and how to talk to it.
type WikiConfig struct {
	Site      string        `yaml:"site"       env:"WIKI_SITE"       env-default:"coronationstreet"`
	APIURL    string        `yaml:"api_url"    env:"WIKI_API_URL"`
	UserAgent string        `yaml:"user_agent" env:"WIKI_USER_AGENT" env-default:"wikibox/1.0 (infobox harvester)"`
	Timeout   time.Duration `yaml:"timeout"    env:"WIKI_TIMEOUT"    env-default:"30s"`
	Transport string        `yaml:"transport"  env:"WIKI_TRANSPORT"  env-default:"http"`
	// Retries is how many times the HTTP transport repeats a request after a
	// 5xx status or a network error. 0 makes every transport fault fatal.
	Retries   int           `yaml:"retries"    env:"WIKI_RETRIES"    env-default:"0"`
}

// MaxRetries bounds WikiConfig.Retries.
const MaxRetries = 3

// Supported values of WikiConfig.Transport.
const (
	TransportHTTP     = "http"
	TransportMWClient = "mwclient"
)

// HarvestConfig holds category walk, batch fetch and parser settings.
//
// Booleans default to false because cleanenv cannot tell an explicit
// "false" in YAML from an absent key.
type HarvestConfig struct {
	Categories       []string      `yaml:"categories"        env:"HARVEST_CATEGORIES"        env-separator:"," env-default:"Coronation_Street_characters"`
	Recursive        bool          `yaml:"recursive"         env:"HARVEST_RECURSIVE"`
	RequestDelay     time.Duration `yaml:"request_delay"     env:"HARVEST_REQUEST_DELAY"     env-default:"1s"`
	BatchSize        int           `yaml:"batch_size"        env:"HARVEST_BATCH_SIZE"        env-default:"50"`
	MemberLimit      int           `yaml:"member_limit"      env:"HARVEST_MEMBER_LIMIT"      env-default:"500"`
	MaxListItems     int           `yaml:"max_list_items"    env:"HARVEST_MAX_LIST_ITEMS"    env-default:"20"`
	KeepKeyCase      bool          `yaml:"keep_key_case"     env:"HARVEST_KEEP_KEY_CASE"`
	KeepPlaceholders bool          `yaml:"keep_placeholders" env:"HARVEST_KEEP_PLACEHOLDERS"`
	TrimSuffixes     []string      `yaml:"trim_suffixes"     env:"HARVEST_TRIM_SUFFIXES"     env-separator:","`
}

// OutputConfig controls where harvested infoboxes are written.
type OutputConfig struct {
	Path   string `yaml:"path"   env:"OUTPUT_PATH"`
	Indent int    `yaml:"indent" env:"OUTPUT_INDENT" env-default:"4"`
	Store  bool   `yaml:"store"  env:"OUTPUT_STORE"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only used when
// Output.Store is enabled or by the migrate/export commands.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"5"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Endpoint returns the api.php URL. An explicit APIURL wins; otherwise the
// Fandom convention https://<site>.fandom.com/api.php is used.
func (w WikiConfig) Endpoint() string {
	if w.APIURL != "" {
		return w.APIURL
	}
	if w.Site == "" {
		return ""
	}
	return "https://" + w.Site + ".fandom.com/api.php"
}

// IndexURL returns the index.php URL next to the API endpoint, used for
// action=raw page fetches.
func (w WikiConfig) IndexURL() string {
	endpoint := w.Endpoint()
	if endpoint == "" {
		return ""
	}
	return strings.TrimSuffix(endpoint, "api.php") + "index.php"
}

// SiteName returns a short identifier of the wiki for file names and
// persisted runs.
func (w WikiConfig) SiteName() string {
	if w.Site != "" {
		return w.Site
	}
	host := w.Endpoint()
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	return host
}

// ResolvePath returns the JSON output path: Path when set, otherwise
// projects/<site>.json.
func (o OutputConfig) ResolvePath(site string) string {
	if o.Path != "" {
		return o.Path
	}
	return filepath.Join("projects", site+".json")
}
