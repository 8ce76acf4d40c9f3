// internal/config/model.go
//
// Typed configuration model for sitecraft.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from its overlay layers:
//
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `SITECRAFT_`-prefixed environment overrides – highest precedence,
//   • the legacy names SECRET_KEY, MONGO_URI, and OPENAI_API_KEY.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Optional integrations (document store, AI key, Redis) stay empty when
//     unset; the app degrades instead of refusing to start.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr  string   `koanf:"listen_addr"  validate:"required,hostname_port"`
	ForceHTTPS  bool     `koanf:"force_https"`
	StaticDir   string   `koanf:"static_dir"`
	CORSOrigins []string `koanf:"cors_origins"`
}

//
// Relational store
//

// Database holds the MySQL DSN and pool sizes.  The DSN must carry
// parseTime=true so DATETIME columns scan into time.Time.
type Database struct {
	DSN     string `koanf:"dsn"      validate:"required"`
	MaxOpen int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle int    `koanf:"max_idle" validate:"gte=0"`
	Migrate bool   `koanf:"migrate"`
}

//
// Document store
//

// DocStore configures the MongoDB copy.  An empty URI disables it.
type DocStore struct {
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	Collection     string        `koanf:"collection"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

//
// Auth section
//

// Auth holds the token signing secret.  TokenTTL defaults to two weeks;
// issued tokens always carry exp.
type Auth struct {
	Secret    string        `koanf:"secret"     validate:"required"`
	TokenTTL  time.Duration `koanf:"token_ttl"  validate:"gte=0"`
	AdminRole string        `koanf:"admin_role"`
}

//
// Session section
//

// Session selects the server-side session backend.
type Session struct {
	Backend       string        `koanf:"backend"        validate:"oneof=memory redis"`
	RedisAddr     string        `koanf:"redis_addr"     validate:"required_if=Backend redis"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	CookieName    string        `koanf:"cookie_name"`
	TTL           time.Duration `koanf:"ttl"`
	Secure        bool          `koanf:"secure"`
}

//
// AI section
//

// AI configures the OpenAI-compatible content generator.  An empty APIKey
// sends every request straight to the fallback template.
type AI struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

//
// Storage section
//

// Storage tunes the dual-write site store.
type Storage struct {
	MirrorPolicy string `koanf:"mirror_policy" validate:"oneof=session canonical"`
	ListLimit    int    `koanf:"list_limit"    validate:"gte=0"`
}

// Geo points at an optional GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Log sets the minimum zap level (debug, info, warn, error).
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // SITECRAFT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	DocStore DocStore `koanf:"docstore"`
	Auth     Auth     `koanf:"auth"`
	Session  Session  `koanf:"session"`
	AI       AI       `koanf:"ai"`
	Storage  Storage  `koanf:"storage"`
	Geo      Geo      `koanf:"geo"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}

// applyDefaults fills zero values the YAML left out.
func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.Database.MaxOpen == 0 {
		c.Database.MaxOpen = 15
	}
	if c.Database.MaxIdle == 0 {
		c.Database.MaxIdle = 5
	}
	if c.DocStore.Database == "" {
		c.DocStore.Database = "ai_builder_db"
	}
	if c.DocStore.Collection == "" {
		c.DocStore.Collection = "websites_collection"
	}
	if c.DocStore.ConnectTimeout == 0 {
		c.DocStore.ConnectTimeout = 5 * time.Second
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 14 * 24 * time.Hour
	}
	if c.Auth.AdminRole == "" {
		c.Auth.AdminRole = "admin"
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sitecraft_session"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 14 * 24 * time.Hour
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Storage.MirrorPolicy == "" {
		c.Storage.MirrorPolicy = "canonical"
	}
	if c.Storage.ListLimit == 0 {
		c.Storage.ListLimit = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
