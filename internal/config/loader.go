// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `SITECRAFT_`, where `__` maps to “.”
     (e.g., `SITECRAFT_HTTP__LISTEN_ADDR → http.listen_addr`).
  4. The bare names earlier deployments used: SECRET_KEY, MONGO_URI,
     and OPENAI_API_KEY.

String values that start with `vault:` are then swapped for the secret
they reference (`vault:kv/sitecraft#mongo_uri`).  The merged tree is
unmarshalled into strongly-typed structs, defaulted, validated, enriched
with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.

Instrumentation
---------------
  • DEBUG spans : root discovery, YAML read, env overlay.
  • ERROR spans : YAML parse, vault resolution, unmarshal, validation.
  • INFO  span  : final “config loaded” with key highlights.
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/sitecraft/internal/vault"
)

const (
	envPrefix   = "SITECRAFT_"
	vaultPrefix = "vault:"
)

// legacyEnv maps the variable names of earlier deployments onto keys.
var legacyEnv = map[string]string{
	"SECRET_KEY":     "auth.secret",
	"MONGO_URI":      "docstore.uri",
	"OPENAI_API_KEY": "ai.api_key",
}

// SecretResolver turns a `vault:` reference into its plain value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SITECRAFT_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the executable heuristic for
// the production layout.
func rootDir() string {
	if r := os.Getenv("SITECRAFT_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves vault references,
// validates, and caches Config.  A Vault client is only dialled when at
// least one value needs it.
func Load() (*Config, error) {
	return load(context.Background(), rootDir(), nil)
}

func load(ctx context.Context, root string, resolver SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: SITECRAFT_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	for name, key := range legacyEnv {
		if val := os.Getenv(name); val != "" {
			if err := k.Set(key, val); err != nil {
				return nil, err
			}
		}
	}

	if err := resolveSecrets(ctx, k, resolver); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	applyDefaults(&cfg)
	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"docstore_enabled", cfg.DocStore.URI != "",
		"ai_enabled", cfg.AI.APIKey != "",
		"session_backend", cfg.Session.Backend,
		"mirror_policy", cfg.Storage.MirrorPolicy,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets replaces every `vault:` string in k.  The resolver is
// created on first use when the caller passed nil.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, resolver SecretResolver) error {
	for key, raw := range k.All() {
		s, ok := raw.(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		if resolver == nil {
			cli, err := vault.New(zap.S())
			if err != nil {
				return err
			}
			resolver = cli
		}
		val, err := resolver.Resolve(ctx, strings.TrimPrefix(s, vaultPrefix))
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return err
		}
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
