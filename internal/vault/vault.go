// internal/vault/vault.go
//
// Secret lookups for `vault:` configuration values.
//
// Context
// -------
// The config loader hands every `vault:<mount>/<path>#<key>` value to
// Resolve.  Lookups happen once during boot, so the client keeps no
// renewal loop.  Address and token come from VAULT_ADDR and VAULT_TOKEN
// through the SDK's environment handling.
//
// A secret is read once per path: `kv/sitecraft#secret_key` and
// `kv/sitecraft#openai_api_key` share one KV-v2 request.
package vault

import (
	"context"
	"fmt"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// Client resolves references against a KV-v2 engine.  Safe for concurrent
// use.
type Client struct {
	log  *zap.SugaredLogger
	read func(ctx context.Context, mount, rel string) (map[string]interface{}, error)

	mu      sync.Mutex
	secrets map[string]map[string]interface{} // path → secret data
}

// New builds a client from the VAULT_* environment.
func New(log *zap.SugaredLogger) (*Client, error) {
	cfg := vault.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault env cfg: %w", cfg.Error)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	c := newClient(log, func(ctx context.Context, mount, rel string) (map[string]interface{}, error) {
		sec, err := api.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, err
		}
		return sec.Data, nil
	})
	log.Infow("vault client ready", "addr", cfg.Address)
	return c, nil
}

func newClient(log *zap.SugaredLogger, read func(context.Context, string, string) (map[string]interface{}, error)) *Client {
	return &Client{log: log, read: read, secrets: make(map[string]map[string]interface{})}
}

// Resolve looks up a `path#key` reference.  The part after the last "#" is
// the key inside the secret; a reference without one is rejected.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || i == len(ref)-1 {
		return "", fmt.Errorf("vault reference %q must look like path#key", ref)
	}
	path, key := ref[:i], ref[i+1:]

	data, err := c.secret(ctx, path)
	if err != nil {
		return "", err
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, path)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", path, key)
	}
	return s, nil
}

func (c *Client) secret(ctx context.Context, path string) (map[string]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.secrets[path]; ok {
		return data, nil
	}

	mount, rel, ok := strings.Cut(path, "/")
	if !ok || mount == "" || rel == "" {
		return nil, fmt.Errorf("vault path %q needs a mount and a secret name", path)
	}
	data, err := c.read(ctx, mount, rel)
	if err != nil {
		return nil, fmt.Errorf("vault get %s: %w", path, err)
	}
	c.secrets[path] = data
	c.log.Debugw("vault secret loaded", "path", path, "keys", len(data))
	return data, nil
}
