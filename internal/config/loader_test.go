package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	return f[ref], nil
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return root
}

func TestLoadLayersAndDefaults(t *testing.T) {
	root := writeRoot(t, `
http:
  listen_addr: ":9000"
database:
  dsn: "app:pw@tcp(127.0.0.1:3306)/sitecraft?parseTime=true"
auth:
  secret: "vault:kv/sitecraft#secret_key"
storage:
  mirror_policy: session
`)
	t.Setenv("SITECRAFT_HTTP__FORCE_HTTPS", "true")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := load(context.Background(), root, fakeResolver{"kv/sitecraft#secret_key": "s3cr3t"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9000" || !cfg.HTTP.ForceHTTPS {
		t.Fatalf("http section = %+v", cfg.HTTP)
	}
	if cfg.Auth.Secret != "s3cr3t" {
		t.Fatalf("vault reference not resolved: %q", cfg.Auth.Secret)
	}
	if cfg.DocStore.URI != "mongodb://localhost:27017" {
		t.Fatalf("legacy MONGO_URI ignored: %q", cfg.DocStore.URI)
	}
	if cfg.Storage.MirrorPolicy != "session" {
		t.Fatalf("mirror policy = %q", cfg.Storage.MirrorPolicy)
	}
	if cfg.Session.Backend != "memory" || cfg.Session.TTL != 14*24*time.Hour {
		t.Fatalf("session defaults not applied: %+v", cfg.Session)
	}
	if cfg.Auth.TokenTTL != 14*24*time.Hour {
		t.Fatalf("token ttl = %v, want two weeks", cfg.Auth.TokenTTL)
	}
	if cfg.DocStore.Collection != "websites_collection" {
		t.Fatalf("docstore defaults not applied: %+v", cfg.DocStore)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root = %q, want %q", cfg.Paths.Root, root)
	}
	if Get() != cfg {
		t.Fatalf("Get() did not return the cached config")
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	root := writeRoot(t, `
database:
  dsn: "app:pw@tcp(127.0.0.1:3306)/sitecraft?parseTime=true"
`)
	t.Setenv("SECRET_KEY", "")
	if _, err := load(context.Background(), root, fakeResolver{}); err == nil {
		t.Fatal("expected validation error for missing auth.secret")
	}
}

func TestLoadRejectsUnknownMirrorPolicy(t *testing.T) {
	root := writeRoot(t, `
database:
  dsn: "x"
auth:
  secret: "abc"
storage:
  mirror_policy: merge
`)
	if _, err := load(context.Background(), root, fakeResolver{}); err == nil {
		t.Fatal("expected validation error for mirror_policy=merge")
	}
}
