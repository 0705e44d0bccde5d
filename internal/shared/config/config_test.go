package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENGINE_COMMAND", "")
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.Engine.Timeout != 20*time.Second {
		t.Fatalf("expected 20s engine timeout, got %s", cfg.Engine.Timeout)
	}
	if !reflect.DeepEqual(cfg.Engine.VersionArgs, []string{"--version"}) {
		t.Fatalf("unexpected version args: %v", cfg.Engine.VersionArgs)
	}
	if cfg.Payload.Prefix != "stackbridge_" {
		t.Fatalf("unexpected payload prefix: %q", cfg.Payload.Prefix)
	}
	if cfg.MaxBodyBytes != 64<<10 {
		t.Fatalf("unexpected max body bytes: %d", cfg.MaxBodyBytes)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("unexpected object store: %q", cfg.ObjectStoreType)
	}
}

func TestLoadEngineOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("ENGINE_COMMAND", "python3")
	t.Setenv("ENGINE_ARGS", "-m   stack_engine")
	t.Setenv("ENGINE_ENV", "PYTHONPATH=/opt/engine, ENGINE_MODE=fast")
	t.Setenv("ENGINE_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("ARCHIVE_ENGINE_FAILURES", "true")

	cfg := Load()

	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.Engine.Command != "python3" {
		t.Fatalf("unexpected command %q", cfg.Engine.Command)
	}
	if !reflect.DeepEqual(cfg.Engine.Args, []string{"-m", "stack_engine"}) {
		t.Fatalf("unexpected args %v", cfg.Engine.Args)
	}
	if !reflect.DeepEqual(cfg.Engine.Env, []string{"PYTHONPATH=/opt/engine", "ENGINE_MODE=fast"}) {
		t.Fatalf("unexpected env %v", cfg.Engine.Env)
	}
	if cfg.Engine.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.Engine.Timeout)
	}
	if !reflect.DeepEqual(cfg.CORSAllowOrigin, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("unexpected store type %q", cfg.ObjectStoreType)
	}
	if !cfg.ArchiveEngineFailures {
		t.Fatalf("expected archive flag")
	}
}
