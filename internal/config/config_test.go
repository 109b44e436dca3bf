package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.GRPCPort != 50051 || cfg.ArtifactsDir != "artifacts" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.IngestTopics) != 1 || cfg.IngestTopics[0] != "farm/observation/#" {
		t.Fatalf("topics = %v", cfg.IngestTopics)
	}
	if cfg.DedupTTL != 10*time.Minute || cfg.Influx.FlushInterval != time.Second {
		t.Fatalf("durations = %v %v", cfg.DedupTTL, cfg.Influx.FlushInterval)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RABBITMQ_HOST", "broker.fog")
	t.Setenv("INGEST_TOPICS", "farm/observation/#, farm/manual/# ,")
	t.Setenv("INFLUX_ENABLED", "true")
	t.Setenv("INFLUX_BUCKET", "agri")

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("viper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.Rabbit.Host != "broker.fog" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.IngestTopics) != 2 || cfg.IngestTopics[1] != "farm/manual/#" {
		t.Fatalf("topics = %q", cfg.IngestTopics)
	}
	if !cfg.Influx.Enabled || cfg.Influx.Bucket != "agri" {
		t.Fatalf("influx = %+v", cfg.Influx)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisor.yaml")
	yaml := "http:\n  port: 7000\nartifacts:\n  dir: /srv/model\ningest:\n  topics:\n    - a/#\n    - b/#\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	v, err := NewViper(path)
	if err != nil {
		t.Fatalf("viper: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 7000 || cfg.ArtifactsDir != "/srv/model" || len(cfg.IngestTopics) != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("http.port", 0)
	v.Set("artifacts.dir", "")
	if _, err := Load(v); err == nil {
		t.Fatal("expected validation error")
	}
}
