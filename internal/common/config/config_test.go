package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "READ_TIMEOUT", "WRITE_TIMEOUT", "CORS_ORIGINS", "PLAN_DB_PATH", "PLAN_SOURCE_DIR", "LIVE_PORT", "IMPORT_PX_PER_FOOT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "3003" || cfg.LivePort != "3004" {
		t.Errorf("ports = %s/%s", cfg.Port, cfg.LivePort)
	}
	if cfg.DBPath != "data/db/plans.db" || cfg.SourceDir != "data/source" {
		t.Errorf("DBPath = %s, SourceDir = %s", cfg.DBPath, cfg.SourceDir)
	}
	if cfg.PxPerFoot != 10 || cfg.ReadTimeout != 10 {
		t.Errorf("PxPerFoot = %v, ReadTimeout = %d", cfg.PxPerFoot, cfg.ReadTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("READ_TIMEOUT", "30")
	t.Setenv("IMPORT_PX_PER_FOOT", "12.5")
	t.Setenv("WRITE_TIMEOUT", "soon")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.Port != "8080" || cfg.ReadTimeout != 30 || cfg.PxPerFoot != 12.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.WriteTimeout != 10 {
		t.Errorf("bad int should fall back, got %d", cfg.WriteTimeout)
	}
}
