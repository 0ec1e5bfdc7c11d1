package utils

import "testing"

func TestLoadBlobConfigDefaults(t *testing.T) {
	t.Setenv("MANGARANK_BLOB_BASE", "")
	t.Setenv("MANGARANK_BLOB_BUCKET", "")

	cfg := LoadBlobConfig()
	if cfg.BaseURL != "https://storage.googleapis.com" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.Bucket != "mangarank-media" {
		t.Errorf("Bucket = %q, want default", cfg.Bucket)
	}
}

func TestLoadBlobConfigFromEnv(t *testing.T) {
	t.Setenv("MANGARANK_BLOB_BASE", "https://cdn.example.com")
	t.Setenv("MANGARANK_BLOB_BUCKET", "covers")

	cfg := LoadBlobConfig()
	if cfg.BaseURL != "https://cdn.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Bucket != "covers" {
		t.Errorf("Bucket = %q", cfg.Bucket)
	}
}
