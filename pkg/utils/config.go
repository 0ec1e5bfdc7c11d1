package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

// LoadEnv pulls a local .env into the process environment if one exists.
// Missing files are fine; real env vars always win.
func LoadEnv() {
	_ = godotenv.Load()
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("MANGARANK_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("MANGARANK_JWT_ISSUER")
	if issuer == "" {
		issuer = "mangarank"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("MANGARANK_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

type BlobConfig struct {
	// BaseURL is the base URL object keys resolve under, e.g.
	// https://storage.googleapis.com
	BaseURL string
	// Bucket is the default bucket for bucket-relative keys.
	Bucket string
}

func LoadBlobConfig() BlobConfig {
	base := os.Getenv("MANGARANK_BLOB_BASE")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	bucket := os.Getenv("MANGARANK_BLOB_BUCKET")
	if bucket == "" {
		bucket = "mangarank-media"
	}
	return BlobConfig{BaseURL: base, Bucket: bucket}
}
