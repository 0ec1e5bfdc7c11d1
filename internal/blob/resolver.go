// Package blob turns stored cover references into fetchable URLs.
// References come in three shapes: full http(s) URLs (passed through),
// gs://bucket/path object refs, and bare storage paths relative to the
// configured bucket.
package blob

import (
	"strings"
	"sync"

	"mangarank/pkg/utils"
)

type Resolver struct {
	cfg utils.BlobConfig

	mu    sync.RWMutex
	cache map[string]string
}

func NewResolver(cfg utils.BlobConfig) *Resolver {
	return &Resolver{cfg: cfg, cache: make(map[string]string)}
}

// Resolve maps a stored reference to a URL. Results are cached for the
// process lifetime; refs never change meaning once written.
func (r *Resolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	r.mu.RLock()
	u, ok := r.cache[ref]
	r.mu.RUnlock()
	if ok {
		return u
	}

	u = r.resolve(ref)

	r.mu.Lock()
	r.cache[ref] = u
	r.mu.Unlock()
	return u
}

func (r *Resolver) resolve(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	base := strings.TrimRight(r.cfg.BaseURL, "/")

	if rest, ok := strings.CutPrefix(ref, "gs://"); ok {
		// gs://bucket/path/to/object
		bucket, path, found := strings.Cut(rest, "/")
		if !found || bucket == "" || path == "" {
			return ""
		}
		return base + "/" + bucket + "/" + path
	}

	// bare path inside the default bucket
	return base + "/" + r.cfg.Bucket + "/" + strings.TrimLeft(ref, "/")
}

// CacheSize reports how many refs have been resolved so far.
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
