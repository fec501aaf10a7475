// Package assets maps logical static asset names onto cache-busted URLs.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"sync"
)

// URLPrefix is where the static file server is mounted.
const URLPrefix = "/static/"

// Resolver resolves logical asset names. A manifest.json produced by a frontend
// build maps names onto hashed filenames; without one the resolver appends a
// content-hash query string computed on first use.
type Resolver struct {
	fsys     fs.FS
	manifest map[string]string
	logger   *slog.Logger

	mu     sync.RWMutex
	hashes map[string]string
}

// NewResolver reads manifestPath from fsys. A missing manifest is not an error.
func NewResolver(fsys fs.FS, manifestPath string, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		fsys:     fsys,
		manifest: map[string]string{},
		hashes:   map[string]string{},
		logger:   logger,
	}
	if fsys == nil || manifestPath == "" {
		return r, nil
	}

	data, err := fs.ReadFile(fsys, manifestPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return r, nil
	case err != nil:
		return nil, err
	}
	if err := json.Unmarshal(data, &r.manifest); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve returns the public URL for a logical asset name.
func (r *Resolver) Resolve(logicalName string) string {
	if r == nil {
		return URLPrefix + logicalName
	}
	if hashed, ok := r.manifest[logicalName]; ok {
		return URLPrefix + hashed
	}

	r.mu.RLock()
	v, ok := r.hashes[logicalName]
	r.mu.RUnlock()
	if !ok {
		v = r.contentHash(logicalName)
		r.mu.Lock()
		r.hashes[logicalName] = v
		r.mu.Unlock()
	}
	if v == "" {
		return URLPrefix + logicalName
	}
	return URLPrefix + logicalName + "?v=" + v
}

func (r *Resolver) contentHash(logicalName string) string {
	if r.fsys == nil {
		return ""
	}
	data, err := fs.ReadFile(r.fsys, path.Clean(logicalName))
	if err != nil {
		r.logger.Warn("static asset missing", slog.String("asset", logicalName), slog.Any("error", err))
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:4])
}
