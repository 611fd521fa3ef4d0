// Package corpus downloads and caches the versioned OME-Zarr (ngff)
// conformance corpus and parses it into test cases.
package corpus

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultURLTemplate is where corpus archives are fetched from; %s is the
// OME-Zarr version.
const DefaultURLTemplate = "https://github.com/ome/ngff/archive/v%s.zip"

const cacheDirName = "ome_zarr_conformance"

// Config controls cache behaviour.
type Config struct {
	// Dir is the cache directory. Empty means DefaultDir().
	Dir string
	// FetchTimeout bounds a single archive download. Zero means no bound
	// beyond the caller's context.
	FetchTimeout time.Duration
	// Refresh forces a re-download even when a valid cached copy exists.
	Refresh bool
	// URLTemplate overrides DefaultURLTemplate (used by tests).
	URLTemplate string
}

// Cache fetches corpus archives and persists them locally. Safe to call
// repeatedly; a valid cached archive is never re-downloaded unless Refresh
// is set.
type Cache struct {
	logger      zerolog.Logger
	dir         string
	client      *http.Client
	urlTemplate string
	refresh     bool
}

// entryMeta is the sidecar written next to each cached archive.
type entryMeta struct {
	Version     string    `json:"version"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Entry describes one cached archive, for display.
type Entry struct {
	Version     string
	File        string
	Size        int64
	SHA256      string
	RetrievedAt time.Time
}

// DefaultDir returns the per-user cache directory for corpus archives.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache directory: %w", err)
	}
	return filepath.Join(base, cacheDirName), nil
}

// New creates a cache rooted at cfg.Dir, creating the directory if needed.
func New(logger zerolog.Logger, cfg Config) (*Cache, error) {
	dir := cfg.Dir
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	urlTemplate := cfg.URLTemplate
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}

	return &Cache{
		logger:      logger,
		dir:         dir,
		client:      &http.Client{Timeout: cfg.FetchTimeout},
		urlTemplate: urlTemplate,
		refresh:     cfg.Refresh,
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// archivePath returns the cache file for a version, e.g. 0.4 -> 0_4.zip.
func (c *Cache) archivePath(version string) string {
	return filepath.Join(c.dir, strings.ReplaceAll(version, ".", "_")+".zip")
}

// ensure returns the path of a verified archive for version, downloading it
// when the cached copy is missing, corrupt, or a refresh was requested.
func (c *Cache) ensure(ctx context.Context, version string) (string, error) {
	path := c.archivePath(version)

	if !c.refresh {
		err := c.verify(path)
		if err == nil {
			c.logger.Debug().Str("version", version).Str("file", path).Msg("Using cached corpus archive")
			return path, nil
		}
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("version", version).Msg("Cached corpus archive failed integrity check, refetching")
		}
	}

	if err := c.download(ctx, version, path); err != nil {
		return "", err
	}
	if err := c.verify(path); err != nil {
		return "", fmt.Errorf("corpus archive for %s failed verification after download: %w", version, err)
	}
	return path, nil
}

// verify checks that the archive exists, matches its sidecar's size and
// sha256, and opens as a zip. Returns an os.IsNotExist error when either
// file is absent.
func (c *Cache) verify(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	meta, err := readMeta(metaPath(path))
	if err != nil {
		return err
	}
	if info.Size() != meta.Size {
		return fmt.Errorf("size mismatch: have %d bytes, sidecar records %d", info.Size(), meta.Size)
	}

	digest, err := fileSHA256(path)
	if err != nil {
		return err
	}
	if digest != meta.SHA256 {
		return fmt.Errorf("sha256 mismatch: have %s, sidecar records %s", digest, meta.SHA256)
	}

	z, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	return z.Close()
}

// download fetches the archive for version and writes it, plus its sidecar,
// atomically (temp file then rename) so a concurrent reader never sees a
// partial archive.
func (c *Cache) download(ctx context.Context, version, path string) error {
	url := fmt.Sprintf(c.urlTemplate, version)
	c.logger.Info().Str("version", version).Str("url", url).Msg("Downloading corpus archive")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build corpus request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch corpus for %s: %w", version, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch corpus for %s: unexpected status %s", version, resp.Status)
	}

	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write corpus archive: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move corpus archive into place: %w", err)
	}

	meta := entryMeta{
		Version:     version,
		URL:         url,
		Size:        size,
		SHA256:      hex.EncodeToString(hasher.Sum(nil)),
		RetrievedAt: time.Now().UTC(),
	}
	if err := writeMeta(metaPath(path), meta); err != nil {
		return err
	}

	c.logger.Debug().
		Str("version", version).
		Int64("size", size).
		Str("sha256", meta.SHA256).
		Msg("Cached corpus archive")
	return nil
}

// Entries lists the cached archives by reading their sidecars.
func (c *Cache) Entries() ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.zip"))
	if err != nil {
		return nil, fmt.Errorf("scan cache directory: %w", err)
	}

	var entries []Entry
	for _, path := range matches {
		meta, err := readMeta(metaPath(path))
		if err != nil {
			c.logger.Warn().Err(err).Str("file", path).Msg("Skipping cache entry without a readable sidecar")
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Version:     meta.Version,
			File:        filepath.Base(path),
			Size:        info.Size(),
			SHA256:      meta.SHA256,
			RetrievedAt: meta.RetrievedAt,
		})
	}
	return entries, nil
}

func metaPath(archivePath string) string {
	return strings.TrimSuffix(archivePath, ".zip") + ".json"
}

func readMeta(path string) (entryMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entryMeta{}, err
	}
	var meta entryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return entryMeta{}, fmt.Errorf("parse cache sidecar %s: %w", path, err)
	}
	return meta, nil
}

func writeMeta(path string, meta entryMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache sidecar: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp sidecar: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write cache sidecar: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move cache sidecar into place: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
