package cache

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oernster/trainer-sub004/internal/models"
	"github.com/oernster/trainer-sub004/internal/stations"
)

const (
	// CacheVersion invalidates persisted caches when the format changes
	CacheVersion = "1.0"

	cacheTTL         = 24 * time.Hour
	stationsFileName = "stations_cache.json.gz"
	metadataFileName = "stations_cache.meta.json"
)

// StationCache is the disk-backed, compressed, hash-validated cache of
// the full station name list. Every read failure is treated as a cache
// miss; nothing here propagates errors to the startup path.
type StationCache struct {
	dir string
}

// NewStationCache creates a cache rooted at dir
func NewStationCache(dir string) *StationCache {
	return &StationCache{dir: dir}
}

func (c *StationCache) stationsPath() string {
	return filepath.Join(c.dir, stationsFileName)
}

func (c *StationCache) metadataPath() string {
	return filepath.Join(c.dir, metadataFileName)
}

// IsValid reports whether the persisted cache can be used for the
// given source directory: file present, metadata parseable, version
// match, age within TTL, and source hash unchanged.
func (c *StationCache) IsValid(sourceDir string) bool {
	if _, err := os.Stat(c.stationsPath()); err != nil {
		return false
	}

	data, err := os.ReadFile(c.metadataPath())
	if err != nil {
		return false
	}

	var meta models.CacheMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		log.Printf("Warning: unreadable cache metadata: %v", err)
		return false
	}

	if meta.CacheVersion != CacheVersion {
		return false
	}

	age := time.Since(time.Unix(meta.CreatedTimestamp, 0))
	if age > cacheTTL {
		return false
	}

	hash, err := ComputeSourceHash(sourceDir)
	if err != nil {
		log.Printf("Warning: failed to hash source data: %v", err)
		return false
	}

	return hash == meta.DataSourceHash
}

// Load returns the cached, previously sorted station name list, or nil
// on any I/O or parsing failure
func (c *StationCache) Load() []string {
	file, err := os.Open(c.stationsPath())
	if err != nil {
		return nil
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		log.Printf("Warning: corrupt station cache: %v", err)
		return nil
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		log.Printf("Warning: failed to decompress station cache: %v", err)
		return nil
	}

	var payload models.CachePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Warning: failed to parse station cache: %v", err)
		return nil
	}

	return payload.Stations
}

// Save persists a sorted, deduplicated copy of names plus the sidecar
// metadata. Both files are written to a temp path and renamed so a
// crash mid-write never leaves a partial cache.
func (c *StationCache) Save(names []string, sourceDir string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	sorted := dedupSorted(names)
	now := time.Now().Unix()

	payload := models.CachePayload{
		Stations:         sorted,
		StationCount:     len(sorted),
		CreatedTimestamp: now,
		CacheVersion:     CacheVersion,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal station cache: %w", err)
	}

	if err := writeCompressedAtomic(c.stationsPath(), data); err != nil {
		return fmt.Errorf("failed to write station cache: %w", err)
	}

	hash, err := ComputeSourceHash(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to hash source data: %w", err)
	}

	meta := models.CacheMetadata{
		CacheVersion:       CacheVersion,
		CreatedTimestamp:   now,
		StationCount:       len(sorted),
		CompressionEnabled: true,
		DataSourceHash:     hash,
	}

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}

	if err := writeFileAtomic(c.metadataPath(), metaData); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}

	log.Printf("Saved %d station names to cache", len(sorted))
	return nil
}

// Clear removes both cache files. Missing files are not an error.
func (c *StationCache) Clear() error {
	for _, path := range []string{c.stationsPath(), c.metadataPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// ComputeSourceHash fingerprints the source data: full content of the
// index file and the underground stations file (if present), then the
// filename and modification time of each non-backup JSON file under
// the lines directory. Content hashing of every line file is skipped
// on purpose to keep repeated startups fast.
func ComputeSourceHash(sourceDir string) (string, error) {
	h := sha256.New()

	indexData, err := os.ReadFile(filepath.Join(sourceDir, stations.IndexFileName))
	if err != nil {
		return "", fmt.Errorf("failed to read index file: %w", err)
	}
	h.Write(indexData)

	if data, err := os.ReadFile(filepath.Join(sourceDir, stations.UndergroundFileName)); err == nil {
		h.Write(data)
	}

	linesDir := filepath.Join(sourceDir, stations.LinesDirName)
	entries, err := os.ReadDir(linesDir)
	if err != nil {
		return "", fmt.Errorf("failed to read lines dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.Contains(name, ".backup") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		info, err := os.Stat(filepath.Join(linesDir, name))
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%s:%d\n", name, info.ModTime().UnixNano())
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func dedupSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func writeCompressedAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	if _, err := gz.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
