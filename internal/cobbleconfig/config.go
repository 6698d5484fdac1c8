// Package cobbleconfig holds cobble's environment-overridable runtime
// configuration: where generated output goes, how many packages load
// concurrently, and where the on-disk evaluation cache lives.
package cobbleconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// EnvOutRoot overrides the default build output root.
	EnvOutRoot = "COBBLE_OUT_ROOT"

	// EnvCacheDB overrides the path to the on-disk evaluation cache.
	EnvCacheDB = "COBBLE_CACHE_DB"

	// EnvJobsLoader overrides the number of packages loaded concurrently.
	EnvJobsLoader = "COBBLE_JOBS_LOADER"

	// EnvCacheSizeLimit overrides the maximum size of the on-disk
	// evaluation cache before old entries are evicted.
	EnvCacheSizeLimit = "COBBLE_CACHE_SIZE_LIMIT"

	// DefaultOutRoot is the default build output root, relative to the
	// project root.
	DefaultOutRoot = "out"

	// DefaultCacheDB is the default evaluation cache filename, relative to
	// the project's out root.
	DefaultCacheDB = ".cobble-cache.zst"

	// DefaultJobsLoader is the default package-loader concurrency.
	DefaultJobsLoader = 8

	// DefaultCacheSizeLimit is the default evaluation cache size limit
	// (256MB).
	DefaultCacheSizeLimit = 256 * 1024 * 1024
)

// GetOutRoot returns the configured output root from COBBLE_OUT_ROOT, or
// DefaultOutRoot if unset.
func GetOutRoot() string {
	v := os.Getenv(EnvOutRoot)
	if v == "" {
		return DefaultOutRoot
	}
	return v
}

// GetCacheDBPath returns the configured evaluation cache path from
// COBBLE_CACHE_DB, resolved relative to outRoot if not absolute.
func GetCacheDBPath(outRoot string) string {
	v := os.Getenv(EnvCacheDB)
	if v == "" {
		v = DefaultCacheDB
	}
	if filepath.IsAbs(v) {
		return v
	}
	return filepath.Join(outRoot, v)
}

// GetJobsLoader returns the configured package-loader concurrency from
// COBBLE_JOBS_LOADER. If not set or invalid, returns DefaultJobsLoader.
// Clamped to the range [1, 256].
func GetJobsLoader() int {
	envValue := os.Getenv(EnvJobsLoader)
	if envValue == "" {
		return DefaultJobsLoader
	}

	jobs, err := strconv.Atoi(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvJobsLoader, envValue, DefaultJobsLoader)
		return DefaultJobsLoader
	}

	if jobs < 1 {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d), using minimum 1\n", EnvJobsLoader, jobs)
		return 1
	}
	if jobs > 256 {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d), using maximum 256\n", EnvJobsLoader, jobs)
		return 256
	}

	return jobs
}

// ParseByteSize parses a human-readable byte size string into bytes.
// Accepts plain numbers (268435456), KB/K, MB/M, GB/G suffixes,
// case-insensitive.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}
	s = strings.ToUpper(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	var numStr, suffix string
	for i, c := range s {
		if c >= '0' && c <= '9' || c == '.' {
			numStr += string(c)
		} else {
			suffix = s[i:]
			break
		}
	}
	if numStr == "" {
		return 0, fmt.Errorf("invalid size format: %q", s)
	}

	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size number: %q", numStr)
	}

	var multiplier float64
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("invalid size suffix: %q", suffix)
	}

	return int64(num * multiplier), nil
}

// GetCacheSizeLimit returns the configured evaluation cache size limit from
// COBBLE_CACHE_SIZE_LIMIT. If not set or invalid, returns
// DefaultCacheSizeLimit. Clamped to [1MB, 20GB].
func GetCacheSizeLimit() int64 {
	envValue := os.Getenv(EnvCacheSizeLimit)
	if envValue == "" {
		return DefaultCacheSizeLimit
	}

	size, err := ParseByteSize(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %dMB\n",
			EnvCacheSizeLimit, envValue, DefaultCacheSizeLimit/(1024*1024))
		return DefaultCacheSizeLimit
	}

	minSize := int64(1 * 1024 * 1024)
	maxSize := int64(20 * 1024 * 1024 * 1024)
	if size < minSize {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d bytes), using minimum 1MB\n", EnvCacheSizeLimit, size)
		return minSize
	}
	if size > maxSize {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d bytes), using maximum 20GB\n", EnvCacheSizeLimit, size)
		return maxSize
	}

	return size
}

// Config holds cobble's resolved runtime configuration for a single
// project root.
type Config struct {
	ProjectRoot    string
	OutRoot        string
	CacheDBPath    string
	JobsLoader     int
	CacheSizeLimit int64
}

// Load resolves Config for a project rooted at projectRoot, applying
// environment overrides.
func Load(projectRoot string) (*Config, error) {
	outRoot := GetOutRoot()
	if !filepath.IsAbs(outRoot) {
		outRoot = filepath.Join(projectRoot, outRoot)
	}

	return &Config{
		ProjectRoot:    projectRoot,
		OutRoot:        outRoot,
		CacheDBPath:    GetCacheDBPath(outRoot),
		JobsLoader:     GetJobsLoader(),
		CacheSizeLimit: GetCacheSizeLimit(),
	}, nil
}

// EnsureOutRoot creates the output root directory if it doesn't exist.
func (c *Config) EnsureOutRoot() error {
	if err := os.MkdirAll(c.OutRoot, 0755); err != nil {
		return fmt.Errorf("failed to create out root %s: %w", c.OutRoot, err)
	}
	return nil
}
