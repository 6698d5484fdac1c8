package evalcache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sort"
)

// HashGeneration digests the contents of every file in paths (typically
// internal/graphview.SourceFiles(proj): BUILD.conf plus every package's
// BUILD file) into a single generation string. A Store's cached entries are
// only valid for the generation that produced them - any edit to the
// project's own definition files invalidates the entire cache at once,
// mirroring the teacher's computeContentHash (internal/registry/cache.go)
// applied to the project's source-of-truth files rather than a single
// downloaded recipe.
func HashGeneration(paths []string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, p := range sorted {
		h.Write([]byte(p))
		h.Write([]byte{0})
		contents, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		h.Write(contents)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Key composes the cache key for a (target identifier, environment digest)
// pair, the same composite internal/evalgraph's depKey uses internally.
func Key(targetIdentifier, envDigest string) string {
	return targetIdentifier + "|" + envDigest
}
