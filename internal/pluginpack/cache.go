package pluginpack

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Metadata records when a rule-pack was installed, mirroring the teacher's
// internal/registry.CacheMetadata sidecar-file pattern.
type Metadata struct {
	InstalledAt time.Time `json:"installed_at"`
	Tag         string    `json:"tag"`
	ContentHash string    `json:"content_hash"`
	Files       []string  `json:"files"`
}

func metaPath(destDir, ref string) string {
	return filepath.Join(destDir, "."+strings.ReplaceAll(ref, "/", "_")+".meta.json")
}

// WriteMetadata writes the sidecar metadata file for a completed install.
func WriteMetadata(destDir, ref, tag string, files []string) error {
	h := sha256.New()
	for _, f := range files {
		h.Write([]byte(f))
	}
	meta := Metadata{
		InstalledAt: time.Now(),
		Tag:         tag,
		ContentHash: hex.EncodeToString(h.Sum(nil)),
		Files:       files,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath(destDir, ref), data, 0o644)
}

// ReadMetadata reads a previously-written sidecar metadata file. Returns
// nil, nil if the pack was never installed (cache miss).
func ReadMetadata(destDir, ref string) (*Metadata, error) {
	data, err := os.ReadFile(metaPath(destDir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
