package provenance

import "crypto/sha256"

// ManifestDigest returns the SHA-256 digest of an emitted manifest's raw
// bytes (the ninja file internal/ninjawriter.WriteAll produces), the value
// SignManifestDigest/VerifyManifestDigest operate on.
func ManifestDigest(manifest []byte) []byte {
	sum := sha256.Sum256(manifest)
	return sum[:]
}
