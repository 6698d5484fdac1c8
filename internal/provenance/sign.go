// Package provenance implements optional supply-chain signing of an
// emitted build manifest's digest: `cobble build --sign <key>` detached-
// signs it, `cobble verify-manifest` checks the signature against a public
// key. Grounded directly on the teacher's internal/actions/signature.go,
// which performs the equivalent check when installing a recipe (PGPKeyCache,
// VerifyPGPSignature, GetKeyFingerprint/FormatFingerprint) via the same
// github.com/ProtonMail/gopenpgp/v2/crypto API.
package provenance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

// fingerprintRegex matches a 40-character hex key fingerprint, mirroring
// the teacher's validation of user-supplied fingerprints.
var fingerprintRegex = regexp.MustCompile(`^[0-9A-Fa-f]{40}$`)

// ValidateFingerprint checks that fingerprint is 40 hex characters.
func ValidateFingerprint(fingerprint string) error {
	if !fingerprintRegex.MatchString(strings.ReplaceAll(fingerprint, " ", "")) {
		return fmt.Errorf("invalid fingerprint format: must be 40 hex characters, got %q", fingerprint)
	}
	return nil
}

// FormatFingerprint renders fp in the standard GPG groups-of-4 layout.
func FormatFingerprint(fp string) string {
	fp = strings.ToUpper(strings.ReplaceAll(fp, " ", ""))
	if len(fp) != 40 {
		return fp
	}
	var parts []string
	for i := 0; i < 40; i += 4 {
		parts = append(parts, fp[i:i+4])
	}
	return strings.Join(parts, " ")
}

// SignManifestDigest detached-signs digest (the manifest's content digest,
// not the manifest itself - signing a digest rather than a potentially
// large ninja file keeps this fast) with armoredPrivateKey, returning an
// armored detached signature.
func SignManifestDigest(armoredPrivateKey string, digest []byte) (string, error) {
	key, err := crypto.NewKeyFromArmored(armoredPrivateKey)
	if err != nil {
		return "", fmt.Errorf("provenance: parsing signing key: %w", err)
	}

	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return "", fmt.Errorf("provenance: building signing keyring: %w", err)
	}

	message := crypto.NewPlainMessage(digest)
	signature, err := keyRing.SignDetached(message)
	if err != nil {
		return "", fmt.Errorf("provenance: signing manifest digest: %w", err)
	}

	armored, err := signature.GetArmored()
	if err != nil {
		return "", fmt.Errorf("provenance: armoring signature: %w", err)
	}
	return armored, nil
}

// VerifyManifestDigest verifies that armoredSignature is a valid detached
// signature of digest under armoredPublicKey, and that the key's
// fingerprint matches expectedFingerprint (normalized, spaces/case
// insensitive) when non-empty.
func VerifyManifestDigest(armoredPublicKey string, digest []byte, armoredSignature string, expectedFingerprint string) error {
	key, err := crypto.NewKeyFromArmored(armoredPublicKey)
	if err != nil {
		return fmt.Errorf("provenance: parsing public key: %w", err)
	}

	if expectedFingerprint != "" {
		want := strings.ToUpper(strings.ReplaceAll(expectedFingerprint, " ", ""))
		got := strings.ToUpper(key.GetFingerprint())
		if got != want {
			return fmt.Errorf("provenance: key fingerprint mismatch: expected %s, got %s", want, got)
		}
	}

	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return fmt.Errorf("provenance: building verification keyring: %w", err)
	}

	signature, err := crypto.NewPGPSignatureFromArmored(armoredSignature)
	if err != nil {
		return fmt.Errorf("provenance: parsing signature: %w", err)
	}

	message := crypto.NewPlainMessage(digest)
	if err := keyRing.VerifyDetached(message, signature, 0); err != nil {
		return fmt.Errorf("provenance: signature verification failed: %w", err)
	}
	return nil
}

// KeyFingerprint returns the formatted fingerprint of an armored key, for
// display in `cobble verify-manifest`'s output.
func KeyFingerprint(armoredKey string) (string, error) {
	key, err := crypto.NewKeyFromArmored(armoredKey)
	if err != nil {
		return "", fmt.Errorf("provenance: parsing key: %w", err)
	}
	return FormatFingerprint(key.GetFingerprint()), nil
}
