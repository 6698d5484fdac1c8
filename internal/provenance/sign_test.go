package provenance

import (
	"testing"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFingerprintRejectsBadInput(t *testing.T) {
	assert.NoError(t, ValidateFingerprint("0123456789ABCDEF0123456789ABCDEF01234567"))
	assert.Error(t, ValidateFingerprint("not-a-fingerprint"))
}

func TestFormatFingerprintGroupsByFour(t *testing.T) {
	got := FormatFingerprint("0123456789abcdef0123456789abcdef01234567")
	assert.Equal(t, "0123 4567 89AB CDEF 0123 4567 89AB CDEF 0123 4567", got)
}

func TestSignAndVerifyManifestDigestRoundTrips(t *testing.T) {
	key, err := crypto.GenerateKey("Test", "test@example.com", "rsa", 2048)
	require.NoError(t, err)

	armoredPriv, err := key.Armor()
	require.NoError(t, err)

	publicKey, err := key.ToPublic()
	require.NoError(t, err)
	armoredPub, err := publicKey.Armor()
	require.NoError(t, err)

	digest := ManifestDigest([]byte("build out/prog: link_c_program out/foo.o\n"))

	sig, err := SignManifestDigest(armoredPriv, digest)
	require.NoError(t, err)

	err = VerifyManifestDigest(armoredPub, digest, sig, "")
	assert.NoError(t, err)
}

func TestVerifyManifestDigestFailsOnTamperedDigest(t *testing.T) {
	key, err := crypto.GenerateKey("Test", "test@example.com", "rsa", 2048)
	require.NoError(t, err)
	armoredPriv, err := key.Armor()
	require.NoError(t, err)
	publicKey, err := key.ToPublic()
	require.NoError(t, err)
	armoredPub, err := publicKey.Armor()
	require.NoError(t, err)

	digest := ManifestDigest([]byte("original manifest"))
	sig, err := SignManifestDigest(armoredPriv, digest)
	require.NoError(t, err)

	tampered := ManifestDigest([]byte("tampered manifest"))
	err = VerifyManifestDigest(armoredPub, tampered, sig, "")
	assert.Error(t, err)
}

func TestVerifyManifestDigestFailsOnFingerprintMismatch(t *testing.T) {
	key, err := crypto.GenerateKey("Test", "test@example.com", "rsa", 2048)
	require.NoError(t, err)
	armoredPriv, err := key.Armor()
	require.NoError(t, err)
	publicKey, err := key.ToPublic()
	require.NoError(t, err)
	armoredPub, err := publicKey.Armor()
	require.NoError(t, err)

	digest := ManifestDigest([]byte("manifest"))
	sig, err := SignManifestDigest(armoredPriv, digest)
	require.NoError(t, err)

	err = VerifyManifestDigest(armoredPub, digest, sig, "0000000000000000000000000000000000000000")
	assert.Error(t, err)
}
