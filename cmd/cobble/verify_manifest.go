package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cobbleforge/cobble/internal/provenance"
)

var (
	verifyManifestPublicKey   string
	verifyManifestSignature   string
	verifyManifestFingerprint string
)

var verifyManifestCmd = &cobra.Command{
	Use:   "verify-manifest <manifest-file>",
	Short: "Verify a detached PGP signature over an emitted manifest",
	Long: `verify-manifest checks a detached signature produced by
"cobble build --sign <key>" against the manifest's SHA-256 digest.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerifyManifest,
}

func init() {
	verifyManifestCmd.Flags().StringVar(&verifyManifestPublicKey, "public-key", "", "path to the armored PGP public key (required)")
	verifyManifestCmd.Flags().StringVar(&verifyManifestSignature, "signature", "", "path to the detached signature (default: <manifest-file>.sig)")
	verifyManifestCmd.Flags().StringVar(&verifyManifestFingerprint, "fingerprint", "", "require the signing key's fingerprint to match")
	verifyManifestCmd.MarkFlagRequired("public-key")
}

func runVerifyManifest(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	sigPath := verifyManifestSignature
	if sigPath == "" {
		sigPath = manifestPath + ".sig"
	}

	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		printError(fmt.Errorf("reading manifest %s: %w", manifestPath, err))
		os.Exit(ExitGeneral)
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		printError(fmt.Errorf("reading signature %s: %w", sigPath, err))
		os.Exit(ExitGeneral)
	}
	armoredKey, err := os.ReadFile(verifyManifestPublicKey)
	if err != nil {
		printError(fmt.Errorf("reading public key %s: %w", verifyManifestPublicKey, err))
		os.Exit(ExitGeneral)
	}

	digest := provenance.ManifestDigest(manifest)
	if err := provenance.VerifyManifestDigest(string(armoredKey), digest, string(sig), verifyManifestFingerprint); err != nil {
		printError(fmt.Errorf("verification failed: %w", err))
		os.Exit(ExitVerifyFailed)
	}

	printInfof("signature valid for %s\n", manifestPath)
	return nil
}
