// Package provenance verifies a manifest-declared sigstore bundle against a
// downloaded artifact (spec.md §4.7 step 3's optional enrichment, SPEC_FULL.md
// §4.7): checksum verification stays mandatory whenever a manifest declares
// one, and this step runs strictly in addition to it, never in place of it.
package provenance

import (
	"fmt"
	"os"
	"sync"

	protobundle "github.com/sigstore/protobuf-specs/gen/pb-go/bundle/v1"
	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/tuf"
	sgverify "github.com/sigstore/sigstore-go/pkg/verify"
	"google.golang.org/protobuf/encoding/protojson"
)

// Identity is the certificate identity a bundle's signing certificate must
// match: a manifest-declared Fulcio issuer and subject-alternative-name
// pattern, generalized from one hardcoded publisher identity to whatever a
// runtime's manifest declares (its artifact's manifest.Provenance, e.g. a
// project's own GitHub Actions release workflow).
type Identity struct {
	Issuer   string
	SANRegex string
}

var (
	trustedRootOnce sync.Once
	trustedRoot     *root.LiveTrustedRoot
	trustedRootErr  error
)

// trustedRootFor returns the cached public-good Sigstore trusted root,
// fetched on first use.
func trustedRootFor() (*root.LiveTrustedRoot, error) {
	trustedRootOnce.Do(func() {
		trustedRoot, trustedRootErr = root.NewLiveTrustedRoot(tuf.DefaultOptions())
	})
	return trustedRoot, trustedRootErr
}

// Verify checks that bundlePath (a sigstore bundle JSON file, typically
// fetched alongside the artifact itself from a manifest-declared
// `<url>.sigstore.json`) attests to artifactPath, signed by a certificate
// matching identity, via the public-good Sigstore trusted root (Fulcio +
// Rekor).
func Verify(bundlePath, artifactPath string, identity Identity) error {
	raw, err := os.ReadFile(bundlePath)
	if err != nil {
		return fmt.Errorf("reading provenance bundle: %w", err)
	}

	var pb protobundle.Bundle
	if err := protojson.Unmarshal(raw, &pb); err != nil {
		return fmt.Errorf("parsing provenance bundle: %w", err)
	}
	b, err := bundle.NewBundle(&pb)
	if err != nil {
		return fmt.Errorf("building sigstore bundle: %w", err)
	}

	artifact, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("opening artifact for provenance check: %w", err)
	}
	defer artifact.Close()

	tr, err := trustedRootFor()
	if err != nil {
		return fmt.Errorf("fetching sigstore trusted root: %w", err)
	}

	verifier, err := sgverify.NewVerifier(tr,
		sgverify.WithSignedCertificateTimestamps(1),
		sgverify.WithTransparencyLog(1),
		sgverify.WithIntegratedTimestamps(1),
	)
	if err != nil {
		return fmt.Errorf("building sigstore verifier: %w", err)
	}

	certIdentity, err := sgverify.NewShortCertificateIdentity(identity.Issuer, "", "", identity.SANRegex)
	if err != nil {
		return fmt.Errorf("building certificate identity: %w", err)
	}

	if _, err := verifier.Verify(b, sgverify.NewPolicy(
		sgverify.WithArtifact(artifact),
		sgverify.WithCertificateIdentity(certIdentity),
	)); err != nil {
		return fmt.Errorf("sigstore verification failed: %w", err)
	}
	return nil
}
