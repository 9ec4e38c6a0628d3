package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// downloadOCI pulls refStr (an `oci://registry/repo:tag` artifact
// reference, SPEC_FULL.md §4.7's additional artifact source scheme) and
// writes its last layer's uncompressed content to destPath. Grounded on
// internal/verify/oci.go's remote.Image/Manifest/LayerByDigest image-pull
// shape, repurposed from "fetch a cosign signature image's layer" to
// "fetch the one artifact layer an oci:// manifest URL names" — the last
// layer, matching how single-artifact OCI images are conventionally built
// (one base, one content layer appended last).
func downloadOCI(ctx context.Context, refStr, destPath string) error {
	ref, err := name.ParseReference(strings.TrimPrefix(refStr, "oci://"))
	if err != nil {
		return fmt.Errorf("parsing OCI reference %q: %w", refStr, err)
	}

	img, err := remote.Image(ref, remote.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("fetching OCI image %s: %w", ref, err)
	}

	layers, err := img.Layers()
	if err != nil {
		return fmt.Errorf("reading OCI image layers: %w", err)
	}
	if len(layers) == 0 {
		return fmt.Errorf("OCI image %s has no layers", ref)
	}

	rc, err := layers[len(layers)-1].Uncompressed()
	if err != nil {
		return fmt.Errorf("reading OCI artifact layer: %w", err)
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", destPath, err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("writing OCI artifact content: %w", err)
	}
	return nil
}

func isOCIReference(url string) bool {
	return strings.HasPrefix(url, "oci://")
}
