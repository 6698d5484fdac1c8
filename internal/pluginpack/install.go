package pluginpack

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Install downloads the rule-pack release asset for ref ("owner/repo"),
// optionally at tag (empty string means latest), decompresses it with
// ulikunitz/xz, and unpacks its tar contents under destDir. Returns the
// list of files written, relative to destDir.
func (c *Client) Install(ctx context.Context, ref, tag, destDir string) ([]string, error) {
	asset, err := c.findPackAsset(ctx, ref, tag)
	if err != nil {
		return nil, err
	}

	rc, redirectURL, err := c.gh.Repositories.DownloadReleaseAsset(ctx, mustOwner(ref), mustRepo(ref), asset.GetID(), newHTTPClient())
	if err != nil {
		return nil, &Error{Type: ErrTypeNetwork, Pack: ref, Msg: "downloading release asset", Err: err}
	}
	if rc == nil {
		resp, err := newHTTPClient().Get(redirectURL)
		if err != nil {
			return nil, &Error{Type: ErrTypeNetwork, Pack: ref, Msg: "following asset redirect", Err: err}
		}
		rc = resp.Body
	}
	defer rc.Close()

	files, err := extractTarXz(rc, destDir, ref)
	if err != nil {
		return nil, err
	}
	if err := WriteMetadata(destDir, ref, tag, files); err != nil {
		return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "writing install metadata", Err: err}
	}
	return files, nil
}

func mustOwner(ref string) string { o, _, _ := splitOwnerRepo(ref); return o }
func mustRepo(ref string) string  { _, r, _ := splitOwnerRepo(ref); return r }

// extractTarXz decompresses r as xz then unpacks the resulting tar stream
// under destDir, rejecting any entry that would escape destDir (path
// traversal via "../" in a malicious archive).
func extractTarXz(r io.Reader, destDir, ref string) ([]string, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "opening xz stream", Err: err}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "creating destination directory", Err: err}
	}

	var written []string
	tr := tar.NewReader(xr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "reading tar entry", Err: err}
		}

		target := filepath.Join(destDir, hdr.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: fmt.Sprintf("archive entry %q escapes destination", hdr.Name)}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "creating directory", Err: err}
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "creating parent directory", Err: err}
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode&0o777))
			if err != nil {
				return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "creating file", Err: err}
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return nil, &Error{Type: ErrTypeExtract, Pack: ref, Msg: "writing file", Err: err}
			}
			f.Close()
			rel, err := filepath.Rel(destDir, target)
			if err != nil {
				rel = hdr.Name
			}
			written = append(written, rel)
		}
	}
	return written, nil
}
