// Package pluginpack implements the external-collaborator shell of the
// loader's plugin-registration mechanism (spec §6): downloading a
// GitHub-released rule-pack (a .tar.xz bundle of target-kind/rule
// definitions consumed by internal/loader/internal/model.KeyRegistry) and
// unpacking it into the project's plugin directory. Grounded on the
// teacher's internal/registry.Registry (HTTP client construction, cache
// directory layout) adapted from raw-file fetches over a fixed base URL to
// the GitHub releases API via google/go-github, optionally authenticated
// via golang.org/x/oauth2 for private repos.
package pluginpack

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// DefaultAssetSuffix is the file extension a rule-pack release asset must
// carry to be considered installable.
const DefaultAssetSuffix = ".tar.xz"

// apiTimeout bounds a single GitHub API call or asset download, mirroring
// the teacher's newRegistryHTTPClient timeout posture.
const apiTimeout = 30 * time.Second

// Client fetches rule-pack releases from GitHub.
type Client struct {
	gh       *github.Client
	CacheDir string
}

// New constructs a Client caching downloaded packs under cacheDir. token,
// if non-empty, authenticates GitHub API calls via an oauth2 static token
// source, for private rule-pack repos.
func New(cacheDir string, token string) *Client {
	httpClient := newHTTPClient()
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return &Client{gh: github.NewClient(httpClient), CacheDir: cacheDir}
}

// newHTTPClient builds a timeout-bounded client with compression disabled
// on the transport, the same decompression-bomb precaution the teacher's
// registry client takes - this package does its own explicit xz
// decompression downstream and doesn't want the transport double-guessing
// content encoding underneath it.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: apiTimeout,
		Transport: &http.Transport{
			DisableCompression: true,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// splitOwnerRepo parses "owner/repo" into its two parts.
func splitOwnerRepo(ref string) (owner, repo string, err error) {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &Error{Type: ErrTypeValidation, Pack: ref, Msg: "expected \"owner/repo\""}
	}
	return parts[0], parts[1], nil
}

// findPackAsset locates the rule-pack asset (a DefaultAssetSuffix file) on
// a GitHub release, optionally matching a specific tag.
func (c *Client) findPackAsset(ctx context.Context, ref, tag string) (*github.ReleaseAsset, error) {
	owner, repo, err := splitOwnerRepo(ref)
	if err != nil {
		return nil, err
	}

	var release *github.RepositoryRelease
	if tag == "" {
		release, _, err = c.gh.Repositories.GetLatestRelease(ctx, owner, repo)
	} else {
		release, _, err = c.gh.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	}
	if err != nil {
		return nil, &Error{Type: ErrTypeNetwork, Pack: ref, Msg: "fetching release", Err: err}
	}

	for _, asset := range release.Assets {
		if strings.HasSuffix(asset.GetName(), DefaultAssetSuffix) {
			return asset, nil
		}
	}
	return nil, &Error{Type: ErrTypeNotFound, Pack: ref, Msg: fmt.Sprintf("no %s asset on release %s", DefaultAssetSuffix, release.GetTagName())}
}
