package versionsource

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terassyi/vx/internal/manifest"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestFetch_GitHubReleases(t *testing.T) {
	t.Parallel()
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`[{"tag_name":"v1.0.0","draft":false}]`)),
			}, nil
		}),
	}
	rt := &manifest.Runtime{RuntimeEntry: manifest.RuntimeEntry{
		Name:     "bat",
		Versions: manifest.VersionSource{Kind: "github-releases", Owner: "sharkdp", Repo: "bat", TagPrefix: "v"},
	}}

	candidates, err := Fetch(context.Background(), rt, client)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "1.0.0", candidates[0].Version)
}

func TestFetch_NodeJSOrg(t *testing.T) {
	t.Parallel()
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/dist/index.json", req.URL.Path)
			body := `[{"version":"v20.11.0","date":"2024-02-01","lts":"Iron"},{"version":"v21.0.0","date":"2023-10-01","lts":false}]`
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
		}),
	}
	rt := &manifest.Runtime{RuntimeEntry: manifest.RuntimeEntry{
		Name:     "node",
		Versions: manifest.VersionSource{Kind: "nodejs-org", URL: "https://nodejs.org/dist/index.json"},
	}}

	candidates, err := Fetch(context.Background(), rt, client)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "20.11.0", candidates[0].Version)
	assert.True(t, candidates[0].LTS)
	assert.Equal(t, "21.0.0", candidates[1].Version)
	assert.False(t, candidates[1].LTS)
}

func TestFetch_Npm(t *testing.T) {
	t.Parallel()
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/typescript", req.URL.Path)
			body := `{"versions":{"5.3.0":{},"5.4.0-beta":{},"5.2.0":{"deprecated":"old"}},"time":{"5.3.0":"2024-01-01T00:00:00Z"}}`
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}, nil
		}),
	}
	rt := &manifest.Runtime{RuntimeEntry: manifest.RuntimeEntry{
		Name:     "typescript",
		Versions: manifest.VersionSource{Kind: "npm", Repo: "typescript"},
	}}

	candidates, err := Fetch(context.Background(), rt, client)
	require.NoError(t, err)
	require.Len(t, candidates, 2, "the deprecated version must be excluded")

	versions := make([]string, len(candidates))
	for i, c := range candidates {
		versions[i] = c.Version
	}
	assert.ElementsMatch(t, []string{"5.3.0", "5.4.0-beta"}, versions)
}

func TestFetch_Command(t *testing.T) {
	t.Parallel()
	rt := &manifest.Runtime{RuntimeEntry: manifest.RuntimeEntry{
		Name:     "demo",
		Versions: manifest.VersionSource{Kind: "command", Command: "printf '1.0.0\\n1.1.0\\n'"},
	}}

	candidates, err := Fetch(context.Background(), rt, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "1.0.0", candidates[0].Version)
	assert.Equal(t, "1.1.0", candidates[1].Version)
}

func TestFetch_UnsupportedKindIsError(t *testing.T) {
	t.Parallel()
	rt := &manifest.Runtime{RuntimeEntry: manifest.RuntimeEntry{
		Name:     "demo",
		Versions: manifest.VersionSource{Kind: "carrier-pigeon"},
	}}

	_, err := Fetch(context.Background(), rt, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported kind")
}
