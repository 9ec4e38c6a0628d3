// Package versionsource builds a version-candidate fetcher for one
// runtime's manifest-declared VersionSource, dispatching by its Kind
// (SPEC_FULL.md §4.5/§4.6's version candidate supply, spec.md §4.4). It is
// the concrete implementation the pipeline.CandidateFetcher seam is
// designed to be filled with — internal/pipeline stays free of any
// specific ecosystem client, and this package supplies one.
package versionsource

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"sort"
	"strings"

	"github.com/terassyi/vx/internal/github"
	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/versionsolver"
)

// Fetch returns the version candidate list for rt, dispatching on
// rt.Versions.Kind.
func Fetch(ctx context.Context, rt *manifest.Runtime, client *http.Client) ([]versionsolver.Candidate, error) {
	vs := rt.Versions
	switch vs.Kind {
	case "github-releases":
		return github.ListReleaseVersions(ctx, client, vs.Owner, vs.Repo, vs.TagPrefix)
	case "nodejs-org":
		return fetchNodeJSOrg(ctx, client, orDefault(vs.URL, "https://nodejs.org/dist/index.json"))
	case "npm":
		return fetchNpm(ctx, client, orDefault(vs.URL, "https://registry.npmjs.org"), packageName(vs))
	case "command":
		return fetchCommand(ctx, vs.Command)
	default:
		return nil, fmt.Errorf("versionsource: unsupported kind %q for runtime %q", vs.Kind, rt.Name)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func packageName(vs manifest.VersionSource) string {
	if name := vs.Extra["package"]; name != "" {
		return name
	}
	return vs.Repo
}

// nodeReleaseEntry is one entry of nodejs.org's dist/index.json.
type nodeReleaseEntry struct {
	Version string   `json:"version"` // "v20.11.0"
	Date    string   `json:"date"`
	LTS     any      `json:"lts"` // false, or the codename string
	Files   []string `json:"files"`
}

func fetchNodeJSOrg(ctx context.Context, client *http.Client, url string) ([]versionsolver.Candidate, error) {
	body, err := getJSON(ctx, client, url)
	if err != nil {
		return nil, fmt.Errorf("versionsource: fetch %s: %w", url, err)
	}
	defer body.Close()

	var entries []nodeReleaseEntry
	if err := json.NewDecoder(body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("versionsource: decode %s: %w", url, err)
	}

	candidates := make([]versionsolver.Candidate, 0, len(entries))
	for _, e := range entries {
		lts := false
		if s, ok := e.LTS.(string); ok && s != "" {
			lts = true
		}
		candidates = append(candidates, versionsolver.Candidate{
			Version:     strings.TrimPrefix(e.Version, "v"),
			ReleaseDate: e.Date,
			LTS:         lts,
		})
	}
	return candidates, nil
}

// npmPackument is the subset of an npm registry packument this package
// needs: every published version plus each one's deprecation status.
type npmPackument struct {
	Versions map[string]struct {
		Deprecated string `json:"deprecated"`
	} `json:"versions"`
	Time map[string]string `json:"time"` // version -> ISO8601 publish time, plus "created"/"modified"
}

func fetchNpm(ctx context.Context, client *http.Client, registryURL, pkg string) ([]versionsolver.Candidate, error) {
	if pkg == "" {
		return nil, fmt.Errorf("versionsource: npm version source requires a package name")
	}
	url := strings.TrimSuffix(registryURL, "/") + "/" + pkg
	body, err := getJSON(ctx, client, url)
	if err != nil {
		return nil, fmt.Errorf("versionsource: fetch %s: %w", url, err)
	}
	defer body.Close()

	var doc npmPackument
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("versionsource: decode %s: %w", url, err)
	}

	candidates := make([]versionsolver.Candidate, 0, len(doc.Versions))
	for version, meta := range doc.Versions {
		if meta.Deprecated != "" {
			continue
		}
		candidates = append(candidates, versionsolver.Candidate{
			Version:     version,
			ReleaseDate: doc.Time[version],
			Prerelease:  strings.ContainsAny(version, "-"),
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Version < candidates[j].Version })
	return candidates, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// fetchCommand runs a manifest-declared shell command and treats each
// non-blank line of stdout as one candidate version, trusting the
// manifest author's command to print bare version strings (e.g. `git tag
// --list` piped through a filter).
func fetchCommand(ctx context.Context, command string) ([]versionsolver.Candidate, error) {
	if command == "" {
		return nil, fmt.Errorf("versionsource: command version source requires a command")
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("versionsource: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("versionsource: start %q: %w", command, err)
	}

	var candidates []versionsolver.Candidate
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		candidates = append(candidates, versionsolver.Candidate{Version: line})
	}

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("versionsource: command %q: %w", command, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("versionsource: command %q produced no versions", command)
	}
	return candidates, nil
}
