package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/terassyi/vx/internal/versionsolver"
)

// perPage is the GitHub Releases list page size; 100 is the API's max and
// comfortably covers every runtime's release history in one request for
// the common case, with ListReleaseVersions still paginating beyond it.
const perPage = 100

// releaseListEntry is a subset of one GitHub Releases API list item.
type releaseListEntry struct {
	TagName     string `json:"tag_name"`
	Prerelease  bool   `json:"prerelease"`
	Draft       bool   `json:"draft"`
	PublishedAt string `json:"published_at"`
}

// ListReleaseVersions fetches every non-draft release tag from a GitHub
// repository, across as many pages as the repository has, and converts
// each into a versionsolver.Candidate — the shape a manifest.VersionSource
// of Kind "github-releases" supplies a versioncache.Fetcher/
// pipeline.CandidateFetcher with. tagPrefix is stripped from each tag
// (e.g. "bun-v" from "bun-v1.2.3"). The version cache stores this whole
// list keyed only by runtime name, so even a "latest" VersionRequest is
// solved by versionsolver.Solve against the full list rather than a
// single-release API call: a shortcut that fetched only the newest
// release would poison the cache for every other request shape.
func ListReleaseVersions(ctx context.Context, client *http.Client, owner, repo, tagPrefix string) ([]versionsolver.Candidate, error) {
	if strings.Contains(owner, "/") || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid owner %q or repo %q: must not contain '/'", owner, repo)
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo must not be empty")
	}

	var candidates []versionsolver.Candidate
	for page := 1; ; page++ {
		entries, err := fetchReleasePage(ctx, client, owner, repo, page)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}
		for _, e := range entries {
			if e.Draft || e.TagName == "" {
				continue
			}
			candidates = append(candidates, versionsolver.Candidate{
				Version:     strings.TrimPrefix(e.TagName, tagPrefix),
				ReleaseDate: e.PublishedAt,
				Prerelease:  e.Prerelease,
			})
		}
		if len(entries) < perPage {
			break
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no releases found for %s/%s", owner, repo)
	}
	return candidates, nil
}

func fetchReleasePage(ctx context.Context, client *http.Client, owner, repo string, page int) ([]releaseListEntry, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases?per_page=%d&page=%d", owner, repo, perPage, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d for %s/%s releases", resp.StatusCode, owner, repo)
	}

	var entries []releaseListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return entries, nil
}
