package installer

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/platform"
)

// expandTemplate substitutes {version}, {platform}, {arch}, {os} and
// {ext} in a manifest-supplied URL template (spec.md §4.7 step 1).
func expandTemplate(tmpl, version, ext string, p platform.Platform) string {
	r := strings.NewReplacer(
		"{version}", version,
		"{platform}", string(p.OS),
		"{os}", string(p.OS),
		"{arch}", string(p.Arch),
		"{ext}", ext,
	)
	return r.Replace(tmpl)
}

// BuildURL resolves the download URL for one artifact of a runtime at a
// given version. When the manifest declares mirrors, the highest-
// priority reachable mirror wins (ties broken by lowest measured
// latency); otherwise the artifact's url_template is expanded.
func BuildURL(ctx context.Context, entry manifest.RuntimeEntry, version string, p platform.Platform) string {
	if len(entry.Mirrors) > 0 {
		if m := selectMirror(ctx, entry.Mirrors); m != "" {
			return expandTemplate(m, version, entry.Artifact.Ext, p)
		}
	}
	return expandTemplate(entry.Artifact.URLTemplate, version, entry.Artifact.Ext, p)
}

// selectMirror probes every mirror's reachability in parallel and
// returns the URL of the best candidate: priority first, latency as a
// tiebreak among mirrors of equal priority (spec.md §4.7 step 1,
// "optional parallel latency probing").
func selectMirror(ctx context.Context, mirrors []manifest.Mirror) string {
	type probed struct {
		mirror  manifest.Mirror
		latency time.Duration
		ok      bool
	}

	results := make([]probed, len(mirrors))
	done := make(chan struct{})
	remaining := len(mirrors)
	if remaining == 0 {
		return ""
	}

	for i, m := range mirrors {
		go func(i int, m manifest.Mirror) {
			start := time.Now()
			ok := probeReachable(ctx, m.URL)
			results[i] = probed{mirror: m, latency: time.Since(start), ok: ok}
			done <- struct{}{}
		}(i, m)
	}
	for range mirrors {
		<-done
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ok != results[j].ok {
			return results[i].ok
		}
		if results[i].mirror.Priority != results[j].mirror.Priority {
			return results[i].mirror.Priority > results[j].mirror.Priority
		}
		return results[i].latency < results[j].latency
	})

	if len(results) == 0 || !results[0].ok {
		if len(mirrors) > 0 {
			return mirrors[0].URL
		}
		return ""
	}
	return results[0].mirror.URL
}

// probeReachable issues a HEAD request to rawURL as a latency probe;
// template variables are left unexpanded at this stage, so a literal
// probe is attempted only when the URL needs no substitution.
func probeReachable(ctx context.Context, rawURL string) bool {
	if strings.Contains(rawURL, "{") {
		// Can't probe a templated URL without knowing the version yet;
		// treat it as reachable and let download-time errors surface.
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 400
}
