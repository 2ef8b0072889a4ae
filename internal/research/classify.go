package research

import (
	"net/url"
	"strings"

	"github.com/jordan/content-forge/internal/types"
)

// nonTrivialTextLen is the minimum grounded-search text length that counts
// as usable context for partial evidence.
const nonTrivialTextLen = 80

// ClassifyEvidenceLevel derives the evidence tier from research output.
// Strong requires at least 3 posts across at least 2 distinct source hosts;
// partial requires at least 1 post or non-trivial grounded-search text;
// otherwise the bundle is product-only.
func ClassifyEvidenceLevel(postCount int, sourceHosts map[string]int, hasSearchText bool) types.EvidenceLevel {
	if postCount >= 3 && len(sourceHosts) >= 2 {
		return types.EvidenceStrong
	}
	if postCount >= 1 || hasSearchText {
		return types.EvidencePartial
	}
	return types.EvidenceProductOnly
}

// hostOf extracts the normalized hostname from a source URL, stripping any
// leading "www.". Returns "" for unparseable URLs.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}

// dedupeSources drops sources with duplicate URLs and returns the surviving
// sources plus per-host post counts.
func dedupeSources(sources []Source) ([]Source, map[string]int) {
	seen := make(map[string]bool)
	hosts := make(map[string]int)
	var deduped []Source

	for _, source := range sources {
		key := strings.TrimSuffix(strings.ToLower(source.URL), "/")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, source)

		if host := hostOf(source.URL); host != "" {
			hosts[host]++
		}
	}

	return deduped, hosts
}
