package ratelimit

import (
	"net/http"
	"strings"
)

// decisionSuffixes are path segments whose mutations carry the full workflow
// machinery (guard evaluation, audit write, event publish), so they get the
// tightest per-actor budget.
var decisionSuffixes = []string{
	"/transition",
	"/votes",
	"/disposition",
	"/approvals",
	"/response",
	"/review",
	"/links",
}

// InspectRequest classifies a request into an operation tier. Separate
// counters per tier keep a burst of reads from starving decision traffic.
func InspectRequest(method, path string) OpTier {
	if method == http.MethodGet || method == http.MethodHead {
		return TierRead
	}

	for _, suffix := range decisionSuffixes {
		if strings.HasSuffix(path, suffix) || strings.Contains(path, "/steps/") {
			return TierDecision
		}
	}

	return TierWrite
}
