// Package readiness decides when a release has enough host links to publish.
package readiness

import "autouploader/internal/linkstore"

// IsReady reports whether the release may publish once newHost's link is part
// of agg. With fewer than two primary hosts every arrival is ready. Otherwise
// every primary must hold a link. requireAll=false disables the gate.
//
// The result is monotone: adding links to agg never turns true into false.
func IsReady(newHost string, agg linkstore.Aggregate, primaries []string, requireAll bool) bool {
	if !requireAll || len(primaries) < 2 {
		return true
	}
	return len(Missing(newHost, agg, primaries)) == 0
}

// Missing lists the primaries without a link, in configured order.
func Missing(newHost string, agg linkstore.Aggregate, primaries []string) []string {
	var missing []string
	for _, p := range primaries {
		if p == newHost || agg.Has(p) {
			continue
		}
		missing = append(missing, p)
	}
	return missing
}

// AllPresent reports whether agg holds a link for every primary. Unlike
// IsReady it ignores the single-host shortcut and the requireAll switch; the
// pipeline uses it to decide whether an aggregate can be discarded.
func AllPresent(agg linkstore.Aggregate, primaries []string) bool {
	return len(Missing("", agg, primaries)) == 0
}
