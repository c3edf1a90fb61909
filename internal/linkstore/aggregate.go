package linkstore

import (
	"slices"
	"sort"
	"strings"

	"autouploader/internal/hosts"
)

const unknownPrefix = hosts.Unknown + ":"

// Aggregate maps slots to links for one release.
type Aggregate map[string]string

// Slot returns the slot a link occupies: the host id for recognized hosts and
// "unknown:<link>" otherwise.
func Slot(host, link string) string {
	if host == "" || host == hosts.Unknown {
		return unknownPrefix + link
	}
	return host
}

// IsUnknownSlot reports whether slot holds an unclassified link.
func IsUnknownSlot(slot string) bool {
	return strings.HasPrefix(slot, unknownPrefix)
}

// Clone returns a copy safe to mutate.
func (a Aggregate) Clone() Aggregate {
	out := make(Aggregate, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Has reports whether a link is stored for host.
func (a Aggregate) Has(host string) bool {
	_, ok := a[host]
	return ok
}

// Link returns the link for host, or "".
func (a Aggregate) Link(host string) string {
	return a[host]
}

// Hosts returns the recognized host ids present, sorted.
func (a Aggregate) Hosts() []string {
	out := make([]string, 0, len(a))
	for slot := range a {
		if !IsUnknownSlot(slot) {
			out = append(out, slot)
		}
	}
	sort.Strings(out)
	return out
}

// MirrorSlots returns every slot that is not a primary host, recognized
// mirrors first (sorted by id) followed by unknown slots (sorted by link).
func (a Aggregate) MirrorSlots(primaries []string) []string {
	var known, unknown []string
	for slot := range a {
		switch {
		case slices.Contains(primaries, slot):
		case IsUnknownSlot(slot):
			unknown = append(unknown, slot)
		default:
			known = append(known, slot)
		}
	}
	sort.Strings(known)
	sort.Strings(unknown)
	return append(known, unknown...)
}

// MirrorLinks returns the links of MirrorSlots in the same order.
func (a Aggregate) MirrorLinks(primaries []string) []string {
	slots := a.MirrorSlots(primaries)
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, a[slot])
	}
	return out
}
