// Package weights maps between named vertex groups on scene meshes and the
// ordered per-vertex bone/weight buffers of a MOD3 model.
package weights

import (
	"fmt"
	"regexp"
	"strconv"
)

// Format selects how weight buffers are expanded into vertex groups on
// import.
type Format string

const (
	// Grouped merges every entry of a bone into one group named after it.
	Grouped Format = "grouped"
	// Split gives each repeated reference to a bone its own numbered group.
	Split Format = "split"
	// SplitOrdered names each group by the entry's slot in the buffer, so
	// re-export reproduces the original entry order.
	SplitOrdered Format = "split-ordered"
)

// Formats lists the accepted formats.
var Formats = []Format{Grouped, Split, SplitOrdered}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown weight format %q", s)
}

// SplitName is the group name of the k-th repeated reference to bone under
// Split. The first reference (k == 0) keeps the plain bone name.
func SplitName(bone string, k int) string {
	if k == 0 {
		return bone
	}
	return fmt.Sprintf("%s (%d)", bone, k)
}

// SlotName is the group name of the entry in the given buffer slot under
// SplitOrdered.
func SlotName(bone string, slot int) string {
	return fmt.Sprintf("%s/%d", bone, slot)
}

var suffixPattern = regexp.MustCompile(`^(.+?)(?: \((\d+)\)|/(\d+))$`)

// GroupName is a parsed vertex group name.
type GroupName struct {
	Base    string
	Ordinal int
	Slot    int // buffer slot from a "/n" suffix, -1 otherwise
}

// ParseGroupName splits a "<base> (<n>)" or "<base>/<n>" suffix off name.
// ok is false when name carries no suffix.
func ParseGroupName(name string) (g GroupName, ok bool) {
	m := suffixPattern.FindStringSubmatch(name)
	if m == nil {
		return GroupName{Base: name, Slot: -1}, false
	}
	g = GroupName{Base: m[1], Slot: -1}
	if m[2] != "" {
		g.Ordinal, _ = strconv.Atoi(m[2])
	} else {
		g.Slot, _ = strconv.Atoi(m[3])
		g.Ordinal = g.Slot
	}
	return g, true
}
