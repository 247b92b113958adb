// Package layout maps human-readable vertex-buffer labels to binary layout
// codes.
//
// Codes are JamCRC hashes of the label bytes. The mapping is one-way: a code
// can be validated against the known table but never turned back into a label.
package layout

import (
	"hash/crc32"
	"sort"

	"github.com/Faultbox/mod3-tools/internal/validation"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Layout describes what a vertex-buffer layout can store.
type Layout struct {
	Weights int  // Weight slots per vertex, 0 for rigid layouts
	UVs     int  // UV channels
	Color   bool // Carries a vertex color
}

// Skinned reports whether the layout stores bone weights.
func (l Layout) Skinned() bool { return l.Weights > 0 }

// known is the closed table of valid layout codes.
var known = map[mod3.LayoutCode]Layout{
	0xaa8d8297: {Weights: 0, UVs: 1},              // IANonSkinTB
	0x81149b4f: {Weights: 0, UVs: 1, Color: true}, // IANonSkinTBC
	0x00cbc7a5: {Weights: 0, UVs: 2},              // IANonSkinTB2UV
	0x49698c8a: {Weights: 0, UVs: 2, Color: true}, // IANonSkinTB2UVC
	0x0109ad92: {Weights: 0, UVs: 3},              // IANonSkinTB3UV
	0x0446bb17: {Weights: 0, UVs: 4},              // IANonSkinTB4UV
	0x12de4028: {Weights: 4, UVs: 1},              // IASkinOTB4wt1UV
	0xda726690: {Weights: 4, UVs: 1, Color: true}, // IASkinOTB4wt1UVC
	0x1098fe71: {Weights: 4, UVs: 2},              // IASkinOTB4wt2UV
	0xc8c7c97e: {Weights: 4, UVs: 2, Color: true}, // IASkinOTB4wt2UVC
	0x141582c3: {Weights: 4, UVs: 4},              // IASkinOTB4wt4UV
	0x651c8053: {Weights: 8, UVs: 1},              // IASkinOTB8wt1UV
	0x1dd20ce4: {Weights: 8, UVs: 1, Color: true}, // IASkinOTB8wt1UVC
	0x675a3e0a: {Weights: 8, UVs: 2},              // IASkinOTB8wt2UV
	0x0f67a30a: {Weights: 8, UVs: 2, Color: true}, // IASkinOTB8wt2UVC
	0x63d742b8: {Weights: 8, UVs: 4},              // IASkinOTB8wt4UV
	0xe72b0983: {Weights: 1, UVs: 1},              // IASkinBridge1wt
	0xe56db7da: {Weights: 2, UVs: 1},              // IASkinBridge2wt
	0xe1e0cb68: {Weights: 4, UVs: 1},              // IASkinBridge4wt
	0xe8fa320c: {Weights: 8, UVs: 1},              // IASkinBridge8wt
}

// Hash returns the JamCRC of label: CRC-32/IEEE seeded with 0xFFFFFFFF and
// without the final inversion.
func Hash(label string) mod3.LayoutCode {
	return mod3.LayoutCode(^crc32.ChecksumIEEE([]byte(label)))
}

// Lookup returns the description of a known code.
func Lookup(code mod3.LayoutCode) (Layout, bool) {
	l, ok := known[code]
	return l, ok
}

// Known reports whether code is in the table.
func Known(code mod3.LayoutCode) bool {
	_, ok := known[code]
	return ok
}

// Codes returns every known code in ascending order.
func Codes() []mod3.LayoutCode {
	out := make([]mod3.LayoutCode, 0, len(known))
	for c := range known {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve hashes label and validates the result against the known table.
// An empty label yields LayoutNone. An unknown hash records a fatal
// uninvertible-layout fault and returns fallback.
func Resolve(acc *validation.Accumulator, label string, fallback mod3.LayoutCode) mod3.LayoutCode {
	if label == "" {
		return mod3.LayoutNone
	}
	code := Hash(label)
	if Known(code) {
		return code
	}
	acc.Unresolvable(validation.CodeUninvertibleLayout, validation.NoElement, "blockLabel", label)
	return fallback
}
