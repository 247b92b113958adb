package weights

import (
	"sort"
	"strconv"

	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/validation"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// BoneIndex maps bone names and bone function ids to array positions.
type BoneIndex interface {
	Lookup(name string) (int, bool)
	LookupFunction(id int64) (int, bool)
}

// Resolver turns vertex group memberships into weight buffers.
type Resolver struct {
	acc   *validation.Accumulator
	bones BoneIndex
}

// NewResolver creates a resolver reporting to acc.
func NewResolver(acc *validation.Accumulator, bones BoneIndex) *Resolver {
	return &Resolver{acc: acc, bones: bones}
}

// Bone resolves a group name to a bone index. An exact bone name wins over
// a suffixed reading of the same string. A bonefunction_NNN base that names
// no bone resolves through the bone function id.
func (r *Resolver) Bone(name string) (ix int, slot int, ok bool) {
	if ix, ok := r.lookup(name); ok {
		return ix, -1, true
	}
	g, suffixed := ParseGroupName(name)
	if !suffixed {
		return 0, -1, false
	}
	ix, ok = r.lookup(g.Base)
	return ix, g.Slot, ok
}

func (r *Resolver) lookup(name string) (int, bool) {
	if ix, ok := r.bones.Lookup(name); ok {
		return ix, true
	}
	if id, ok := mod3.ParseFunctionName(name); ok {
		return r.bones.LookupFunction(id)
	}
	return 0, false
}

// Vertex builds the weight buffer of vertex v of m. Entries keep membership
// order except that slot-suffixed groups are stably reordered by slot.
// Duplicate bones and negative weights are kept. Memberships that resolve
// to no bone are reported and dropped.
func (r *Resolver) Vertex(m *scene.Mesh, v int) mod3.Weights {
	type slotted struct {
		entry mod3.WeightEntry
		slot  int
	}
	var entries []slotted
	ordered := false
	for _, ref := range m.Vertices[v].Groups {
		name, ok := m.GroupName(ref.Group)
		if !ok {
			r.acc.InvalidGroupName(v, groupLabel(ref.Group))
			continue
		}
		ix, slot, ok := r.Bone(name)
		if !ok || ix >= mod3.MaxBones {
			r.acc.InvalidGroupName(v, canonical(name))
			continue
		}
		if slot >= 0 {
			ordered = true
		}
		entries = append(entries, slotted{
			entry: mod3.WeightEntry{Bone: uint8(ix), Weight: ref.Weight},
			slot:  slot,
		})
	}
	if ordered {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].slot < entries[j].slot
		})
	}

	out := make(mod3.Weights, len(entries))
	for i, e := range entries {
		out[i] = e.entry
	}
	return out
}

// Mesh builds the weight buffers of every vertex of m.
func (r *Resolver) Mesh(m *scene.Mesh) []mod3.Weights {
	out := make([]mod3.Weights, len(m.Vertices))
	for v := range m.Vertices {
		out[v] = r.Vertex(m, v)
	}
	return out
}

// canonical strips a recognised suffix for diagnostics.
func canonical(name string) string {
	if g, ok := ParseGroupName(name); ok {
		return g.Base
	}
	return name
}

func groupLabel(ix int) string {
	return "#" + strconv.Itoa(ix)
}
