package weights

import (
	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Member is one vertex's weight in a group.
type Member struct {
	Vertex int
	Weight float32
}

// Group is a named vertex group produced on import.
type Group struct {
	Name    string
	Members []Member
}

// Expand turns per-vertex weight buffers into named vertex groups under
// format f. boneName names bone indices. Groups appear in order of first
// use, walking vertices and then buffer slots.
//
// Grouped merges same-bone entries of a vertex by summing them; this is the
// one lossy format. Split and SplitOrdered keep one group membership per
// entry.
func Expand(f Format, buffers []mod3.Weights, boneName func(int) string) []Group {
	var groups []Group
	index := make(map[string]int)
	add := func(name string, vertex int, w float32) {
		gi, ok := index[name]
		if !ok {
			gi = len(groups)
			index[name] = gi
			groups = append(groups, Group{Name: name})
		}
		g := &groups[gi]
		if n := len(g.Members); n > 0 && g.Members[n-1].Vertex == vertex {
			g.Members[n-1].Weight += w
			return
		}
		g.Members = append(g.Members, Member{Vertex: vertex, Weight: w})
	}

	for v, buf := range buffers {
		seen := make(map[uint8]int, len(buf))
		for slot, e := range buf {
			name := boneName(int(e.Bone))
			switch f {
			case Split:
				name = SplitName(name, seen[e.Bone])
				seen[e.Bone]++
			case SplitOrdered:
				name = SlotName(name, slot)
			}
			add(name, v, e.Weight)
		}
	}
	return groups
}

// Apply writes groups into m's vertex groups. Memberships are appended in
// group order, so a vertex lists its groups in the order they were created.
func Apply(m *scene.Mesh, groups []Group) {
	for _, g := range groups {
		gi := m.AddGroup(g.Name)
		for _, mem := range g.Members {
			m.Assign(gi, mem.Vertex, mem.Weight)
		}
	}
}
