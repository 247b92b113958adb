// Package mod3 defines the in-memory MOD3 model record exchanged with the
// binary codec and the scene adapter.
//
// The record is fully materialized: bones are a flat, index-addressed array,
// mesh parts carry per-vertex attributes only, and every loosely-typed field
// lives in an ordered PropertyMap.
package mod3

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Format limits.
const (
	NoParent         = 255 // parentIndex sentinel for root bones
	NoTarget         = 255 // childIndex sentinel for bones without a target
	MaxBones         = 255
	MaxVertices      = 65535
	MaxFaces         = math.MaxUint32
	MinUVChannels    = 1
	MaxUVChannels    = 4
	MaterialNameSize = 128
	HighestLOD       = 0xFFFF
)

// LayoutCode identifies a binary vertex-buffer layout.
type LayoutCode uint32

// LayoutNone marks a mesh part without a layout label.
const LayoutNone LayoutCode = 0

// String returns the code as hex.
func (c LayoutCode) String() string {
	return fmt.Sprintf("0x%08x", uint32(c))
}

// Bone is one flattened skeleton node.
type Bone struct {
	Name             string      `yaml:"name"`
	ParentIndex      uint8       `yaml:"parent"`
	ChildIndex       uint8       `yaml:"child"`
	Offset           [3]float32  `yaml:"offset,flow"`
	Length           float32     `yaml:"length"`
	LocalMatrix      mgl32.Mat4  `yaml:"local_matrix,flow"`
	AbsoluteMatrix   mgl32.Mat4  `yaml:"absolute_matrix,flow"`
	CustomProperties PropertyMap `yaml:"properties"`
}

// IsRoot reports whether the bone attaches to the implicit root.
func (b *Bone) IsRoot() bool { return b.ParentIndex == NoParent }

// HasTarget reports whether the bone carries a secondary target link.
func (b *Bone) HasTarget() bool { return b.ChildIndex != NoTarget }

// Skeleton is the bone array plus its name to index map.
type Skeleton struct {
	Bones []Bone         `yaml:"bones"`
	Index map[string]int `yaml:"-"`
}

// Len returns the bone count.
func (s *Skeleton) Len() int { return len(s.Bones) }

// Lookup returns the index of the named bone.
func (s *Skeleton) Lookup(name string) (int, bool) {
	if s.Index == nil {
		s.Reindex()
	}
	ix, ok := s.Index[name]
	return ix, ok
}

// Reindex rebuilds the name to index map from the bone array.
func (s *Skeleton) Reindex() {
	s.Index = make(map[string]int, len(s.Bones))
	for i := range s.Bones {
		s.Index[s.Bones[i].Name] = i
	}
}

// LookupFunction returns the index of the first bone carrying bone function
// id.
func (s *Skeleton) LookupFunction(id int64) (int, bool) {
	for i := range s.Bones {
		if fn, ok := s.Bones[i].Function(); ok && fn == id {
			return i, true
		}
	}
	return 0, false
}

// LocalMatrices returns the per-bone parent-space matrices in array order.
func (s *Skeleton) LocalMatrices() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.Bones))
	for i := range s.Bones {
		out[i] = s.Bones[i].LocalMatrix
	}
	return out
}

// AbsoluteMatrices returns the per-bone inverse-chained matrices in array order.
func (s *Skeleton) AbsoluteMatrices() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.Bones))
	for i := range s.Bones {
		out[i] = s.Bones[i].AbsoluteMatrix
	}
	return out
}

// WeightEntry binds a vertex to a bone with a scalar weight.
type WeightEntry struct {
	Bone   uint8   `yaml:"bone"`
	Weight float32 `yaml:"weight"`
}

// Weights is the ordered weight buffer of one vertex. Entries are never
// merged by bone and negative weights are kept.
type Weights []WeightEntry

// Vertex is one binary-side vertex.
type Vertex struct {
	Position [3]float32   `yaml:"position,flow"`
	Weights  Weights      `yaml:"weights,omitempty"`
	Normal   [3]int8      `yaml:"normal,flow"`
	Tangent  [4]int8      `yaml:"tangent,flow"`
	UVs      [][2]float32 `yaml:"uvs,flow"`
	Color    [4]uint8     `yaml:"color,flow"`
}

// Face is a triangle referencing vertices of its owning mesh part.
type Face [3]uint16

// MeshPart is one mesh of the model.
type MeshPart struct {
	Name          string      `yaml:"name"`
	Vertices      []Vertex    `yaml:"vertices"`
	Faces         []Face      `yaml:"faces,flow"`
	Properties    PropertyMap `yaml:"properties"`
	Layout        LayoutCode  `yaml:"layout"`
	MaterialIndex int         `yaml:"material_index"`
	HasColor      bool        `yaml:"has_color"`
}

// LOD returns the part's level-of-detail bitmask.
func (p *MeshPart) LOD() int64 {
	return p.Properties.Int("lod", HighestLOD)
}

// UVChannels returns the UV channel count of the first vertex.
func (p *MeshPart) UVChannels() int {
	if len(p.Vertices) == 0 {
		return 0
	}
	return len(p.Vertices[0].UVs)
}

// Model is the aggregate exchanged with the binary reader and writer.
type Model struct {
	Header          PropertyMap `yaml:"header"`
	MeshProperties  []Value     `yaml:"mesh_properties,omitempty"`
	GroupProperties []Value     `yaml:"group_properties,omitempty"`
	TrailingData    Value       `yaml:"trailing_data"`
	Skeleton        Skeleton    `yaml:"skeleton"`
	Parts           []MeshPart  `yaml:"parts"`
	Materials       []string    `yaml:"materials"`
}

// VertexCount returns the total vertex count across all parts.
func (m *Model) VertexCount() int {
	n := 0
	for i := range m.Parts {
		n += len(m.Parts[i].Vertices)
	}
	return n
}

// FaceCount returns the total triangle count across all parts.
func (m *Model) FaceCount() int {
	n := 0
	for i := range m.Parts {
		n += len(m.Parts[i].Faces)
	}
	return n
}
