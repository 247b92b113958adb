// Package scene models the authoring-side scene graph the converter reads on
// export and produces on import: a tree of named nodes with transforms,
// constraint cross-links and property bags, plus editable meshes with
// per-corner shading data and named vertex groups.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// NodeKind is the object type of a node.
type NodeKind int

const (
	KindEmpty NodeKind = iota
	KindMesh
	KindArmature
)

// String returns the kind name used in scene documents.
func (k NodeKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindMesh:
		return "mesh"
	case KindArmature:
		return "armature"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseNodeKind parses a kind name.
func ParseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "", "empty":
		return KindEmpty, nil
	case "mesh":
		return KindMesh, nil
	case "armature":
		return KindArmature, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// ConstraintKind names a constraint type.
type ConstraintKind string

// ChildOf is the only constraint the converter reads or writes.
const ChildOf ConstraintKind = "CHILD_OF"

// Constraint is a non-owning link from one node to another.
type Constraint struct {
	Kind   ConstraintKind
	Target *Node // nil targets the owning node itself
	Active bool
}

// Well-known node properties.
const (
	PropBoneFunction = "boneFunction"
	PropType         = "Type"
	TypeSkeletonRoot = "SkeletonRoot"
)

// Node is one scene object.
type Node struct {
	Name        string
	Kind        NodeKind
	Parent      *Node
	Children    []*Node
	Matrix      mgl32.Mat4 // transform in parent space
	World       mgl32.Mat4 // transform in scene space
	Properties  mod3.PropertyMap
	Constraints []Constraint
}

// NewNode creates a node with identity transforms.
func NewNode(name string, kind NodeKind) *Node {
	return &Node{
		Name:   name,
		Kind:   kind,
		Matrix: mgl32.Ident4(),
		World:  mgl32.Ident4(),
	}
}

// AddChild attaches child below n.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// BoneFunction returns the node's bone function id, read from the
// boneFunction property or else from a bonefunction_NNN name.
func (n *Node) BoneFunction() (int64, bool) {
	if v, ok := n.Properties.Get(PropBoneFunction); ok {
		return v.AsInt()
	}
	return mod3.ParseFunctionName(n.Name)
}

// IsBoneFunction reports whether the node carries the bone-function marker,
// either as a property or encoded in its name.
func (n *Node) IsBoneFunction() bool {
	if n.Properties.Has(PropBoneFunction) {
		return true
	}
	_, ok := mod3.ParseFunctionName(n.Name)
	return ok
}

// ChildOfConstraints returns the node's CHILD_OF constraints in order.
func (n *Node) ChildOfConstraints() []Constraint {
	var out []Constraint
	for _, c := range n.Constraints {
		if c.Kind == ChildOf {
			out = append(out, c)
		}
	}
	return out
}

// WorldMatrix composes the parent chain of local matrices.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.Parent == nil {
		return n.Matrix
	}
	return n.Parent.WorldMatrix().Mul4(n.Matrix)
}

// Walk visits n and its descendants in pre-order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first descendant (or n itself) with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(x *Node) bool {
		if x.Name == name {
			found = x
			return false
		}
		return true
	})
	return found
}

// Loop is one face corner.
type Loop struct {
	Vertex        int        `yaml:"vertex"`
	Normal        mgl32.Vec3 `yaml:"normal,flow"`
	Tangent       mgl32.Vec3 `yaml:"tangent,flow"`
	BitangentSign float32    `yaml:"bitangent_sign"`
}

// Polygon lists the loop indices of one face.
type Polygon struct {
	Loops []int `yaml:"loops,flow"`
}

// UVLayer holds one UV coordinate per loop.
type UVLayer struct {
	Name string       `yaml:"name"`
	Data [][2]float32 `yaml:"data,flow"`
}

// ColorLayer holds one RGBA color per loop, components in [0,1].
type ColorLayer struct {
	Name string       `yaml:"name"`
	Data [][4]float32 `yaml:"data,flow"`
}

// GroupRef is a vertex's membership in a vertex group.
type GroupRef struct {
	Group  int     `yaml:"group"`
	Weight float32 `yaml:"weight"`
}

// Vertex is one mesh vertex.
type Vertex struct {
	Position mgl32.Vec3 `yaml:"position,flow"`
	Normal   mgl32.Vec3 `yaml:"normal,flow"`
	Groups   []GroupRef `yaml:"groups,flow,omitempty"`
}

// Mesh is an editable polygon mesh object.
type Mesh struct {
	Name         string           `yaml:"name"`
	Properties   mod3.PropertyMap `yaml:"properties"`
	Vertices     []Vertex         `yaml:"vertices"`
	Loops        []Loop           `yaml:"loops"`
	Polygons     []Polygon        `yaml:"polygons"`
	VertexGroups []string         `yaml:"vertex_groups,omitempty"`
	UVLayers     []UVLayer        `yaml:"uv_layers,omitempty"`
	ColorLayers  []ColorLayer     `yaml:"color_layers,omitempty"`
	Armature     string           `yaml:"armature,omitempty"` // linked armature object
}

// PolygonVertices returns the vertex indices of polygon p.
func (m *Mesh) PolygonVertices(p int) []int {
	loops := m.Polygons[p].Loops
	out := make([]int, len(loops))
	for i, l := range loops {
		out[i] = m.Loops[l].Vertex
	}
	return out
}

// GroupName returns the name of vertex group ix.
func (m *Mesh) GroupName(ix int) (string, bool) {
	if ix < 0 || ix >= len(m.VertexGroups) {
		return "", false
	}
	return m.VertexGroups[ix], true
}

// GroupIndex returns the index of the named vertex group.
func (m *Mesh) GroupIndex(name string) (int, bool) {
	for i, g := range m.VertexGroups {
		if g == name {
			return i, true
		}
	}
	return 0, false
}

// AddGroup returns the index of the named group, creating it when absent.
func (m *Mesh) AddGroup(name string) int {
	if ix, ok := m.GroupIndex(name); ok {
		return ix
	}
	m.VertexGroups = append(m.VertexGroups, name)
	return len(m.VertexGroups) - 1
}

// Assign adds weight to the vertex's membership in group. Repeated
// assignments to the same group accumulate, so memberships stay unique per
// group and ordered by first assignment.
func (m *Mesh) Assign(group, vertex int, weight float32) {
	v := &m.Vertices[vertex]
	for i := range v.Groups {
		if v.Groups[i].Group == group {
			v.Groups[i].Weight += weight
			return
		}
	}
	v.Groups = append(v.Groups, GroupRef{Group: group, Weight: weight})
}

// Scene is the set of objects a conversion reads or produces.
type Scene struct {
	Properties mod3.PropertyMap
	Nodes      []*Node // top-level objects; descendants hang off Children
	Meshes     []*Mesh
}

// Objects returns every node of the scene in pre-order.
func (s *Scene) Objects() []*Node {
	var out []*Node
	for _, n := range s.Nodes {
		n.Walk(func(x *Node) bool {
			out = append(out, x)
			return true
		})
	}
	return out
}

// Node returns the first node with the given name.
func (s *Scene) Node(name string) *Node {
	for _, n := range s.Nodes {
		if found := n.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Mesh returns the mesh with the given name.
func (s *Scene) Mesh(name string) *Mesh {
	for _, m := range s.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}
