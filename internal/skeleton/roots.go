// Package skeleton converts between a scene tree of bone nodes and the flat,
// parent-indexed bone array of a MOD3 model.
package skeleton

import "github.com/Faultbox/mod3-tools/internal/scene"

// RootClass is the outcome of classifying a node as a skeleton root.
type RootClass int

const (
	NotRoot       RootClass = iota // Not a root candidate
	ChildedRoot                    // Candidate with children
	ChildlessRoot                  // Candidate without children
)

// String returns the class name.
func (c RootClass) String() string {
	switch c {
	case ChildedRoot:
		return "childed"
	case ChildlessRoot:
		return "childless"
	default:
		return "none"
	}
}

// Classify decides whether n can root a skeleton. Only parentless empties
// qualify. An explicit Type property settles the question; otherwise bone
// function nodes are excluded and a node with children qualifies only when
// at least one child is a bone function node.
func Classify(n *scene.Node) RootClass {
	if n.Kind != scene.KindEmpty || n.Parent != nil {
		return NotRoot
	}
	if v, ok := n.Properties.Get(scene.PropType); ok {
		if s, _ := v.AsText(); s != scene.TypeSkeletonRoot {
			return NotRoot
		}
		return shapeClass(n)
	}
	if n.IsBoneFunction() {
		return NotRoot
	}
	if len(n.Children) == 0 {
		return ChildlessRoot
	}
	for _, c := range n.Children {
		if c.IsBoneFunction() {
			return ChildedRoot
		}
	}
	return NotRoot
}

func shapeClass(n *scene.Node) RootClass {
	if len(n.Children) > 0 {
		return ChildedRoot
	}
	return ChildlessRoot
}

// SelectRoots returns the childed candidates among objects, or the childless
// ones when no candidate has children. Scene order is kept.
func SelectRoots(objects []*scene.Node) []*scene.Node {
	var childed, childless []*scene.Node
	for _, o := range objects {
		switch Classify(o) {
		case ChildedRoot:
			childed = append(childed, o)
		case ChildlessRoot:
			childless = append(childless, o)
		}
	}
	if len(childed) > 0 {
		return childed
	}
	return childless
}
