package skeleton

import (
	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/validation"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// propChild holds a bone's target reference among its custom properties.
const propChild = "child"

// Armature is a reconstructed bone tree.
type Armature struct {
	Root  *scene.Node   // synthetic root standing for parent index 255
	Bones []*scene.Node // bone nodes by array index; nil when unreachable
	Names []string      // scene name of every bone by array index
}

// Name returns the scene name of bone ix.
func (a *Armature) Name(ix int) string {
	if ix >= 0 && ix < len(a.Names) {
		return a.Names[ix]
	}
	return BoneName(ix)
}

// Reconstruct rebuilds the node tree described by a flat bone array.
// Bones whose parent index is the sentinel or lies outside the array attach
// to a synthetic root named rootName. Transforms are composed top-down and
// target links become inactive CHILD_OF constraints once every node exists.
// Bones are named by naming. Parent cycles and out-of-range targets are
// fatal faults on acc.
func Reconstruct(acc *validation.Accumulator, sk *mod3.Skeleton, rootName string, naming Naming) *Armature {
	n := len(sk.Bones)
	arm := &Armature{
		Root:  scene.NewNode(rootName, scene.KindEmpty),
		Bones: make([]*scene.Node, n),
	}
	if n > mod3.MaxBones {
		acc.LimitExceeded(validation.CodeBoneOverflow, validation.NoElement, n, mod3.MaxBones)
		return arm
	}

	var clashes []int
	arm.Names, clashes = Names(sk, naming)
	for _, i := range clashes {
		acc.PropertyDuplicate("name", "skeleton", mod3.FunctionName(functionID(&sk.Bones[i])))
	}

	children := make(map[int][]int)
	for i := range sk.Bones {
		b := &sk.Bones[i]
		p := int(b.ParentIndex)
		switch {
		case p == i:
			acc.Unresolvable(validation.CodeParentCycle, i, "parent", p)
		case p == mod3.NoParent || p >= n:
			children[mod3.NoParent] = append(children[mod3.NoParent], i)
		default:
			children[p] = append(children[p], i)
		}
		if b.HasTarget() && int(b.ChildIndex) >= n {
			acc.Unresolvable(validation.CodeUnresolvableTarget, i, propChild, int(b.ChildIndex))
		}
	}

	var attach func(parent *scene.Node, pix int)
	attach = func(parent *scene.Node, pix int) {
		for _, ix := range children[pix] {
			b := &sk.Bones[ix]
			node := scene.NewNode(arm.Names[ix], scene.KindEmpty)
			node.Matrix = b.LocalMatrix
			node.World = parent.World.Mul4(b.LocalMatrix)
			node.Properties = b.CustomProperties.Clone()
			node.Properties.Delete(propChild)
			if naming == FunctionNaming {
				if _, ok := mod3.ParseFunctionName(node.Name); ok {
					node.Properties.Delete(scene.PropBoneFunction)
				}
				if b.HasTarget() && int(b.ChildIndex) < n {
					node.Properties.Set(propChild, mod3.IntValue(functionID(&sk.Bones[b.ChildIndex])))
				}
			}
			parent.AddChild(node)
			arm.Bones[ix] = node
			attach(node, ix)
		}
	}
	attach(arm.Root, mod3.NoParent)

	for i, node := range arm.Bones {
		if node == nil && int(sk.Bones[i].ParentIndex) != i {
			acc.Unresolvable(validation.CodeParentCycle, i, "parent", int(sk.Bones[i].ParentIndex))
		}
	}

	for i := range sk.Bones {
		b := &sk.Bones[i]
		if !b.HasTarget() || int(b.ChildIndex) >= n {
			continue
		}
		owner, target := arm.Bones[i], arm.Bones[b.ChildIndex]
		if owner == nil || target == nil {
			continue
		}
		owner.Constraints = append(owner.Constraints, scene.Constraint{
			Kind:   scene.ChildOf,
			Target: target,
		})
	}
	return arm
}
