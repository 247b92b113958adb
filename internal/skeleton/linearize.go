package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/validation"
	pmath "github.com/Faultbox/mod3-tools/pkg/math"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Bone properties read from every bone node, in storage order.
var boneProperties = []string{scene.PropBoneFunction, "unkn2"}

// BoneDefaults are the recoverable bone properties. boneFunction has no
// default: a bone without it, and without a bonefunction_NNN name, cannot be
// exported.
var BoneDefaults = mod3.NewPropertyMap("unkn2", 0)

type linearizer struct {
	acc      *validation.Accumulator
	bones    []mod3.Bone
	index    map[string]int
	targets  []string // pending target name per bone, "" when none
	overflow bool
}

// Linearize flattens the bone trees hanging below roots into a pre-order
// bone array. The roots themselves are not bones; their children attach to
// the implicit root (parent 255). Target links are resolved after the whole
// array exists. Faults go to acc; the caller flushes.
func Linearize(acc *validation.Accumulator, roots []*scene.Node) mod3.Skeleton {
	l := &linearizer{acc: acc, index: make(map[string]int)}
	if len(roots) == 0 {
		acc.Record(validation.Fault{
			Kind:     validation.MissingField,
			Severity: validation.Fatal,
			Code:     validation.CodeMissingRoot,
			Element:  validation.NoElement,
			Detail:   "no skeleton root candidate in scene",
		})
		return mod3.Skeleton{Index: l.index}
	}
	BoneDefaults.Range(func(key string, v mod3.Value) bool {
		acc.RegisterDefault(key, v)
		return true
	})

	for _, r := range roots {
		l.descend(mod3.NoParent, mgl32.Ident4(), r)
	}
	l.resolveTargets()
	return mod3.Skeleton{Bones: l.bones, Index: l.index}
}

func (l *linearizer) descend(parent int, parentAbs mgl32.Mat4, node *scene.Node) {
	for _, child := range node.Children {
		if child.Kind != scene.KindEmpty {
			continue
		}
		if len(l.bones) >= mod3.MaxBones {
			if !l.overflow {
				l.acc.LimitExceeded(validation.CodeBoneOverflow, len(l.bones), len(l.bones)+1, mod3.MaxBones)
				l.overflow = true
			}
			return
		}

		bone := mod3.Bone{
			Name:        child.Name,
			ParentIndex: uint8(parent),
			ChildIndex:  mod3.NoTarget,
		}
		if !child.Properties.Has(scene.PropBoneFunction) {
			if id, ok := mod3.ParseFunctionName(child.Name); ok {
				bone.CustomProperties.Set(scene.PropBoneFunction, mod3.IntValue(id))
			}
		}
		for _, prop := range boneProperties {
			if bone.CustomProperties.Has(prop) {
				continue
			}
			l.acc.VerifyLoad(&child.Properties, prop, &bone.CustomProperties, child.Name)
		}
		bone.LocalMatrix = child.Matrix
		bone.AbsoluteMatrix = pmath.InverseChain(child.Matrix, parentAbs)
		offset := pmath.Translation(child.Matrix)
		bone.Offset = [3]float32(offset)
		bone.Length = offset.Len()

		ix := len(l.bones)
		if _, dup := l.index[child.Name]; dup {
			l.acc.PropertyDuplicate("name", "skeleton", child.Name)
		} else {
			l.index[child.Name] = ix
		}
		l.bones = append(l.bones, bone)
		l.targets = append(l.targets, l.target(child))

		l.descend(ix, bone.AbsoluteMatrix, child)
	}
}

// target returns the name referenced by the node's first CHILD_OF
// constraint. Further constraints are reported as duplicates.
func (l *linearizer) target(n *scene.Node) string {
	cs := n.ChildOfConstraints()
	if len(cs) == 0 {
		return ""
	}
	for _, extra := range cs[1:] {
		name := n.Name
		if extra.Target != nil {
			name = extra.Target.Name
		}
		l.acc.PropertyDuplicate("child", n.Name, name)
	}
	if cs[0].Target == nil {
		return n.Name
	}
	return cs[0].Target.Name
}

func (l *linearizer) resolveTargets() {
	for i, name := range l.targets {
		if name == "" {
			continue
		}
		ix, ok := l.index[name]
		if !ok {
			l.acc.Unresolvable(validation.CodeUnresolvableTarget, i, "child", name)
			continue
		}
		l.bones[i].ChildIndex = uint8(ix)
	}
}
