package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mod3-tools/internal/mesh"
	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/skeleton"
	"github.com/Faultbox/mod3-tools/internal/validation"
	"github.com/Faultbox/mod3-tools/internal/weights"
	"github.com/Faultbox/mod3-tools/pkg/encoding"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// ImportResult is a completed import.
type ImportResult struct {
	Scene    *scene.Scene
	Armature *skeleton.Armature // nil when the skeleton was not imported
	Skipped  int                // mesh parts dropped by the LOD filter
	Warnings []validation.Fault
}

// Importer converts model records into scenes.
type Importer struct {
	opts Options
	log  *zap.Logger
}

// NewImporter creates an importer. A nil logger discards output.
func NewImporter(opts Options, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{opts: opts, log: log}
}

// Import rebuilds a scene from m. Fatal faults abort at the end of their
// section with a *validation.SectionError.
func (im *Importer) Import(m *mod3.Model) (*ImportResult, error) {
	acc := validation.New(im.log)
	res := &ImportResult{Scene: &scene.Scene{}}

	if im.opts.ImportHeader {
		acc.SetSection(SectionHeaders)
		im.headers(acc, m, res.Scene)
		if err := acc.ExecuteErrors(); err != nil {
			return nil, err
		}
	}

	if im.opts.ImportSkeleton {
		acc.SetSection(SectionSkeleton)
		res.Armature = skeleton.Reconstruct(acc, &m.Skeleton, im.opts.Name+" Armature", im.opts.BoneNaming)
		if err := acc.ExecuteErrors(); err != nil {
			return nil, err
		}
		res.Scene.Nodes = append(res.Scene.Nodes, res.Armature.Root)
	}

	if im.opts.ImportMeshParts {
		acc.SetSection(SectionMeshes)
		res.Skipped = im.meshes(acc, m, res)
		if err := acc.ExecuteErrors(); err != nil {
			return nil, err
		}
	}

	im.log.Info("import complete",
		zap.Int("nodes", len(res.Scene.Objects())),
		zap.Int("meshes", len(res.Scene.Meshes)),
		zap.Int("skipped", res.Skipped),
		zap.Int("warnings", len(acc.Warnings())),
	)
	res.Warnings = acc.Warnings()
	return res, nil
}

// headers writes the model header into scene properties. Header keys are
// written in lexical order, then the enumerated lists.
func (im *Importer) headers(acc *validation.Accumulator, m *mod3.Model, s *scene.Scene) {
	s.Properties.Set(PropTrailingData, m.TrailingData)
	for _, key := range m.Header.SortedKeys() {
		v, _ := m.Header.Get(key)
		s.Properties.Set(key, v)
	}

	for i, v := range m.MeshProperties {
		s.Properties.Set(meshPropertyKey(i), v)
	}
	for i, name := range m.Materials {
		s.Properties.Set(materialNameKey(i), mod3.TextValue(encoding.DecodeName([]byte(name))))
	}
	for i, v := range m.GroupProperties {
		s.Properties.Set(groupPropertyKey(i), v)
	}

	counts := []struct {
		key  string
		want int
	}{
		{"MeshPropertyCount", len(m.MeshProperties)},
		{"materialCount", len(m.Materials)},
		{"groupCount", len(m.GroupProperties) / GroupPropertiesPerGroup},
	}
	for _, c := range counts {
		got := m.Header.Int(c.key, int64(c.want))
		if int(got) == c.want {
			continue
		}
		acc.Record(validation.Fault{
			Kind:    validation.ConflictingAttribute,
			Code:    validation.CodeCountMismatch,
			Element: validation.NoElement,
			Field:   c.key,
			Values:  []interface{}{got, c.want},
			Detail:  "header count updated",
		})
		s.Properties.Set(c.key, mod3.IntValue(int64(c.want)))
	}
}

func (im *Importer) meshes(acc *validation.Accumulator, m *mod3.Model, res *ImportResult) (skipped int) {
	bones := m.Skeleton.Len()
	boneName := skeleton.BoneName
	if res.Armature != nil {
		boneName = res.Armature.Name
	} else if im.opts.BoneNaming == skeleton.FunctionNaming {
		names, _ := skeleton.Names(&m.Skeleton, im.opts.BoneNaming)
		boneName = func(ix int) string {
			if ix < len(names) {
				return names[ix]
			}
			return skeleton.BoneName(ix)
		}
	}
	first := true
	for ix := range m.Parts {
		part := &m.Parts[ix]
		if im.opts.OnlyHighestLOD && part.LOD()&1 == 0 {
			skipped++
			continue
		}
		name := part.Name
		if name == "" {
			name = fmt.Sprintf("%s %03d", im.opts.Name, ix)
		}
		acc.SetMeshName(name)

		buffers := make([]mod3.Weights, len(part.Vertices))
		for v := range part.Vertices {
			for _, w := range part.Vertices[v].Weights {
				if int(w.Bone) >= bones {
					acc.Unresolvable(validation.CodeInvalidBoneIndex, v, "bone", int(w.Bone))
				}
			}
			buffers[v] = part.Vertices[v].Weights
		}

		sm := mesh.Fanout(acc, part)
		sm.Name = name
		sm.Properties = sortedProperties(part.Properties)
		if n := len(m.Materials); n > 0 || part.MaterialIndex != 0 {
			if part.MaterialIndex < 0 || part.MaterialIndex >= n {
				acc.Unresolvable(validation.CodeInvalidMaterial, ix, "material", part.MaterialIndex)
			} else {
				material := encoding.DecodeName([]byte(m.Materials[part.MaterialIndex]))
				sm.Properties.Set(PropMaterial, mod3.TextValue(material))
			}
		}
		weights.Apply(sm, weights.Expand(im.opts.WeightFormat, buffers, boneName))
		if res.Armature != nil && im.opts.linkArmature() {
			sm.Armature = res.Armature.Root.Name
		}
		res.Scene.Meshes = append(res.Scene.Meshes, sm)

		if first && im.opts.OverrideDefaultsFromFirstMesh {
			overrideDefaults(&res.Scene.Properties, &sm.Properties)
		}
		first = false
	}
	acc.SetMeshName("")
	return skipped
}

// overrideDefaults records the mesh's properties as scene-level mesh
// defaults.
func overrideDefaults(dst, src *mod3.PropertyMap) {
	MeshDefaults.Range(func(key string, _ mod3.Value) bool {
		if v, ok := src.Get(key); ok {
			dst.Set(validation.DefaultPrefix+key, v)
		}
		return true
	})
}

func sortedProperties(p mod3.PropertyMap) mod3.PropertyMap {
	var out mod3.PropertyMap
	for _, key := range p.SortedKeys() {
		v, _ := p.Get(key)
		out.Set(key, v)
	}
	return out.Clone()
}
