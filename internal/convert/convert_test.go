package convert

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mod3-tools/internal/layout"
	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/skeleton"
	"github.com/Faultbox/mod3-tools/internal/validation"
	"github.com/Faultbox/mod3-tools/internal/weights"
	"github.com/Faultbox/mod3-tools/pkg/encoding"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// testScene builds an armature with four bones and one textured quad
// weighted to them.
func testScene() *scene.Scene {
	root := scene.NewNode("Armature", scene.KindEmpty)
	parent := root
	for i := 0; i < 4; i++ {
		b := scene.NewNode(mod3BoneName(i), scene.KindEmpty)
		b.Matrix = mgl32.Translate3D(0, 1, 0)
		b.Properties.Set("boneFunction", mod3.IntValue(int64(i)))
		b.Properties.Set("unkn2", mod3.IntValue(0))
		parent.AddChild(b)
		parent = b
	}

	s := &scene.Scene{Nodes: []*scene.Node{root}}
	s.Properties = mod3.NewPropertyMap(
		PropTrailingData, "",
		"MeshPropertyCount", 0,
		"boneMapCount", 4,
		"groupCount", 0,
		"materialCount", 1,
		"vertexIds", 0,
		"hUnkn1", 0,
		"hUnkn2", 0,
		"MaterialName0", "skin",
	)
	s.Meshes = []*scene.Mesh{testMesh("body", "skin")}
	return s
}

func mod3BoneName(i int) string {
	return []string{"Bone.000", "Bone.001", "Bone.002", "Bone.003"}[i]
}

func testMesh(name, material string) *scene.Mesh {
	m := &scene.Mesh{
		Name: name,
		Properties: mod3.NewPropertyMap(
			"unkn", 0,
			"visibleCondition", 0,
			PropLOD, 1,
			"unkn2", 0,
			"unkn3", 0,
			PropBlockLabel, "IASkinOTB4wt1UV",
			"boneremapid", 0,
			"unkn9", 0,
			PropMaterial, material,
		),
		Vertices: []scene.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}},
			{Position: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{1, 1, 0}},
			{Position: mgl32.Vec3{0, 1, 0}},
		},
	}
	uv := scene.UVLayer{Name: "uv0"}
	for _, v := range []int{0, 1, 2, 3} {
		m.Loops = append(m.Loops, scene.Loop{Vertex: v, Normal: mgl32.Vec3{0, 0, 1}, Tangent: mgl32.Vec3{1, 0, 0}, BitangentSign: 1})
		p := m.Vertices[v].Position
		uv.Data = append(uv.Data, [2]float32{p[0], p[1]})
	}
	m.UVLayers = []scene.UVLayer{uv}
	m.Polygons = []scene.Polygon{{Loops: []int{0, 1, 2, 3}}}

	b3 := m.AddGroup("Bone.003")
	b1 := m.AddGroup("Bone.001")
	m.Vertices[0].Groups = []scene.GroupRef{{Group: b3, Weight: 0.7}, {Group: b3, Weight: -0.2}, {Group: b1, Weight: 0.5}}
	m.Assign(b1, 1, 1)
	m.Assign(b3, 2, 0.4)
	m.Assign(b1, 2, 0.6)
	m.Assign(b1, 3, 1)
	return m
}

func TestExport(t *testing.T) {
	s := testScene()
	res, err := NewExporter(DefaultOptions(), nil).Export(s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	model := res.Model

	if model.Skeleton.Len() != 4 {
		t.Fatalf("got %d bones, want 4", model.Skeleton.Len())
	}
	if len(model.Parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(model.Parts))
	}
	part := model.Parts[0]
	if part.Layout != layout.Hash("IASkinOTB4wt1UV") {
		t.Errorf("layout = %s", part.Layout)
	}
	if len(part.Faces) != 2 {
		t.Errorf("quad should triangulate to 2 faces, got %d", len(part.Faces))
	}
	if part.LOD() != mod3.HighestLOD {
		t.Errorf("lod = %d, want highest", part.LOD())
	}
	if lod := s.Meshes[0].Properties.Int(PropLOD, 0); lod != 1 {
		t.Errorf("export mutated the scene mesh: lod = %d", lod)
	}

	want := mod3.Weights{{Bone: 3, Weight: 0.7}, {Bone: 3, Weight: -0.2}, {Bone: 1, Weight: 0.5}}
	got := part.Vertices[0].Weights
	if len(got) != len(want) {
		t.Fatalf("weights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("weight %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if len(model.Materials) != 1 || model.Materials[0] != "skin" || part.MaterialIndex != 0 {
		t.Errorf("materials = %v, index %d", model.Materials, part.MaterialIndex)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestExportSortsMeshes(t *testing.T) {
	s := testScene()
	s.Meshes = []*scene.Mesh{testMesh("zeta", "skin"), testMesh("alpha", "cloth")}
	res, err := NewExporter(DefaultOptions(), nil).Export(s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Model.Parts[0].Name != "alpha" || res.Model.Parts[1].Name != "zeta" {
		t.Errorf("parts not sorted: %s, %s", res.Model.Parts[0].Name, res.Model.Parts[1].Name)
	}
	if res.Model.Parts[0].MaterialIndex != 1 {
		t.Errorf("new material should be interned after header ones, got %d", res.Model.Parts[0].MaterialIndex)
	}
	if n := res.Model.Header.Int("materialCount", 0); n != 2 {
		t.Errorf("materialCount = %d, want 2", n)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Code == validation.CodeCountMismatch {
			found = true
		}
	}
	if !found {
		t.Error("expected a material count warning")
	}
}

func TestExportDefaults(t *testing.T) {
	s := testScene()
	s.Meshes[0].Properties.Delete("unkn9")
	s.Meshes[0].Properties.Delete("unkn3")
	s.Properties.Set(validation.DefaultPrefix+"unkn9", mod3.IntValue(7))
	s.Properties.Delete("hUnkn1")

	res, err := NewExporter(DefaultOptions(), nil).Export(s)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	props := res.Model.Parts[0].Properties
	if got := props.Int("unkn9", -1); got != 7 {
		t.Errorf("unkn9 = %d, want scene override 7", got)
	}
	if got := props.Int("unkn3", -1); got != 0 {
		t.Errorf("unkn3 = %d, want built-in default 0", got)
	}
	if len(res.Warnings) != 3 {
		t.Errorf("expected 3 missing-property warnings, got %d: %v", len(res.Warnings), res.Warnings)
	}
	for _, w := range res.Warnings {
		if w.Kind != validation.MissingField {
			t.Errorf("unexpected warning %v", w)
		}
	}
}

func TestExportFatalSections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *scene.Scene)
		section string
		want    error
	}{
		{
			name:    "missing material name",
			mutate:  func(s *scene.Scene) { s.Properties.Delete("MaterialName0") },
			section: SectionHeaders,
			want:    validation.ErrMissingField,
		},
		{
			name:    "no skeleton root",
			mutate:  func(s *scene.Scene) { s.Nodes = nil },
			section: SectionSkeleton,
			want:    validation.ErrMissingField,
		},
		{
			name: "unknown layout label",
			mutate: func(s *scene.Scene) {
				s.Meshes[0].Properties.Set(PropBlockLabel, mod3.TextValue("NotALayout"))
			},
			section: SectionMeshes,
			want:    validation.ErrUnresolvableReference,
		},
		{
			name: "material name too long",
			mutate: func(s *scene.Scene) {
				s.Meshes[0].Properties.Set(PropMaterial, mod3.TextValue(strings.Repeat("m", mod3.MaterialNameSize+1)))
			},
			section: SectionMeshes,
			want:    validation.ErrLimitExceeded,
		},
		{
			name: "vertex overflow",
			mutate: func(s *scene.Scene) {
				m := s.Meshes[0]
				m.Vertices = append(m.Vertices, make([]scene.Vertex, mod3.MaxVertices+1-len(m.Vertices))...)
			},
			section: SectionMeshes,
			want:    validation.ErrLimitExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testScene()
			tt.mutate(s)
			res, err := NewExporter(DefaultOptions(), nil).Export(s)
			if res != nil {
				t.Error("a failed export must not return a model")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var se *validation.SectionError
			if !errors.As(err, &se) || se.Section != tt.section {
				t.Errorf("expected failure in %q, got %v", tt.section, err)
			}
		})
	}
}

func TestExportVertexLimitBoundary(t *testing.T) {
	s := testScene()
	m := s.Meshes[0]
	m.Vertices = append(m.Vertices, make([]scene.Vertex, mod3.MaxVertices-len(m.Vertices))...)
	res, err := NewExporter(DefaultOptions(), nil).Export(s)
	if err != nil {
		t.Fatalf("65535 vertices must export: %v", err)
	}
	if got := len(res.Model.Parts[0].Vertices); got != mod3.MaxVertices {
		t.Errorf("got %d vertices", got)
	}
}

func exportTestModel(t *testing.T) *mod3.Model {
	t.Helper()
	res, err := NewExporter(DefaultOptions(), nil).Export(testScene())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	return res.Model
}

func TestImport(t *testing.T) {
	model := exportTestModel(t)
	opts := DefaultOptions()
	opts.Name = "pl000"
	opts.PreserveMeshSkeletonIndependence = false
	opts.OverrideDefaultsFromFirstMesh = true

	res, err := NewImporter(opts, nil).Import(model)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	s := res.Scene
	if res.Armature == nil || res.Armature.Root.Name != "pl000 Armature" {
		t.Fatalf("armature not reconstructed: %+v", res.Armature)
	}
	if s.Node("Bone.003") == nil || s.Node("Bone.003").Parent.Name != "Bone.002" {
		t.Error("bone hierarchy not restored")
	}
	if len(s.Meshes) != 1 {
		t.Fatalf("got %d meshes", len(s.Meshes))
	}
	m := s.Meshes[0]
	if m.Armature != "pl000 Armature" {
		t.Errorf("grouped import should link the armature, got %q", m.Armature)
	}
	if m.Properties.Text(PropMaterial, "") != "skin" {
		t.Errorf("material = %q", m.Properties.Text(PropMaterial, ""))
	}
	if got := s.Properties.Text("MaterialName0", ""); got != "skin" {
		t.Errorf("header material = %q", got)
	}
	if !s.Properties.Has(validation.DefaultPrefix + "unkn9") {
		t.Error("first mesh should override scene defaults")
	}
	if _, ok := m.GroupIndex("Bone.003"); !ok {
		t.Errorf("groups = %v", m.VertexGroups)
	}
	// Grouped import merges the 0.7 and -0.2 entries of vertex 0.
	for _, ref := range m.Vertices[0].Groups {
		if name, _ := m.GroupName(ref.Group); name == "Bone.003" && (ref.Weight < 0.499 || ref.Weight > 0.501) {
			t.Errorf("merged weight = %v, want 0.5", ref.Weight)
		}
	}
}

func TestImportOptions(t *testing.T) {
	model := exportTestModel(t)
	low := model.Parts[0]
	low.Properties = low.Properties.Clone()
	low.Properties.Set(PropLOD, mod3.IntValue(2))
	low.Name = "body lod2"
	model.Parts = append(model.Parts, low)

	opts := DefaultOptions()
	opts.WeightFormat = weights.Split
	opts.PreserveMeshSkeletonIndependence = false
	res, err := NewImporter(opts, nil).Import(model)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Skipped != 1 || len(res.Scene.Meshes) != 1 {
		t.Errorf("LOD filter: skipped %d, kept %d", res.Skipped, len(res.Scene.Meshes))
	}
	if res.Scene.Meshes[0].Armature != "" {
		t.Error("split weights must not link the armature")
	}

	opts.OnlyHighestLOD = false
	opts.ImportSkeleton = false
	opts.ImportHeader = false
	res, err = NewImporter(opts, nil).Import(model)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Scene.Meshes) != 2 || res.Armature != nil || len(res.Scene.Nodes) != 0 {
		t.Errorf("unexpected scene: %d meshes, %d nodes", len(res.Scene.Meshes), len(res.Scene.Nodes))
	}
	if res.Scene.Properties.Len() != 0 {
		t.Error("header should not be imported")
	}
}

func TestImportInvalidIndices(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *mod3.Model)
	}{
		{"bone index", func(m *mod3.Model) { m.Parts[0].Vertices[0].Weights[0].Bone = 9 }},
		{"face index", func(m *mod3.Model) { m.Parts[0].Faces[0][1] = 40 }},
		{"material index", func(m *mod3.Model) { m.Parts[0].MaterialIndex = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := exportTestModel(t)
			tt.mutate(model)
			_, err := NewImporter(DefaultOptions(), nil).Import(model)
			if !errors.Is(err, validation.ErrUnresolvableReference) {
				t.Errorf("expected unresolvable reference, got %v", err)
			}
		})
	}
}

func TestSplitOrderedRoundTrip(t *testing.T) {
	model := exportTestModel(t)
	opts := DefaultOptions()
	opts.WeightFormat = weights.SplitOrdered
	imported, err := NewImporter(opts, nil).Import(model)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	again, err := NewExporter(opts, nil).Export(imported.Scene)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}

	before, after := model.Parts[0], again.Model.Parts[0]
	if len(before.Vertices) != len(after.Vertices) {
		t.Fatalf("vertex count %d, want %d", len(after.Vertices), len(before.Vertices))
	}
	for v := range before.Vertices {
		bw, aw := before.Vertices[v].Weights, after.Vertices[v].Weights
		if len(bw) != len(aw) {
			t.Errorf("vertex %d: %v, want %v", v, aw, bw)
			continue
		}
		for i := range bw {
			if bw[i] != aw[i] {
				t.Errorf("vertex %d entry %d = %+v, want %+v", v, i, aw[i], bw[i])
			}
		}
	}
	if again.Model.Skeleton.Len() != model.Skeleton.Len() {
		t.Errorf("bone count %d, want %d", again.Model.Skeleton.Len(), model.Skeleton.Len())
	}
	if again.Model.Materials[0] != "skin" {
		t.Errorf("materials = %v", again.Model.Materials)
	}
}

func TestImportUVChannelCounts(t *testing.T) {
	tests := []struct {
		name string
		uvs  [][2]float32
		want error
		code string
	}{
		{"no channel", nil, validation.ErrMissingField, validation.CodeUVLayersMissing},
		{"five channels", make([][2]float32, 5), validation.ErrLimitExceeded, validation.CodeUVCountExceeded},
		{"ragged", make([][2]float32, 2), validation.ErrConflictingAttribute, validation.CodeUVChannelMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := exportTestModel(t)
			model.Parts[0].Vertices[1].UVs = tt.uvs

			_, err := NewImporter(DefaultOptions(), nil).Import(model)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var se *validation.SectionError
			if !errors.As(err, &se) || se.Section != SectionMeshes {
				t.Fatalf("expected a meshes section error, got %v", err)
			}
			fatal := se.Fatal()
			if len(fatal) != 1 || fatal[0].Code != tt.code || fatal[0].Element != 1 || fatal[0].Mesh != "body" {
				t.Errorf("unexpected faults %v", fatal)
			}
		})
	}
}

func TestImportBoneFunctionNaming(t *testing.T) {
	model := exportTestModel(t)
	for i := range model.Skeleton.Bones {
		model.Skeleton.Bones[i].CustomProperties.Set("boneFunction", mod3.IntValue(int64(10+i)))
	}
	model.Skeleton.Bones[1].ChildIndex = 3

	opts := DefaultOptions()
	opts.WeightFormat = weights.SplitOrdered
	opts.BoneNaming = skeleton.FunctionNaming
	imported, err := NewImporter(opts, nil).Import(model)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	s := imported.Scene
	b1 := s.Node("bonefunction_011")
	if b1 == nil || b1.Parent.Name != "bonefunction_010" {
		t.Fatalf("function-named hierarchy not built: %v", b1)
	}
	if b1.Properties.Has("boneFunction") {
		t.Error("bone function id should live in the name only")
	}
	if v, ok := b1.Properties.Get("child"); !ok || v.Int != 13 {
		t.Errorf("child = %v, want target function id 13", v)
	}
	m := s.Meshes[0]
	if _, ok := m.GroupIndex("bonefunction_013/0"); !ok {
		t.Errorf("groups = %v", m.VertexGroups)
	}
	for _, g := range m.VertexGroups {
		if strings.HasPrefix(g, "Bone.") {
			t.Errorf("group %q still uses index naming", g)
		}
	}

	again, err := NewExporter(opts, nil).Export(s)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	sk := again.Model.Skeleton
	if sk.Len() != model.Skeleton.Len() {
		t.Fatalf("bone count %d, want %d", sk.Len(), model.Skeleton.Len())
	}
	for i := range sk.Bones {
		if fn, ok := sk.Bones[i].Function(); !ok || fn != int64(10+i) {
			t.Errorf("bone %d function = %d, %v", i, fn, ok)
		}
	}
	if sk.Bones[1].ChildIndex != 3 {
		t.Errorf("target = %d, want 3", sk.Bones[1].ChildIndex)
	}

	before, after := model.Parts[0], again.Model.Parts[0]
	for v := range before.Vertices {
		bw, aw := before.Vertices[v].Weights, after.Vertices[v].Weights
		if len(bw) != len(aw) {
			t.Errorf("vertex %d: %v, want %v", v, aw, bw)
			continue
		}
		for i := range bw {
			if bw[i] != aw[i] {
				t.Errorf("vertex %d entry %d = %+v, want %+v", v, i, aw[i], bw[i])
			}
		}
	}
}

func TestImportDecodesMaterialNames(t *testing.T) {
	field, err := encoding.EncodeName("モデル", mod3.MaterialNameSize)
	if err != nil {
		t.Fatalf("EncodeName: %v", err)
	}
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"null padded", "skin\x00\x00\x00", "skin"},
		{"shift-jis", string(field), "モデル"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := exportTestModel(t)
			model.Materials[0] = tt.raw

			res, err := NewImporter(DefaultOptions(), nil).Import(model)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if got := res.Scene.Properties.Text("MaterialName0", ""); got != tt.want {
				t.Errorf("header material = %q, want %q", got, tt.want)
			}
			if got := res.Scene.Meshes[0].Properties.Text(PropMaterial, ""); got != tt.want {
				t.Errorf("mesh material = %q, want %q", got, tt.want)
			}
		})
	}
}
