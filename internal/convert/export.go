package convert

import (
	"fmt"
	"sort"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/Faultbox/mod3-tools/internal/layout"
	"github.com/Faultbox/mod3-tools/internal/mesh"
	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/skeleton"
	"github.com/Faultbox/mod3-tools/internal/validation"
	"github.com/Faultbox/mod3-tools/internal/weights"
	"github.com/Faultbox/mod3-tools/pkg/encoding"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// ExportResult is a completed export.
type ExportResult struct {
	Model    *mod3.Model
	Warnings []validation.Fault
}

// Exporter converts scenes into model records.
type Exporter struct {
	opts Options
	log  *zap.Logger
}

// NewExporter creates an exporter. A nil logger discards output.
func NewExporter(opts Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{opts: opts, log: log}
}

// Export builds a model record from s. The scene is not modified. Any fatal
// fault aborts the export at the end of its section and the returned error
// is a *validation.SectionError; no partial model is returned.
func (e *Exporter) Export(s *scene.Scene) (*ExportResult, error) {
	acc := validation.New(e.log)
	model := &mod3.Model{}

	acc.SetSection(SectionHeaders)
	e.headers(acc, s, model)
	if err := acc.ExecuteErrors(); err != nil {
		return nil, err
	}

	acc.SetSection(SectionSkeleton)
	roots := skeleton.SelectRoots(s.Objects())
	e.log.Debug("skeleton roots", zap.Int("count", len(roots)))
	model.Skeleton = skeleton.Linearize(acc, roots)
	if err := acc.ExecuteErrors(); err != nil {
		return nil, err
	}

	acc.SetSection(SectionMeshes)
	if err := e.meshes(acc, s, model); err != nil {
		return nil, err
	}
	if err := acc.ExecuteErrors(); err != nil {
		return nil, err
	}

	e.log.Info("export complete",
		zap.Int("bones", model.Skeleton.Len()),
		zap.Int("parts", len(model.Parts)),
		zap.Int("vertices", model.VertexCount()),
		zap.Int("faces", model.FaceCount()),
		zap.Int("warnings", len(acc.Warnings())),
	)
	return &ExportResult{Model: model, Warnings: acc.Warnings()}, nil
}

func (e *Exporter) headers(acc *validation.Accumulator, s *scene.Scene, model *mod3.Model) {
	HeaderDefaults.Range(func(key string, v mod3.Value) bool {
		acc.RegisterDefault(key, v)
		return true
	})

	var trail mod3.PropertyMap
	acc.VerifyLoad(&s.Properties, PropTrailingData, &trail, "scene")
	model.TrailingData, _ = trail.Get(PropTrailingData)

	for _, prop := range headerProperties {
		acc.VerifyLoad(&s.Properties, prop, &model.Header, "scene")
	}

	var meshProps, materials, groupProps mod3.PropertyMap
	for i := 0; i < headerCount(acc, &model.Header, "MeshPropertyCount"); i++ {
		acc.VerifyLoad(&s.Properties, meshPropertyKey(i), &meshProps, "scene")
	}
	for i := 0; i < headerCount(acc, &model.Header, "materialCount"); i++ {
		acc.VerifyLoad(&s.Properties, materialNameKey(i), &materials, "scene")
	}
	for i := 0; i < GroupPropertiesPerGroup*headerCount(acc, &model.Header, "groupCount"); i++ {
		acc.VerifyLoad(&s.Properties, groupPropertyKey(i), &groupProps, "scene")
	}

	meshProps.Range(func(_ string, v mod3.Value) bool {
		model.MeshProperties = append(model.MeshProperties, v)
		return true
	})
	groupProps.Range(func(_ string, v mod3.Value) bool {
		model.GroupProperties = append(model.GroupProperties, v)
		return true
	})
	materials.Range(func(key string, v mod3.Value) bool {
		name, ok := v.AsText()
		if !ok {
			unsupported(acc, key, v)
		}
		model.Materials = append(model.Materials, name)
		return true
	})
}

// headerCount reads a non-negative integer count from the header.
func headerCount(acc *validation.Accumulator, header *mod3.PropertyMap, key string) int {
	v, ok := header.Get(key)
	if !ok {
		return 0
	}
	n, ok := v.AsInt()
	if !ok || n < 0 {
		unsupported(acc, key, v)
		return 0
	}
	return int(n)
}

func unsupported(acc *validation.Accumulator, key string, v mod3.Value) {
	acc.Record(validation.Fault{
		Kind:     validation.UnresolvableReference,
		Severity: validation.Fatal,
		Code:     validation.CodeUnsupportedProperty,
		Element:  validation.NoElement,
		Field:    key,
		Values:   []interface{}{v.String()},
		Detail:   "unexpected value type " + v.Kind.String(),
	})
}

func (e *Exporter) meshes(acc *validation.Accumulator, s *scene.Scene, model *mod3.Model) error {
	acc.AttemptLoadDefaults(MeshDefaults, s.Properties)

	ordered := append([]*scene.Mesh(nil), s.Meshes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	resolver := weights.NewResolver(acc, &model.Skeleton)
	materials := newMaterialTable(model.Materials)
	for _, src := range ordered {
		acc.SetMeshName(src.Name)

		var m scene.Mesh
		if err := deepcopy.Copy(&m, src); err != nil {
			return fmt.Errorf("clone mesh %s: %w", src.Name, err)
		}
		if e.opts.OnlyHighestLOD {
			m.Properties.Set(PropLOD, mod3.IntValue(mod3.HighestLOD))
		}

		var props mod3.PropertyMap
		for _, prop := range meshProperties {
			acc.VerifyLoad(&m.Properties, prop, &props, m.Name)
		}

		part, ok := mesh.Build(acc, &m, resolver.Mesh(&m), e.opts.meshOptions())
		if !ok {
			continue
		}
		part.Properties = props

		if v, ok := props.Get(PropBlockLabel); ok {
			label, isText := v.AsText()
			if !isText {
				unsupported(acc, PropBlockLabel, v)
			}
			part.Layout = layout.Resolve(acc, label, e.opts.FallbackLayout)
		}
		if v, ok := props.Get(PropMaterial); ok {
			name, isText := v.AsText()
			if !isText {
				unsupported(acc, PropMaterial, v)
			}
			part.MaterialIndex = materials.intern(name)
		}
		model.Parts = append(model.Parts, part)
		e.log.Debug("mesh part built",
			zap.String("mesh", m.Name),
			zap.Int("vertices", len(part.Vertices)),
			zap.Int("faces", len(part.Faces)),
			zap.Stringer("layout", part.Layout),
		)
	}
	acc.SetMeshName("")

	model.Materials = materials.validate(acc)
	declared := model.Header.Int("materialCount", 0)
	if int(declared) != len(model.Materials) {
		acc.Record(validation.Fault{
			Kind:    validation.ConflictingAttribute,
			Code:    validation.CodeCountMismatch,
			Element: validation.NoElement,
			Field:   "materialCount",
			Values:  []interface{}{declared, len(model.Materials)},
			Detail:  "header count updated",
		})
		model.Header.Set("materialCount", mod3.IntValue(int64(len(model.Materials))))
	}
	return nil
}

// materialTable interns material names in first-use order.
type materialTable struct {
	names []string
	index map[string]int
}

func newMaterialTable(initial []string) *materialTable {
	t := &materialTable{index: make(map[string]int)}
	for _, name := range initial {
		t.intern(name)
	}
	return t
}

func (t *materialTable) intern(name string) int {
	if ix, ok := t.index[name]; ok {
		return ix
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	return len(t.names) - 1
}

// validate reports names that do not fit the fixed-size name field.
func (t *materialTable) validate(acc *validation.Accumulator) []string {
	for i, name := range t.names {
		if !encoding.FitsField(name, mod3.MaterialNameSize) {
			acc.LimitExceeded(validation.CodeMaterialNameLength, i, name, mod3.MaterialNameSize)
		}
	}
	return t.names
}
