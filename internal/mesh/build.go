package mesh

import (
	"strings"

	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/validation"
	pmath "github.com/Faultbox/mod3-tools/pkg/math"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Options controls how a scene mesh becomes a mesh part.
type Options struct {
	// VertexNormals takes normals from the mesh vertices instead of the
	// face corners.
	VertexNormals bool
	// ColorLayer picks the color layer when a mesh has several.
	ColorLayer int
	// Triangulate splits polygons with more than three corners. Nil means Fan.
	Triangulate Triangulator
}

// Build converts the geometry of m into a mesh part. weights holds one
// buffer per vertex and may be nil. Properties, material and layout are
// left to the caller. Faults go to acc; ok is false when a limit fault made
// the part unusable and the caller should flush.
func Build(acc *validation.Accumulator, m *scene.Mesh, weights []mod3.Weights, opts Options) (part mod3.MeshPart, ok bool) {
	part.Name = m.Name
	nv := len(m.Vertices)
	if nv > mod3.MaxVertices {
		acc.LimitExceeded(validation.CodeVertexOverflow, validation.NoElement, nv, mod3.MaxVertices)
		return part, false
	}

	uvLayers := len(m.UVLayers)
	if !checkUVCount(acc, validation.NoElement, uvLayers) {
		return part, false
	}

	var colors *scene.ColorLayer
	if n := len(m.ColorLayers); n > 0 {
		pick := 0
		if n > 1 {
			pick = opts.ColorLayer
			if pick < 0 || pick >= n {
				pick = 0
			}
			acc.Record(validation.Fault{
				Kind:    validation.DuplicateDefinition,
				Code:    validation.CodeExcessColorLayers,
				Element: validation.NoElement,
				Field:   "color",
				Values:  []interface{}{n},
				Detail:  "using layer " + m.ColorLayers[pick].Name,
			})
		}
		colors = &m.ColorLayers[pick]
	}
	part.HasColor = colors != nil

	tri := opts.Triangulate
	if tri == nil {
		tri = Fan
	}

	mg := newMerger(acc, nv, uvLayers, part.HasColor)
	for pi, poly := range m.Polygons {
		if len(poly.Loops) < 3 {
			acc.Unresolvable(validation.CodeInvalidPolygon, pi, "loops", len(poly.Loops))
			continue
		}
		valid := true
		for _, li := range poly.Loops {
			if li < 0 || li >= len(m.Loops) || m.Loops[li].Vertex < 0 || m.Loops[li].Vertex >= nv {
				acc.Unresolvable(validation.CodeInvalidVertexIndex, pi, "loop", li)
				valid = false
				break
			}
		}
		if !valid {
			continue
		}

		for _, li := range poly.Loops {
			loop := &m.Loops[li]
			v := loop.Vertex
			if !opts.VertexNormals {
				mg.normal(v, pmath.QuantizeNormal(loop.Normal))
			}
			mg.tangent(v, pmath.QuantizeTangent(loop.Tangent, loop.BitangentSign))
			for l := range m.UVLayers {
				if data := m.UVLayers[l].Data; li < len(data) {
					mg.uv(l, v, [2]float32{data[li][0], 1 - data[li][1]})
				}
			}
			if colors != nil && li < len(colors.Data) {
				mg.vertexColor(v, pmath.QuantizeColor(colors.Data[li]))
			}
		}

		for _, t := range tri(len(poly.Loops)) {
			var f mod3.Face
			for k, corner := range t {
				f[k] = uint16(m.Loops[poly.Loops[corner]].Vertex)
			}
			part.Faces = append(part.Faces, f)
		}
	}
	if uint64(len(part.Faces)) > mod3.MaxFaces {
		acc.LimitExceeded(validation.CodeFaceOverflow, validation.NoElement, len(part.Faces), uint64(mod3.MaxFaces))
		return part, false
	}

	part.Vertices = make([]mod3.Vertex, nv)
	for v := range m.Vertices {
		src := &m.Vertices[v]
		out := &part.Vertices[v]
		out.Position = [3]float32(src.Position)
		if v < len(weights) {
			out.Weights = weights[v]
		}
		if opts.VertexNormals {
			out.Normal = pmath.QuantizeNormal(src.Normal)
		} else {
			out.Normal = mg.normals.values[v]
		}
		out.Tangent = mg.tangents.values[v]
		out.UVs = make([][2]float32, uvLayers)
		for l := range mg.uvs {
			out.UVs[l] = mg.uvs[l].values[v]
		}
		if part.HasColor {
			out.Color = mg.color.values[v]
		}
		if missing := mg.missing(v, !opts.VertexNormals); len(missing) > 0 {
			acc.Record(validation.Fault{
				Kind:    validation.MissingField,
				Code:    validation.CodeMissingVertexValue,
				Element: v,
				Field:   strings.Join(missing, ","),
				Detail:  "defaulted to zero",
			})
		}
	}
	return part, true
}

// checkUVCount records a fatal fault when n UV channels fall outside
// [MinUVChannels, MaxUVChannels].
func checkUVCount(acc *validation.Accumulator, element, n int) bool {
	switch {
	case n < mod3.MinUVChannels:
		acc.Record(validation.Fault{
			Kind:     validation.MissingField,
			Severity: validation.Fatal,
			Code:     validation.CodeUVLayersMissing,
			Element:  element,
			Field:    "uv",
			Detail:   "no UV channel",
		})
		return false
	case n > mod3.MaxUVChannels:
		acc.LimitExceeded(validation.CodeUVCountExceeded, element, n, mod3.MaxUVChannels)
		return false
	}
	return true
}
