package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/validation"
	pmath "github.com/Faultbox/mod3-tools/pkg/math"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Fanout rebuilds a scene mesh from a mesh part. Every face becomes a
// triangle whose corners repeat the per-vertex normal, tangent, UVs and
// color. Vertex groups are left to the caller. Invalid face indices, a UV
// channel count outside [1,4] on any vertex and ragged UV channel counts
// within the part are fatal faults on acc.
func Fanout(acc *validation.Accumulator, part *mod3.MeshPart) *scene.Mesh {
	m := &scene.Mesh{
		Name:       part.Name,
		Properties: part.Properties.Clone(),
		Vertices:   make([]scene.Vertex, len(part.Vertices)),
	}
	nv := len(part.Vertices)
	if nv > mod3.MaxVertices {
		acc.LimitExceeded(validation.CodeVertexOverflow, validation.NoElement, nv, mod3.MaxVertices)
		return m
	}

	channels := part.UVChannels()
	valid := true
	for v := range part.Vertices {
		src := &part.Vertices[v]
		m.Vertices[v] = scene.Vertex{
			Position: mgl32.Vec3(src.Position),
			Normal:   pmath.DequantizeNormal(src.Normal),
		}
		n := len(src.UVs)
		if !checkUVCount(acc, v, n) {
			valid = false
			continue
		}
		if n != channels {
			acc.Record(validation.Fault{
				Kind:     validation.ConflictingAttribute,
				Severity: validation.Fatal,
				Code:     validation.CodeUVChannelMismatch,
				Element:  v,
				Field:    "uv",
				Values:   []interface{}{n, channels},
				Detail:   "part layout fixes one UV channel count",
			})
			valid = false
		}
	}
	if !valid {
		return m
	}

	m.UVLayers = make([]scene.UVLayer, channels)
	for l := range m.UVLayers {
		m.UVLayers[l].Name = uvField(l)
	}
	if part.HasColor {
		m.ColorLayers = []scene.ColorLayer{{Name: "color"}}
	}

	for fi, f := range part.Faces {
		bad := false
		for _, v := range f {
			if int(v) >= nv {
				acc.Unresolvable(validation.CodeInvalidVertexIndex, fi, "face", int(v))
				bad = true
			}
		}
		if bad {
			continue
		}
		poly := scene.Polygon{Loops: make([]int, 0, 3)}
		for _, v := range f {
			src := &part.Vertices[v]
			tangent, sign := pmath.DequantizeTangent(src.Tangent)
			poly.Loops = append(poly.Loops, len(m.Loops))
			m.Loops = append(m.Loops, scene.Loop{
				Vertex:        int(v),
				Normal:        m.Vertices[v].Normal,
				Tangent:       tangent,
				BitangentSign: sign,
			})
			for l := range m.UVLayers {
				uv := src.UVs[l]
				m.UVLayers[l].Data = append(m.UVLayers[l].Data, [2]float32{uv[0], 1 - uv[1]})
			}
			if part.HasColor {
				m.ColorLayers[0].Data = append(m.ColorLayers[0].Data, pmath.DequantizeColor(src.Color))
			}
		}
		m.Polygons = append(m.Polygons, poly)
	}
	return m
}
