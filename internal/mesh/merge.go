// Package mesh consolidates per-corner shading data of scene meshes into the
// per-vertex buffers of MOD3 mesh parts, and fans it back out on import.
package mesh

import (
	"github.com/Faultbox/mod3-tools/internal/validation"
	pmath "github.com/Faultbox/mod3-tools/pkg/math"
)

// slot holds one value per vertex and remembers which vertices have one.
type slot[T any] struct {
	values []T
	set    []bool
}

func newSlot[T any](n int) slot[T] {
	return slot[T]{values: make([]T, n), set: make([]bool, n)}
}

// offer stores val for vertex v unless a value is already present. It
// returns false when the present value is not the same as val.
func (s *slot[T]) offer(v int, val T, same func(a, b T) bool) bool {
	if !s.set[v] {
		s.values[v] = val
		s.set[v] = true
		return true
	}
	return same(s.values[v], val)
}

func exact[T comparable](a, b T) bool { return a == b }

func normalsClose(a, b [3]int8) bool {
	return pmath.WithinWindow(a[:], b[:], pmath.NormalTolerance)
}

func tangentsClose(a, b [4]int8) bool {
	return pmath.WithinWindow(a[:], b[:], pmath.NormalTolerance)
}

// merger collects per-corner attributes for one mesh part.
type merger struct {
	acc      *validation.Accumulator
	normals  slot[[3]int8]
	tangents slot[[4]int8]
	uvs      []slot[[2]float32]
	color    slot[[4]uint8]
	hasColor bool
}

func newMerger(acc *validation.Accumulator, vertices, uvLayers int, hasColor bool) *merger {
	m := &merger{
		acc:      acc,
		normals:  newSlot[[3]int8](vertices),
		tangents: newSlot[[4]int8](vertices),
		uvs:      make([]slot[[2]float32], uvLayers),
		hasColor: hasColor,
	}
	for i := range m.uvs {
		m.uvs[i] = newSlot[[2]float32](vertices)
	}
	if hasColor {
		m.color = newSlot[[4]uint8](vertices)
	}
	return m
}

func (m *merger) normal(v int, n [3]int8) {
	if !m.normals.offer(v, n, normalsClose) {
		m.acc.Conflict(validation.CodeDuplicateNormal, v, "normal", m.normals.values[v], n)
	}
}

func (m *merger) tangent(v int, t [4]int8) {
	if !m.tangents.offer(v, t, tangentsClose) {
		m.acc.Conflict(validation.CodeDuplicateTangent, v, "tangent", m.tangents.values[v], t)
	}
}

func (m *merger) uv(layer, v int, uv [2]float32) {
	if !m.uvs[layer].offer(v, uv, exact[[2]float32]) {
		m.acc.Conflict(validation.CodeDuplicateUV, v, uvField(layer), m.uvs[layer].values[v], uv)
	}
}

func (m *merger) vertexColor(v int, c [4]uint8) {
	if !m.color.offer(v, c, exact[[4]uint8]) {
		m.acc.Conflict(validation.CodeDuplicateColor, v, "color", m.color.values[v], c)
	}
}

// missing lists the attributes vertex v never received.
func (m *merger) missing(v int, normals bool) []string {
	var out []string
	if normals && !m.normals.set[v] {
		out = append(out, "normal")
	}
	if !m.tangents.set[v] {
		out = append(out, "tangent")
	}
	for i := range m.uvs {
		if !m.uvs[i].set[v] {
			out = append(out, uvField(i))
		}
	}
	if m.hasColor && !m.color.set[v] {
		out = append(out, "color")
	}
	return out
}

func uvField(layer int) string {
	return "uv" + string(rune('0'+layer))
}
