package math

import "github.com/go-gl/mathgl/mgl32"

// DefaultEpsilon is the tolerance used when comparing reconstructed transforms.
const DefaultEpsilon = 1e-4

// Translation returns the translation column of a column-major matrix.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// InverseChain returns local⁻¹ · parentAbsolute. A singular local matrix
// yields the zero matrix.
func InverseChain(local, parentAbsolute mgl32.Mat4) mgl32.Mat4 {
	return local.Inv().Mul4(parentAbsolute)
}

// ApproxEqual compares two matrices component-wise within eps.
func ApproxEqual(a, b mgl32.Mat4, eps float32) bool {
	return a.ApproxEqualThreshold(b, eps)
}

// FromRows builds a matrix from row-major values, the order in which
// transforms are usually written down.
func FromRows(rows [4][4]float32) mgl32.Mat4 {
	var m mgl32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, rows[r][c])
		}
	}
	return m
}
