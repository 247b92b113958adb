// Package math provides the numeric helpers shared by the conversion engine:
// 8-bit unit-vector quantization and matrix utilities over mgl32.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// QuantizationScale maps a unit component to the signed 8-bit range.
const QuantizationScale = 127

// NormalTolerance is the per-component window, in quantized units, inside
// which two corner normals or tangents are treated as equal.
const NormalTolerance = 1

// quantize rounds a unit component to [-127, 127].
func quantize(c float32) int8 {
	q := gomath.Round(float64(c) * QuantizationScale)
	if q > QuantizationScale {
		q = QuantizationScale
	}
	if q < -QuantizationScale {
		q = -QuantizationScale
	}
	return int8(q)
}

// QuantizeNormal normalizes n and stores it as three signed bytes.
// A zero vector quantizes to zero.
func QuantizeNormal(n mgl32.Vec3) [3]int8 {
	if n.Len() == 0 {
		return [3]int8{}
	}
	n = n.Normalize()
	return [3]int8{quantize(n[0]), quantize(n[1]), quantize(n[2])}
}

// QuantizeTangent stores a tangent and its bitangent sign. The fourth byte is
// -127 or 127.
func QuantizeTangent(t mgl32.Vec3, bitangentSign float32) [4]int8 {
	q := [4]int8{quantize(t[0]), quantize(t[1]), quantize(t[2]), QuantizationScale}
	if bitangentSign < 0 {
		q[3] = -QuantizationScale
	}
	return q
}

// DequantizeNormal expands three signed bytes back to a unit vector.
func DequantizeNormal(q [3]int8) mgl32.Vec3 {
	v := mgl32.Vec3{float32(q[0]), float32(q[1]), float32(q[2])}
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

// DequantizeTangent expands a quantized tangent into a unit vector and sign.
func DequantizeTangent(q [4]int8) (mgl32.Vec3, float32) {
	t := DequantizeNormal([3]int8{q[0], q[1], q[2]})
	sign := float32(1)
	if q[3] < 0 {
		sign = -1
	}
	return t, sign
}

// WithinWindow reports whether every component of a and b differs by at most
// window.
func WithinWindow(a, b []int8, window int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < -window || d > window {
			return false
		}
	}
	return true
}

// QuantizeColor converts a [0,1] RGBA color to bytes by truncation.
func QuantizeColor(c [4]float32) [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		x := v * 255
		if x < 0 {
			x = 0
		}
		if x > 255 {
			x = 255
		}
		out[i] = uint8(x)
	}
	return out
}

// DequantizeColor converts byte RGBA to [0,1] floats.
func DequantizeColor(c [4]uint8) [4]float32 {
	return [4]float32{
		float32(c[0]) / 255,
		float32(c[1]) / 255,
		float32(c[2]) / 255,
		float32(c[3]) / 255,
	}
}
