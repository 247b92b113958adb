package mesh

// Triangulator splits a polygon with n corners into triangles of corner
// positions in [0, n).
type Triangulator func(n int) [][3]int

// Fan triangulates around corner 0. Triangles pass through unchanged.
func Fan(n int) [][3]int {
	if n < 3 {
		return nil
	}
	out := make([][3]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		out = append(out, [3]int{0, i, i + 1})
	}
	return out
}
