package skeleton

import (
	"fmt"

	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Naming selects how imported bones are named.
type Naming string

const (
	// IndexNaming names bones Bone.NNN after their array position.
	IndexNaming Naming = "index"
	// FunctionNaming names bones bonefunction_NNN after their bone function
	// id. The id moves from the boneFunction property into the name and the
	// child property holds the target's id instead of its index.
	FunctionNaming Naming = "function"
)

// Namings lists the accepted naming schemes.
var Namings = []Naming{IndexNaming, FunctionNaming}

// ParseNaming parses a naming scheme.
func ParseNaming(s string) (Naming, error) {
	for _, n := range Namings {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown bone naming %q", s)
}

// BoneName is the index name of bone ix.
func BoneName(ix int) string {
	return fmt.Sprintf("Bone.%03d", ix)
}

// functionID is the id a bone is named after. Bones without a bone function
// share NoFunction.
func functionID(b *mod3.Bone) int64 {
	if id, ok := b.Function(); ok && id >= 0 {
		return id
	}
	return mod3.NoFunction
}

// Names returns the scene name of every bone of sk. Under FunctionNaming a
// bone whose function name is already taken keeps its index name and is
// listed in clashes.
func Names(sk *mod3.Skeleton, naming Naming) (names []string, clashes []int) {
	names = make([]string, len(sk.Bones))
	if naming != FunctionNaming {
		for i := range names {
			names[i] = BoneName(i)
		}
		return names, nil
	}
	used := make(map[string]bool, len(names))
	for i := range sk.Bones {
		name := mod3.FunctionName(functionID(&sk.Bones[i]))
		if used[name] {
			name = BoneName(i)
			clashes = append(clashes, i)
		}
		used[name] = true
		names[i] = name
	}
	return names, clashes
}
