package mod3

import (
	"fmt"
	"strconv"
	"strings"
)

// FunctionPrefix starts the name of a bone named after its bone function id.
const FunctionPrefix = "bonefunction_"

// NoFunction stands in for the id of a bone without a bone function.
const NoFunction = 255

// FunctionName returns the bone name carrying bone function id.
func FunctionName(id int64) string {
	return fmt.Sprintf("%s%03d", FunctionPrefix, id)
}

// ParseFunctionName extracts the bone function id from a FunctionName.
func ParseFunctionName(name string) (int64, bool) {
	digits, ok := strings.CutPrefix(name, FunctionPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(digits, 10, 63)
	if err != nil {
		return 0, false
	}
	return int64(id), true
}

// Function returns the bone function id stored on the bone.
func (b *Bone) Function() (int64, bool) {
	v, ok := b.CustomProperties.Get("boneFunction")
	if !ok {
		return 0, false
	}
	return v.AsInt()
}
