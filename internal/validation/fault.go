package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a fault.
type Kind int

const (
	MissingField Kind = iota
	DuplicateDefinition
	UnresolvableReference
	LimitExceeded
	ConflictingAttribute
)

// Sentinel errors matched by errors.Is against any Fault of the same kind.
var (
	ErrMissingField          = errors.New("missing field")
	ErrDuplicateDefinition   = errors.New("duplicate definition")
	ErrUnresolvableReference = errors.New("unresolvable reference")
	ErrLimitExceeded         = errors.New("limit exceeded")
	ErrConflictingAttribute  = errors.New("conflicting attribute")
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case MissingField:
		return "MissingField"
	case DuplicateDefinition:
		return "DuplicateDefinition"
	case UnresolvableReference:
		return "UnresolvableReference"
	case LimitExceeded:
		return "LimitExceeded"
	case ConflictingAttribute:
		return "ConflictingAttribute"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case MissingField:
		return ErrMissingField
	case DuplicateDefinition:
		return ErrDuplicateDefinition
	case UnresolvableReference:
		return ErrUnresolvableReference
	case LimitExceeded:
		return ErrLimitExceeded
	case ConflictingAttribute:
		return ErrConflictingAttribute
	}
	return nil
}

// Severity decides whether a fault aborts the conversion at the next flush.
type Severity int

const (
	Warning Severity = iota
	Fatal
)

// String returns the severity name.
func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "warning"
}

// Fault codes.
const (
	CodeMissingProperty     = "MissingProperty"
	CodeDuplicateProperty   = "DuplicateProperty"
	CodeInvalidGroupName    = "InvalidGroupName"
	CodeUninvertibleLayout  = "UninvertibleLayout"
	CodeUnresolvableTarget  = "UnresolvableTarget"
	CodeMissingRoot         = "MissingSkeletonRoot"
	CodeParentCycle         = "ParentCycle"
	CodeBoneOverflow        = "BoneCountOverflow"
	CodeVertexOverflow      = "VertexCountOverflow"
	CodeFaceOverflow        = "FaceCountOverflow"
	CodeUVLayersMissing     = "UVLayersMissing"
	CodeUVCountExceeded     = "UVCountExceeded"
	CodeUVChannelMismatch   = "UVChannelMismatch"
	CodeExcessColorLayers   = "ExcessColorLayers"
	CodeDuplicateNormal     = "DuplicateNormal"
	CodeDuplicateTangent    = "DuplicateTangent"
	CodeDuplicateUV         = "DuplicateUV"
	CodeDuplicateColor      = "DuplicateColor"
	CodeMaterialNameLength  = "MaterialNameTooLong"
	CodeCountMismatch       = "HeaderCountMismatch"
	CodeInvalidMaterial     = "InvalidMaterialIndex"
	CodeInvalidBoneIndex    = "InvalidBoneIndex"
	CodeInvalidVertexIndex  = "InvalidVertexIndex"
	CodeMissingVertexValue  = "MissingVertexValue"
	CodeInvalidPolygon      = "InvalidPolygon"
	CodeUnsupportedProperty = "UnsupportedProperty"
)

// NoElement marks a fault that is not tied to a numbered element.
const NoElement = -1

// Fault is one recorded validation problem.
type Fault struct {
	Kind     Kind
	Severity Severity
	Code     string
	Section  string
	Mesh     string
	Element  int
	Field    string
	Values   []interface{}
	Detail   string
}

// Error implements error with every piece of context the fault carries.
func (f Fault) Error() string {
	var b strings.Builder
	b.WriteString(f.Section)
	if f.Mesh != "" {
		fmt.Fprintf(&b, " [%s]", f.Mesh)
	}
	fmt.Fprintf(&b, ": %s %s", f.Severity, f.Code)
	if f.Element != NoElement {
		fmt.Fprintf(&b, " at #%d", f.Element)
	}
	if f.Field != "" {
		fmt.Fprintf(&b, " field %q", f.Field)
	}
	if len(f.Values) > 0 {
		b.WriteString(" values")
		for _, v := range f.Values {
			fmt.Fprintf(&b, " %v", v)
		}
	}
	if f.Detail != "" {
		b.WriteString(": ")
		b.WriteString(f.Detail)
	}
	return b.String()
}

// Is matches the sentinel error of the fault's kind.
func (f Fault) Is(target error) bool {
	return target == f.Kind.sentinel()
}

// IsFatal reports whether the fault aborts the conversion.
func (f Fault) IsFatal() bool { return f.Severity == Fatal }
