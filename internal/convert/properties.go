package convert

import (
	"fmt"

	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Header properties read from the scene, in storage order.
var headerProperties = []string{
	"MeshPropertyCount", "boneMapCount", "groupCount", "materialCount",
	"vertexIds", "hUnkn1", "hUnkn2",
}

// PropTrailingData holds the opaque bytes that follow the model body.
const PropTrailingData = "TrailingData"

// HeaderDefaults are substituted for missing header properties.
var HeaderDefaults = mod3.NewPropertyMap(
	PropTrailingData, "",
	"MeshPropertyCount", 0,
	"boneMapCount", 0,
	"groupCount", 0,
	"materialCount", 0,
	"vertexIds", 0,
	"hUnkn1", 0,
	"hUnkn2", 0,
)

// Mesh property names.
const (
	PropLOD        = "lod"
	PropBlockLabel = "blockLabel"
	PropMaterial   = "material"
)

// meshProperties are read from every mesh, in storage order.
var meshProperties = []string{
	"unkn", "visibleCondition", PropLOD, "unkn2", "unkn3", PropBlockLabel,
	"boneremapid", "unkn9", PropMaterial,
}

// MeshDefaults are the built-in mesh property defaults. A scene property
// named validation.DefaultPrefix+name overrides each of them.
var MeshDefaults = mod3.NewPropertyMap(
	"unkn", 0,
	"visibleCondition", 0,
	PropLOD, mod3.HighestLOD,
	"unkn2", 0,
	"unkn3", 0,
	PropBlockLabel, "IASkinOTB4wt1UV",
	"boneremapid", 0,
	"unkn9", 0,
	PropMaterial, "",
)

// GroupPropertiesPerGroup is the number of GroupProperty values per group.
const GroupPropertiesPerGroup = 8

func meshPropertyKey(i int) string  { return fmt.Sprintf("MeshProperty%d", i) }
func materialNameKey(i int) string  { return fmt.Sprintf("MaterialName%d", i) }
func groupPropertyKey(i int) string { return fmt.Sprintf("GroupProperty%d", i) }
