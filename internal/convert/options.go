// Package convert runs the section-by-section export of a scene into a MOD3
// model record and the reverse import.
package convert

import (
	"github.com/Faultbox/mod3-tools/internal/mesh"
	"github.com/Faultbox/mod3-tools/internal/skeleton"
	"github.com/Faultbox/mod3-tools/internal/weights"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// Section names used for fault scoping.
const (
	SectionHeaders  = "Scene Headers"
	SectionSkeleton = "Skeleton"
	SectionMeshes   = "Meshes"
)

// Options are the caller-selected conversion settings.
type Options struct {
	WeightFormat                     weights.Format
	OnlyHighestLOD                   bool
	PreserveMeshSkeletonIndependence bool
	OverrideDefaultsFromFirstMesh    bool

	// Export only.
	VertexNormals  bool
	ColorLayer     int
	FallbackLayout mod3.LayoutCode
	Triangulate    mesh.Triangulator

	// Import only.
	ImportHeader    bool
	ImportSkeleton  bool
	ImportMeshParts bool
	BoneNaming      skeleton.Naming
	Name            string // prefix for imported object names
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		WeightFormat:                     weights.Grouped,
		OnlyHighestLOD:                   true,
		PreserveMeshSkeletonIndependence: true,
		ImportHeader:                     true,
		ImportSkeleton:                   true,
		ImportMeshParts:                  true,
		BoneNaming:                       skeleton.IndexNaming,
		Name:                             "Model",
	}
}

func (o Options) meshOptions() mesh.Options {
	return mesh.Options{
		VertexNormals: o.VertexNormals,
		ColorLayer:    o.ColorLayer,
		Triangulate:   o.Triangulate,
	}
}

// linkArmature reports whether imported meshes are bound to the armature.
// Only grouped weights name groups after bones directly.
func (o Options) linkArmature() bool {
	return o.WeightFormat == weights.Grouped && !o.PreserveMeshSkeletonIndependence
}
