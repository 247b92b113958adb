// Package config handles converter configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/mod3-tools/internal/convert"
	"github.com/Faultbox/mod3-tools/internal/layout"
	"github.com/Faultbox/mod3-tools/internal/skeleton"
	"github.com/Faultbox/mod3-tools/internal/weights"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

// FileName is the config file looked up in the working and config dirs.
const FileName = "mod3tool.yaml"

// Config holds all converter settings.
type Config struct {
	Conversion ConversionConfig `yaml:"conversion"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConversionConfig holds export and import settings.
type ConversionConfig struct {
	WeightFormat                     string `yaml:"weight_format"` // grouped, split or split-ordered
	OnlyHighestLOD                   bool   `yaml:"only_highest_lod"`
	PreserveMeshSkeletonIndependence bool   `yaml:"preserve_mesh_skeleton_independence"`
	OverrideDefaultsFromFirstMesh    bool   `yaml:"override_defaults_from_first_mesh"`
	VertexNormals                    bool   `yaml:"vertex_normals"`
	ColorLayer                       int    `yaml:"color_layer"`
	FallbackLayout                   string `yaml:"fallback_layout"` // layout label used when a block label is unknown
	ImportHeader                     bool   `yaml:"import_header"`
	ImportSkeleton                   bool   `yaml:"import_skeleton"`
	ImportMeshParts                  bool   `yaml:"import_mesh_parts"`
	BoneNaming                       string `yaml:"bone_naming"` // index or function
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			WeightFormat:                     string(weights.Grouped),
			OnlyHighestLOD:                   true,
			PreserveMeshSkeletonIndependence: true,
			ImportHeader:                     true,
			ImportSkeleton:                   true,
			ImportMeshParts:                  true,
			BoneNaming:                       string(skeleton.IndexNaming),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Options converts the conversion settings into pipeline options.
func (c *ConversionConfig) Options() (convert.Options, error) {
	format, err := weights.ParseFormat(c.WeightFormat)
	if err != nil {
		return convert.Options{}, err
	}
	fallback := mod3.LayoutNone
	if c.FallbackLayout != "" {
		fallback = layout.Hash(c.FallbackLayout)
		if !layout.Known(fallback) {
			return convert.Options{}, fmt.Errorf("fallback layout %q is not a known layout", c.FallbackLayout)
		}
	}
	naming := skeleton.IndexNaming
	if c.BoneNaming != "" {
		if naming, err = skeleton.ParseNaming(c.BoneNaming); err != nil {
			return convert.Options{}, err
		}
	}
	if c.ColorLayer < 0 {
		return convert.Options{}, fmt.Errorf("color layer must not be negative, got %d", c.ColorLayer)
	}

	opts := convert.DefaultOptions()
	opts.WeightFormat = format
	opts.OnlyHighestLOD = c.OnlyHighestLOD
	opts.PreserveMeshSkeletonIndependence = c.PreserveMeshSkeletonIndependence
	opts.OverrideDefaultsFromFirstMesh = c.OverrideDefaultsFromFirstMesh
	opts.VertexNormals = c.VertexNormals
	opts.ColorLayer = c.ColorLayer
	opts.FallbackLayout = fallback
	opts.ImportHeader = c.ImportHeader
	opts.ImportSkeleton = c.ImportSkeleton
	opts.ImportMeshParts = c.ImportMeshParts
	opts.BoneNaming = naming
	return opts, nil
}
