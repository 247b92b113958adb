package config

import "flag"

// Flags are the command-line overrides shared by every subcommand.
type Flags struct {
	Config         string
	Debug          bool
	LogFile        string
	WeightFormat   string
	AllLODs        bool
	LinkArmature   bool
	OverrideFirst  bool
	VertexNormals  bool
	ColorLayer     int
	FallbackLayout string
	NoHeader       bool
	NoSkeleton     bool
	NoMeshParts    bool
	BoneNaming     string
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to this file as well")
	fs.StringVar(&f.WeightFormat, "weights", "", "Weight format: grouped, split or split-ordered")
	fs.BoolVar(&f.AllLODs, "all-lods", false, "Keep every LOD instead of only the highest")
	fs.BoolVar(&f.LinkArmature, "link-armature", false, "Bind imported meshes to the armature (grouped weights only)")
	fs.BoolVar(&f.OverrideFirst, "override-defaults", false, "Use the first imported mesh as scene mesh defaults")
	fs.BoolVar(&f.VertexNormals, "vertex-normals", false, "Export vertex normals instead of corner normals")
	fs.IntVar(&f.ColorLayer, "color-layer", -1, "Color layer to export when a mesh has several")
	fs.StringVar(&f.FallbackLayout, "fallback-layout", "", "Layout label used when a block label is unknown")
	fs.BoolVar(&f.NoHeader, "no-header", false, "Skip the scene header on import")
	fs.BoolVar(&f.NoSkeleton, "no-skeleton", false, "Skip the skeleton on import")
	fs.BoolVar(&f.NoMeshParts, "no-meshes", false, "Skip mesh parts on import")
	fs.StringVar(&f.BoneNaming, "bone-naming", "", "Imported bone names: index (Bone.NNN) or function (bonefunction_NNN)")
}

// applyFlags applies CLI flag overrides to the config.
func (f *Flags) applyFlags(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	c := &cfg.Conversion
	if f.WeightFormat != "" {
		c.WeightFormat = f.WeightFormat
	}
	if f.AllLODs {
		c.OnlyHighestLOD = false
	}
	if f.LinkArmature {
		c.PreserveMeshSkeletonIndependence = false
	}
	if f.OverrideFirst {
		c.OverrideDefaultsFromFirstMesh = true
	}
	if f.VertexNormals {
		c.VertexNormals = true
	}
	if f.ColorLayer >= 0 {
		c.ColorLayer = f.ColorLayer
	}
	if f.FallbackLayout != "" {
		c.FallbackLayout = f.FallbackLayout
	}
	if f.NoHeader {
		c.ImportHeader = false
	}
	if f.NoSkeleton {
		c.ImportSkeleton = false
	}
	if f.NoMeshParts {
		c.ImportMeshParts = false
	}
	if f.BoneNaming != "" {
		c.BoneNaming = f.BoneNaming
	}
}
