// mod3tool converts between YAML scene documents and MOD3 model records.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Faultbox/mod3-tools/internal/config"
	"github.com/Faultbox/mod3-tools/internal/convert"
	"github.com/Faultbox/mod3-tools/internal/layout"
	"github.com/Faultbox/mod3-tools/internal/logger"
	"github.com/Faultbox/mod3-tools/internal/scene"
	"github.com/Faultbox/mod3-tools/internal/validation"
	"github.com/Faultbox/mod3-tools/pkg/mod3"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "export", "e":
		cmdExport(args)
	case "import", "i":
		cmdImport(args)
	case "info":
		cmdInfo(args)
	case "layout":
		cmdLayout(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mod3tool - MOD3 model conversion utility

Usage:
  mod3tool <command> [options]

Commands:
  export <scene.yaml> <model.yaml>   Convert a scene into a model record
  import <model.yaml> <scene.yaml>   Rebuild a scene from a model record
  info [-bones] <model.yaml>         Show model statistics
  layout [-list] [label...]          Hash vertex-buffer labels
  config [path]                      Write the effective config file

Conversion options (export, import):
  -config <path>          Config file (default: ./mod3tool.yaml)
  -weights <format>       grouped, split or split-ordered
  -all-lods               Keep every LOD on import
  -link-armature          Bind imported meshes to the armature
  -override-defaults      Seed mesh defaults from the first imported mesh
  -vertex-normals         Export vertex normals instead of corner normals
  -color-layer <n>        Color layer to export
  -fallback-layout <lbl>  Layout used for unknown block labels
  -bone-naming <scheme>   Imported bone names: index or function
  -no-header, -no-skeleton, -no-meshes
                          Skip import sections
  -debug, -log-file <path>

Examples:
  mod3tool export hero.scene.yaml hero.mod3.yaml
  mod3tool import -weights split-ordered hero.mod3.yaml hero.scene.yaml
  mod3tool import -bone-naming function hero.mod3.yaml hero.scene.yaml
  mod3tool layout IASkinOTB4wt1UV`)
}

// setup parses the shared conversion flags and initializes logging.
func setup(name string, args []string) (*flag.FlagSet, convert.Options) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	fs.Parse(args)

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts, err := cfg.Conversion.Options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return fs, opts
}

func cmdExport(args []string) {
	fs, opts := setup("export", args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: mod3tool export [options] <scene.yaml> <model.yaml>")
		os.Exit(1)
	}

	s, err := scene.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := convert.NewExporter(opts, logger.Component("export")).Export(s)
	if err != nil {
		fail(err)
	}
	if err := res.Model.Save(fs.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := res.Model
	fmt.Printf("Exported %s -> %s\n", fs.Arg(0), fs.Arg(1))
	fmt.Printf("  %d bones, %d parts, %s vertices, %s faces\n",
		m.Skeleton.Len(), len(m.Parts),
		humanize.Comma(int64(m.VertexCount())), humanize.Comma(int64(m.FaceCount())))
	printWarnings(res.Warnings)
}

func cmdImport(args []string) {
	fs, opts := setup("import", args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: mod3tool import [options] <model.yaml> <scene.yaml>")
		os.Exit(1)
	}

	m, err := mod3.LoadModel(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts.Name = modelName(fs.Arg(0))

	res, err := convert.NewImporter(opts, logger.Component("import")).Import(m)
	if err != nil {
		fail(err)
	}
	if err := res.Scene.Save(fs.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %s -> %s\n", fs.Arg(0), fs.Arg(1))
	fmt.Printf("  %d objects, %d meshes", len(res.Scene.Objects()), len(res.Scene.Meshes))
	if res.Skipped > 0 {
		fmt.Printf(" (%d parts skipped by LOD)", res.Skipped)
	}
	fmt.Println()
	printWarnings(res.Warnings)
}

// modelName strips every extension from the file name.
func modelName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	bones := fs.Bool("bones", false, "List bones with their local and absolute translations")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mod3tool info [-bones] <model.yaml>")
		os.Exit(1)
	}
	args = fs.Args()

	st, err := os.Stat(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m, err := mod3.LoadModel(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model:     %s\n", args[0])
	fmt.Printf("Size:      %s\n", humanize.Bytes(uint64(st.Size())))
	fmt.Printf("Bones:     %d\n", m.Skeleton.Len())
	fmt.Printf("Parts:     %d\n", len(m.Parts))
	fmt.Printf("Vertices:  %s\n", humanize.Comma(int64(m.VertexCount())))
	fmt.Printf("Faces:     %s\n", humanize.Comma(int64(m.FaceCount())))
	fmt.Printf("Materials: %d\n", len(m.Materials))
	fmt.Println()
	fmt.Println("Parts:")

	for _, p := range m.Parts {
		label := "unknown"
		if l, ok := layout.Lookup(p.Layout); ok {
			label = describe(l)
		}
		material := "-"
		if p.MaterialIndex >= 0 && p.MaterialIndex < len(m.Materials) {
			material = m.Materials[p.MaterialIndex]
		}
		fmt.Printf("  %-20s lod=%-3d %s %-24s %6s verts  %s\n",
			p.Name, p.LOD(), p.Layout, label,
			humanize.Comma(int64(len(p.Vertices))), material)
	}

	if *bones {
		printBones(&m.Skeleton)
	}
}

// printBones lists the skeleton with the translation column of each bone's
// local and absolute matrix.
func printBones(sk *mod3.Skeleton) {
	local, absolute := sk.LocalMatrices(), sk.AbsoluteMatrices()
	fmt.Println()
	fmt.Println("Bones:")
	for i, b := range sk.Bones {
		parent := "-"
		if !b.IsRoot() {
			parent = strconv.Itoa(int(b.ParentIndex))
		}
		l, a := local[i].Col(3).Vec3(), absolute[i].Col(3).Vec3()
		fmt.Printf("  %3d %-20s parent=%-3s local=(%.3f, %.3f, %.3f) absolute=(%.3f, %.3f, %.3f)\n",
			i, b.Name, parent, l[0], l[1], l[2], a[0], a[1], a[2])
	}
}

func cmdLayout(args []string) {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	list := fs.Bool("list", false, "List every known layout code")
	fs.Parse(args)

	if *list {
		for _, code := range layout.Codes() {
			l, _ := layout.Lookup(code)
			fmt.Printf("%s  %s\n", code, describe(l))
		}
		return
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mod3tool layout [-list] <label>...")
		os.Exit(1)
	}

	unknown := 0
	for _, label := range fs.Args() {
		code := layout.Hash(label)
		l, ok := layout.Lookup(code)
		if !ok {
			fmt.Printf("%-20s %s  (not a known layout)\n", label, code)
			unknown++
			continue
		}
		fmt.Printf("%-20s %s  %s\n", label, code, describe(l))
	}
	if unknown > 0 {
		os.Exit(1)
	}
}

func describe(l layout.Layout) string {
	var parts []string
	if l.Skinned() {
		parts = append(parts, fmt.Sprintf("%d weights", l.Weights))
	} else {
		parts = append(parts, "rigid")
	}
	parts = append(parts, fmt.Sprintf("%d uv", l.UVs))
	if l.Color {
		parts = append(parts, "color")
	}
	return strings.Join(parts, ", ")
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	fs.Parse(args)

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		err = cfg.SaveTo(fs.Arg(0))
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Config written")
}

// fail prints every fault of an aborted section and exits.
func fail(err error) {
	var se *validation.SectionError
	if !errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Error: %s section failed with %d fatal fault(s)\n", se.Section, len(se.Fatal()))
	for _, f := range se.Faults {
		fmt.Fprintf(os.Stderr, "  %v\n", f)
	}
	os.Exit(1)
}

func printWarnings(faults []validation.Fault) {
	if len(faults) == 0 {
		return
	}
	byCode := make(map[string]int)
	var order []string
	for _, f := range faults {
		if byCode[f.Code] == 0 {
			order = append(order, f.Code)
		}
		byCode[f.Code]++
	}
	fmt.Printf("  %d warning(s):\n", len(faults))
	for _, code := range order {
		fmt.Printf("    %-28s %d\n", code, byCode[code])
	}
}
