// modeltool is a CLI utility for compiling and managing stored custom models.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/ccmodels/internal/assets"
	"github.com/Faultbox/ccmodels/internal/config"
	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/internal/modelconfig"
	"github.com/Faultbox/ccmodels/internal/network/packets"
	"github.com/Faultbox/ccmodels/internal/skin"
	"github.com/Faultbox/ccmodels/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "compile", "c":
		cmdCompile(args)
	case "import":
		cmdImport(args)
	case "set":
		cmdSet(args)
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "delete", "rm":
		cmdDelete(args)
	case "classify":
		cmdClassify(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modeltool - custom model utility

Usage:
  modeltool <command> [options]

Commands:
  compile <file.bbmodel> [modifiers]   Compile a scene and show its parts
  import <name> <file.bbmodel>         Store a scene as a model
  set <name> <field> <value>           Change a stored model setting
  info <name>                          Show a stored model
  list                                 List stored models
  delete <name>                        Remove a stored model
  classify <skin.png>                  Show a skin's arm layout

Store options (import, set, info, list, delete):
  -models <dir>   Model config directory
  -assets <dir>   Scene document directory

Examples:
  modeltool compile horse.bbmodel sit
  modeltool import horse horse.bbmodel
  modeltool set horse eyey 20
  modeltool classify steve.png`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// openLibrary parses the store flags and opens the library.
func openLibrary(name string, args []string) (*modelconfig.Library, *flag.FlagSet) {
	defaults := config.Default()
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	modelsDir := fs.String("models", defaults.Models.ConfigDir, "Model config directory")
	assetDir := fs.String("assets", defaults.Models.AssetDir, "Scene document directory")
	fs.Parse(args)

	configs, err := modelconfig.NewFileStore(*modelsDir)
	if err != nil {
		fail("Error: %v", err)
	}
	scenes, err := assets.NewDirStore(*assetDir, false)
	if err != nil {
		fail("Error: %v", err)
	}
	return &modelconfig.Library{
		Configs: configs,
		Assets:  scenes,
		Limits:  model.Limits{MaxParts: packets.MaxParts, MaxAnims: packets.MaxAnims},
	}, fs
}

func cmdCompile(args []string) {
	if len(args) < 1 {
		fail("Usage: modeltool compile <file.bbmodel> [modifiers]")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fail("Error: %v", err)
	}
	doc, err := formats.ParseSceneDocument(data)
	if err != nil {
		fail("Error: %v", err)
	}
	for _, w := range doc.Validate() {
		fmt.Printf("warning [%s] %s\n", w.Kind, w)
	}

	parts, err := model.Compile(doc)
	if err != nil {
		fail("Error: %v", err)
	}

	var mods []string
	if len(args) > 1 {
		mods = modelconfig.ParseModelName("x(" + args[1] + ")").Modifiers
	}
	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	header := modelconfig.New(name).Header(name, doc, parts)
	parts = model.Apply(mods, header, parts)

	printModel(header, parts)
	lim := model.Limits{MaxParts: packets.MaxParts, MaxAnims: packets.MaxAnims}
	if err := model.CheckLimits(parts, lim); err != nil {
		fail("Error: %v", err)
	}
}

func printModel(m *model.CompiledModel, parts []model.Part) {
	fmt.Printf("Model:   %s\n", m.Name)
	fmt.Printf("Texture: %dx%d\n", m.UScale, m.VScale)
	fmt.Printf("Name Y:  %.3f  Eye Y: %.3f\n", m.NameY, m.EyeY)
	fmt.Printf("Parts:   %d\n", len(parts))
	fmt.Println()
	for i, p := range parts {
		fmt.Printf("  #%-3d min %v max %v", i, p.Min, p.Max)
		if !p.Rotation.IsZero() {
			fmt.Printf(" rot %v", p.Rotation)
		}
		fmt.Println()
		for _, a := range p.Anims {
			fmt.Printf("       %s %s a=%g b=%g c=%g d=%g\n", a.Type, a.Axis, a.A, a.B, a.C, a.D)
		}
	}
}

func cmdImport(args []string) {
	lib, fs := openLibrary("import", args)
	if fs.NArg() < 2 {
		fail("Usage: modeltool import <name> <file.bbmodel>")
	}

	data, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		fail("Error: %v", err)
	}
	warnings, err := lib.Upload(fs.Arg(0), data)
	if err != nil {
		fail("Error: %v", err)
	}
	for _, w := range warnings {
		fmt.Printf("warning [%s] %s\n", w.Kind, w)
	}
	fmt.Printf("Stored %s\n", fs.Arg(0))
}

func cmdSet(args []string) {
	lib, fs := openLibrary("set", args)
	if fs.NArg() < 3 {
		fail("Usage: modeltool set <name> <field> <value>\nFields: %s", strings.Join(modelconfig.FieldNames(), ", "))
	}

	cfg, err := lib.Load(fs.Arg(0))
	if err != nil {
		fail("Error: %v", err)
	}
	value := strings.Join(fs.Args()[2:], " ")
	// Restricted fields are editable from the tool.
	if err := cfg.SetField(fs.Arg(1), value, true); err != nil {
		fail("Error: %v", err)
	}
	if err := lib.Configs.Save(cfg); err != nil {
		fail("Error: %v", err)
	}
	if _, _, err := lib.Build(cfg.Name); err != nil {
		fail("Warning: saved, but the model no longer builds: %v", err)
	}
	fmt.Printf("%s.%s = %s\n", fs.Arg(0), fs.Arg(1), value)
}

func cmdInfo(args []string) {
	lib, fs := openLibrary("info", args)
	if fs.NArg() < 1 {
		fail("Usage: modeltool info <name>")
	}

	m, parts, err := lib.Build(modelconfig.ParseModelName(fs.Arg(0)))
	if err != nil {
		fail("Error: %v", err)
	}
	printModel(m, parts)
}

func cmdList(args []string) {
	lib, _ := openLibrary("list", args)
	names, err := lib.Configs.List()
	if err != nil {
		fail("Error: %v", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	fmt.Fprintf(os.Stderr, "\n(%d models)\n", len(names))
}

func cmdDelete(args []string) {
	lib, fs := openLibrary("delete", args)
	if fs.NArg() < 1 {
		fail("Usage: modeltool delete <name>")
	}
	if !lib.Exists(fs.Arg(0)) {
		fail("Model not found: %s", fs.Arg(0))
	}
	if err := lib.Delete(fs.Arg(0)); err != nil {
		fail("Error: %v", err)
	}
	fmt.Printf("Deleted %s\n", fs.Arg(0))
}

func cmdClassify(args []string) {
	if len(args) < 1 {
		fail("Usage: modeltool classify <skin.png>")
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fail("Error: %v", err)
		}
		t, err := skin.ClassifyBytes(data)
		if err != nil {
			fail("Error: %s: %v", path, err)
		}
		fmt.Printf("%s: %s\n", path, t)
	}
}
