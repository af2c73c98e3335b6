// Command zmrun plays Z-machine story files, either given directly with
// --rom or picked interactively from the IF-Archive zcode index. Flag
// parsing follows the teacher's main.go (flag.StringVar against package
// vars, parsed from init) and cmd/gametest/main.go (flag.String for a
// batch-mode entrypoint); the --debug/--header/--object-tree/--dict
// inspector flags are new surface this spec adds on top of both.
package main

import (
	"flag"
	"fmt"
	"os"

	"zmrun/config"
	"zmrun/quetzal"
	"zmrun/storage"
	"zmrun/zmachine"
)

var (
	romFilePath   string
	configPath    string
	cacheDir      string
	debugMode     bool
	headerOnly    bool
	objectTree    bool
	dictDump      bool
	saveDir       string
)

func init() {
	flag.StringVar(&romFilePath, "rom", "", "path to a z-machine story file")
	flag.StringVar(&configPath, "config", "zmrun.toml", "path to zmrun's TOML config file")
	flag.StringVar(&cacheDir, "cache-dir", ".zmrun-cache", "directory for the story-browser's on-disk cache")
	flag.StringVar(&saveDir, "save-dir", "", "override the configured save directory")
	flag.BoolVar(&debugMode, "debug", false, "open the tview inspector instead of playing")
	flag.BoolVar(&headerOnly, "header", false, "open the inspector, same as --debug (all views are shown together)")
	flag.BoolVar(&objectTree, "object-tree", false, "open the inspector, same as --debug (all views are shown together)")
	flag.BoolVar(&dictDump, "dict", false, "open the inspector, same as --debug (all views are shown together)")
}

func main() {
	flag.Parse()

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zmrun: loading config: %v\n", err)
		os.Exit(1)
	}
	if saveDir != "" {
		cfg.Paths.SaveDirectory = saveDir
	}

	if romFilePath == "" {
		store := &storage.InMemoryProvider{}
		if err := runPicker(cacheDir, store); err != nil {
			fmt.Fprintf(os.Stderr, "zmrun: %v\n", err)
			os.Exit(1)
		}
		return
	}

	romBytes, err := os.ReadFile(romFilePath) // #nosec G304 -- romFilePath is an operator-supplied CLI flag
	if err != nil {
		fmt.Fprintf(os.Stderr, "zmrun: reading %s: %v\n", romFilePath, err)
		os.Exit(1)
	}

	store := buildStorage(cfg, romBytes)

	if debugMode || headerOnly || objectTree || dictDump {
		machine, err := zmachine.NewMachine(romBytes, nil, inputHost{}, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zmrun: loading %s: %v\n", romFilePath, err)
			os.Exit(1)
		}
		inspector := newDebugInspector(machine)
		if err := inspector.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "zmrun: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runPlay(romBytes, romFilePath, store); err != nil {
		fmt.Fprintf(os.Stderr, "zmrun: %v\n", err)
		os.Exit(1)
	}
}

// buildStorage wires a filesystem-backed Storage using the Quetzal codec,
// keyed off the loaded story's release/serial so save files are tagged
// the way Quetzal's IFhd chunk expects (spec.md §4.9/6).
func buildStorage(cfg config.Config, romBytes []byte) zmachine.Storage {
	var serial [6]byte
	if len(romBytes) >= 0x18 {
		copy(serial[:], romBytes[0x12:0x18])
	}
	release := uint16(0)
	if len(romBytes) >= 0x04 {
		release = uint16(romBytes[0x02])<<8 | uint16(romBytes[0x03])
	}

	return &storage.FilesystemProvider{
		Dir:     cfg.Paths.SaveDirectory,
		Ext:     ".qzl",
		Release: release,
		Serial:  serial,
		Codec: storage.QuetzalCodec{
			Info:     quetzal.StoryInfo{ReleaseNumber: release, Serial: serial},
			Original: romBytes,
		},
	}
}
