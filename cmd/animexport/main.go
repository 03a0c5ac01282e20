package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"anim-cfg-export/internal/config"
	"anim-cfg-export/internal/event"
	"anim-cfg-export/internal/export"
	"anim-cfg-export/internal/scene"
	"anim-cfg-export/internal/watch"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a JSON or YAML job file")
	input := flag.String("input", "", "Input scene (.bmd model or .json track dump)")
	output := flag.String("output", "", "Output model.cfg / .hpp file")
	action := flag.Int("action", 0, "BMD action index to sample")
	leaKey := flag.String("lea-key", "", "Hex LEA-256 key for BMD v15 files")
	source := flag.String("source", "", "Animation source name (default: foobar)")
	address := flag.String("address", "", "Source address: clamp, loop or mirror (default: clamp)")
	parent := flag.String("parent", "", "Export transforms relative to this object")
	start := flag.Int("start", 0, "First frame (default: scene start)")
	end := flag.Int("end", 0, "Last frame (default: scene end)")
	minValue := flag.Float64("min", 0, "Source value at the first frame (default: 0)")
	maxValue := flag.Float64("max", 1, "Source value at the last frame (default: 1)")
	precision := flag.Int("precision", 7, "Decimal places in the output")
	selection := flag.String("select", "", "Comma-separated objects to export")
	armature := flag.Bool("armature", false, "Export every bone of the model")
	folder := flag.String("folder", "", "Folder for per-object files (default: source name)")
	noFolder := flag.Bool("no-folder", false, "Write per-object files next to the output file")
	previewFmt := flag.String("preview", "", "Write a trajectory preview per object: webp or tga")
	watchMode := flag.Bool("watch", false, "Re-export whenever the input changes")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()
	event.ConfigureLogging(*debug)

	// Only explicitly given flags override the job file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	flags := config.Flags{
		Input:         *input,
		Output:        *output,
		LEAKey:        *leaKey,
		Parent:        *parent,
		SourceName:    *source,
		SourceAddress: *address,
		FolderName:    *folder,
		Preview:       *previewFmt,
		Selection:     splitList(*selection),
	}
	if set["action"] {
		flags.Action = action
	}
	if set["start"] {
		flags.FrameStart = start
	}
	if set["end"] {
		flags.FrameEnd = end
	}
	if set["min"] {
		flags.MinValue = minValue
	}
	if set["max"] {
		flags.MaxValue = maxValue
	}
	if set["precision"] {
		flags.Precision = precision
	}
	if set["armature"] {
		flags.Armature = armature
	}
	if set["no-folder"] {
		create := !*noFolder
		flags.CreateFolder = &create
	}

	cfg, err := config.Build(*configFile, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	failed, err := runExport(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if !*watchMode {
			os.Exit(1)
		}
	}

	if *watchMode {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.Input)
		err := watch.Run(ctx, []string{cfg.Input}, watch.DefaultInterval, func(string) {
			if _, err := runExport(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func runExport(cfg config.Config) (int, error) {
	key, err := cfg.Key()
	if err != nil {
		return 0, err
	}
	ev, err := scene.Load(cfg.Input, scene.LoadOptions{Action: cfg.Action, LEAKey: key})
	if err != nil {
		return 0, err
	}
	ch, err := cfg.Channel()
	if err != nil {
		return 0, err
	}

	job := export.Job{
		Scene:        ev,
		Output:       cfg.Output,
		Selection:    cfg.Selection,
		Armature:     cfg.Armature,
		Parent:       cfg.Parent,
		FrameStart:   cfg.FrameStart,
		FrameEnd:     cfg.FrameEnd,
		Channel:      ch,
		CreateFolder: *cfg.CreateFolder,
		FolderName:   cfg.FolderName,
		Preview:      cfg.Preview,
		PreviewSize:  cfg.PreviewSize,
	}

	frames, err := export.FrameRange(job)
	if err != nil {
		return 0, err
	}

	fmt.Println("model.cfg animation export")
	fmt.Printf("Input: %s (%d objects)\n", cfg.Input, len(ev.Objects()))
	fmt.Printf("Frames: %d..%d, Source: %s (%s)\n", frames.Start, frames.End, ch.SourceName, ch.SourceAddress)
	fmt.Printf("Output: %s\n", cfg.Output)
	fmt.Println("------------------------------------------------------------")

	begin := time.Now()
	results, err := export.Run(job)
	if err != nil {
		return 0, err
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.2fs\n", time.Since(begin).Seconds())

	failed := export.Failed(results)
	fmt.Printf("Exported: %d/%d\n", len(results)-failed, len(results))
	for _, r := range results {
		if r.Success {
			fmt.Printf("  %s: %d frames, %d pairs -> %s\n", r.Selection, r.Frames, r.Pairs, r.Path)
		}
	}
	if failed > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, r := range results {
			if !r.Success {
				fmt.Printf("  %s: %s\n", r.Selection, r.Error)
			}
		}
	}

	// Write manifest
	manifestPath := export.ManifestPath(cfg.Output)
	if err := export.WriteManifest(manifestPath, job, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	return failed, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
