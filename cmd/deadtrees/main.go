package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/LiubovD/thrird-chapter-workflow/internal/geo"
	"github.com/LiubovD/thrird-chapter-workflow/internal/pipeline"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("deadtrees %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("deadtrees - detect dead trees in aerial imagery")
			fmt.Println()
			fmt.Println("Usage: deadtrees [options]")
			fmt.Println()
			fmt.Println("Options:")
			flag.CommandLine.SetOutput(os.Stdout)
			defineFlags(pipeline.Defaults())
			flag.PrintDefaults()
			return
		}
	}

	// Progress messages go to stderr; stdout stays clean for scripting.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	p, paramsFile := defineFlags(pipeline.Defaults())
	flag.Parse()

	if *paramsFile != "" {
		loaded, err := pipeline.LoadParams(*paramsFile)
		if err != nil {
			log.Fatalf("parameter file: %v", err)
		}
		// Re-apply flags on top of the file so the command line wins.
		*p = loaded
		flag.Visit(func(f *flag.Flag) {
			applyFlag(p, f)
		})
	}

	runner := pipeline.NewRunner(geo.NewLocal(), nil)
	if err := runner.Run(*p); err != nil {
		log.Fatalf("pipeline: %v", err)
	}
}

// defineFlags registers the pipeline flags and returns the Params they write
// into, pre-filled with defaults, plus the parameter-file flag.
func defineFlags(defaults pipeline.Params) (*pipeline.Params, *string) {
	p := defaults
	flag.StringVar(&p.InputRaster, "input", "", "input raster: dataset path or registry.yaml#layer")
	flag.StringVar(&p.ForestMask, "mask", "", "forest mask polygons (GeoJSON), optional")
	flag.StringVar(&p.OutputWorkspace, "workspace", "", "directory for the scratch workspace (default: next to output)")
	flag.StringVar(&p.OutputFeatures, "output", "", "output feature collection (GeoJSON)")
	flag.IntVar(&p.ClassCount, "classes", p.ClassCount, "number of spectral classes")
	flag.Float64Var(&p.MinArea, "min-area", p.MinArea, "minimum polygon area in square meters")
	flag.StringVar(&p.BufferDistance, "buffer", p.BufferDistance, "buffer distance, e.g. \"1 Meters\"")
	flag.Float64Var(&p.MinBufferArea, "min-buffer-area", p.MinBufferArea, "minimum buffered polygon area in square meters")
	flag.IntVar(&p.BandIndex, "band", p.BandIndex, "spectral band to threshold")
	flag.Float64Var(&p.CellSize, "cell-size", p.CellSize, "raster cell size in meters")
	flag.BoolVar(&p.Parallel, "parallel", p.Parallel, "classify with all available CPUs")
	flag.BoolVar(&p.KeepWorkspace, "keep-workspace", p.KeepWorkspace, "retain the scratch workspace after the run")
	paramsFile := flag.String("params", "", "YAML parameter file (flags override its values)")
	return &p, paramsFile
}

// applyFlag copies one explicitly set flag value into p. Used to give flags
// precedence over the parameter file.
func applyFlag(p *pipeline.Params, f *flag.Flag) {
	v := f.Value.String()
	switch f.Name {
	case "input":
		p.InputRaster = v
	case "mask":
		p.ForestMask = v
	case "workspace":
		p.OutputWorkspace = v
	case "output":
		p.OutputFeatures = v
	case "classes":
		fmt.Sscan(v, &p.ClassCount)
	case "min-area":
		fmt.Sscan(v, &p.MinArea)
	case "buffer":
		p.BufferDistance = v
	case "min-buffer-area":
		fmt.Sscan(v, &p.MinBufferArea)
	case "band":
		fmt.Sscan(v, &p.BandIndex)
	case "cell-size":
		fmt.Sscan(v, &p.CellSize)
	case "parallel":
		fmt.Sscan(v, &p.Parallel)
	case "keep-workspace":
		fmt.Sscan(v, &p.KeepWorkspace)
	}
}
