// Command plot-log renders vehicle speed, gaze vergence and pupil diameter
// of a recorded log to PNG charts.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/banshee-data/vrtelemetry/internal/plotlog"
	"github.com/banshee-data/vrtelemetry/internal/recorder"
)

func main() {
	logPath := flag.String("log", "", "path to a .drlog file")
	outDir := flag.String("o", ".", "output directory for the PNG files")
	flag.Parse()

	if *logPath == "" {
		log.Fatalf("usage: plot-log -log recording.drlog [-o outdir]")
	}
	l, err := recorder.ReadAll(*logPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *logPath, err)
	}
	if len(l.Skipped) > 0 {
		log.Printf("skipped %d corrupt packets", len(l.Skipped))
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", *outDir, err)
	}

	files, err := plotlog.Render(l, *outDir)
	if err != nil {
		log.Fatalf("Failed to render plots: %v", err)
	}
	for _, f := range files {
		log.Printf("✓ wrote %s", f)
	}
}
