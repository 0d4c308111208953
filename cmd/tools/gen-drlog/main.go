// Command gen-drlog generates sample .drlog recordings for testing replay,
// optionally damaged to exercise the reader's recovery.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/banshee-data/vrtelemetry/internal/capture"
	"github.com/banshee-data/vrtelemetry/internal/recorder"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

func generate(path string, frames int, dtMs int64) error {
	rec, err := recorder.NewRecorder(path, "sample")
	if err != nil {
		return err
	}
	defer rec.Close()

	vehicle := capture.NewSyntheticVehicle(1389)
	eyes := capture.NewSyntheticEyeTracker(6.4, 500)
	dt := float64(dtMs) / 1000
	for i := 0; i < frames; i++ {
		ts := int64(i) * dtMs
		sample, _ := eyes.Sample(ts)
		frame := telemetry.AggregateData{
			Timestamp:  ts,
			Ego:        vehicle.Ego(),
			EyeTracker: sample,
			Focus:      telemetry.NoHit(),
			Inputs:     vehicle.Inputs(),
		}
		if err := rec.RecordTick(dt, &frame, nil); err != nil {
			return err
		}
		vehicle.Step(dt)
		if (i+1)%100 == 0 {
			log.Printf("%d/%d frames", i+1, frames)
		}
	}
	return rec.Close()
}

// damage overwrites bytes in the middle of the file and cuts its tail.
func damage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mid := len(data) / 2
	for i := mid; i < mid+8 && i < len(data); i++ {
		data[i] = 0xFF
	}
	return os.WriteFile(path, data[:len(data)-7], 0o644)
}

func main() {
	output := flag.String("o", "sample.drlog", "output path")
	frames := flag.Int("n", 300, "number of frames")
	dtMs := flag.Int64("dt", 33, "milliseconds between frames")
	corrupt := flag.Bool("corrupt", false, "damage the log after writing it")
	flag.Parse()

	if err := generate(*output, *frames, *dtMs); err != nil {
		log.Fatalf("Failed to generate %s: %v", *output, err)
	}
	if *corrupt {
		if err := damage(*output); err != nil {
			log.Fatalf("Failed to damage %s: %v", *output, err)
		}
	}
	log.Printf("✓ Created: %s", *output)
}
