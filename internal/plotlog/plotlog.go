// Package plotlog renders time series from a recorded log to PNG charts.
package plotlog

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/vrtelemetry/internal/recorder"
	"github.com/banshee-data/vrtelemetry/internal/telemetry"
)

// Series are the per-frame values plotted against log time in seconds.
type Series struct {
	Speed      plotter.XYs // km/h
	Vergence   plotter.XYs // cm
	LeftPupil  plotter.XYs // mm
	RightPupil plotter.XYs // mm
}

// Extract collects the plotted series from every frame with telemetry.
// Frames without a valid combined gaze contribute no vergence point.
func Extract(l *recorder.Log) Series {
	var s Series
	if len(l.Frames) == 0 {
		return s
	}
	ts := l.Timestamps()
	for i, f := range l.Frames {
		d := f.Data
		if d == nil {
			continue
		}
		t := float64(ts[i]-ts[0]) / 1000
		// cm/s to km/h
		s.Speed = append(s.Speed, plotter.XY{X: t, Y: float64(d.VehicleVelocity()) * 0.036})
		if d.GazeValid(telemetry.Combined) {
			s.Vergence = append(s.Vergence, plotter.XY{X: t, Y: float64(d.Vergence())})
		}
		s.LeftPupil = append(s.LeftPupil, plotter.XY{X: t, Y: float64(d.PupilDiameter(telemetry.Left))})
		s.RightPupil = append(s.RightPupil, plotter.XY{X: t, Y: float64(d.PupilDiameter(telemetry.Right))})
	}
	return s
}

type line struct {
	label string
	pts   plotter.XYs
	color color.Color
}

var (
	blue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	orange = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	green  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

func newPlot(title, yLabel string, lines ...line) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = yLabel

	for _, ln := range lines {
		if len(ln.pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(ln.pts)
		if err != nil {
			return nil, err
		}
		l.Color = ln.color
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(ln.label, l)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// Render writes speed.png, vergence.png and pupil.png into outDir and
// returns their paths.
func Render(l *recorder.Log, outDir string) ([]string, error) {
	s := Extract(l)
	if len(s.Speed) == 0 {
		return nil, fmt.Errorf("%s has no telemetry frames", l.Path)
	}
	name := filepath.Base(l.Path)

	charts := []struct {
		file   string
		title  string
		yLabel string
		lines  []line
	}{
		{"speed.png", name + " - Vehicle Speed", "Speed (km/h)", []line{{"speed", s.Speed, blue}}},
		{"vergence.png", name + " - Gaze Vergence", "Vergence (cm)", []line{{"vergence", s.Vergence, green}}},
		{"pupil.png", name + " - Pupil Diameter", "Diameter (mm)", []line{{"left", s.LeftPupil, blue}, {"right", s.RightPupil, orange}}},
	}

	var out []string
	for _, c := range charts {
		p, err := newPlot(c.title, c.yLabel, c.lines...)
		if err != nil {
			return out, fmt.Errorf("%s: %w", c.file, err)
		}
		path := filepath.Join(outDir, c.file)
		if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
			return out, fmt.Errorf("save %s: %w", c.file, err)
		}
		out = append(out, path)
	}
	return out, nil
}
