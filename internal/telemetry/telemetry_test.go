package telemetry

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vrtelemetry/internal/geom"
	"github.com/banshee-data/vrtelemetry/internal/packet"
)

func sampleFrame() AggregateData {
	return AggregateData{
		Timestamp: 1234567,
		Ego: EgoVariables{
			CameraLocation:    geom.Vector3{X: 1, Y: 2, Z: 3},
			CameraRotation:    geom.Rotator{Pitch: 4, Yaw: 5, Roll: 6},
			CameraLocationAbs: geom.Vector3{X: 101, Y: 202, Z: 303},
			CameraRotationAbs: geom.Rotator{Pitch: -4, Yaw: 95, Roll: 0.5},
			VehicleLocation:   geom.Vector3{X: 100, Y: 200, Z: 300},
			VehicleRotation:   geom.Rotator{Yaw: 90},
			VehicleVelocity:   1388.9,
		},
		EyeTracker: EyeTracker{
			TimestampDevice: 987654321,
			FrameSequence:   42,
			Combined: CombinedEyeData{
				EyeData:  EyeData{GazeDir: geom.Vector3{X: 1}, GazeOrigin: geom.Vector3{Z: 0.1}, GazeValid: true},
				Vergence: 3.25,
			},
			Left: SingleEyeData{
				EyeData:            EyeData{GazeDir: geom.Vector3{X: 0.99, Y: 0.01}, GazeOrigin: geom.Vector3{Y: -3.2}, GazeValid: true},
				EyeOpenness:        0.9,
				EyeOpennessValid:   true,
				PupilDiameter:      3.1,
				PupilPosition:      geom.Vector2{X: 0.1, Y: -0.2},
				PupilPositionValid: true,
			},
			Right: SingleEyeData{
				EyeData:          EyeData{GazeDir: geom.Vector3{X: 0.99, Y: -0.01}, GazeOrigin: geom.Vector3{Y: 3.2}},
				EyeOpenness:      0.5,
				EyeOpennessValid: true,
				PupilDiameter:    2.9,
				PupilPosition:    geom.Vector2{X: 0.3, Y: 0.4},
			},
		},
		Focus: FocusInfo{
			ActorName:        "vehicle.tesla.model3",
			HitValid:         true,
			HitPoint:         geom.Vector3{X: 500, Y: 10},
			HitPointRelative: geom.Vector3{X: 400, Y: 10},
			HitNormal:        geom.Vector3{X: -1},
			HitDistance:      400.1,
		},
		Inputs: UserInputs{
			Throttle:       0.7,
			Steering:       -0.25,
			Brake:          0,
			TurnSignalLeft: true,
			HoldHandbrake:  true,
		},
	}
}

func encode(t *testing.T, a *AggregateData) []byte {
	t.Helper()
	var e packet.Encoder
	a.Encode(&e)
	require.NoError(t, e.Err())
	return e.Bytes()
}

func TestAggregateRoundTrip(t *testing.T) {
	special := sampleFrame()
	special.Ego.VehicleVelocity = float32(math.Inf(1))
	special.Timestamp = -1

	frames := map[string]AggregateData{
		"zero":    {},
		"no hit":  {Focus: NoHit()},
		"sample":  sampleFrame(),
		"special": special,
	}

	for name, in := range frames {
		t.Run(name, func(t *testing.T) {
			b := encode(t, &in)

			var out AggregateData
			d := packet.NewDecoder(b)
			out.Decode(d)
			require.NoError(t, d.Err())
			assert.Equal(t, 0, d.Remaining())

			if diff := cmp.Diff(in, out); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAggregateWireSize(t *testing.T) {
	f := sampleFrame()
	b := encode(t, &f)
	assert.Equal(t, 274+len(f.Focus.ActorName), len(b))
}

func TestAggregateFieldOrder(t *testing.T) {
	f := sampleFrame()
	b := encode(t, &f)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }

	assert.Equal(t, int64(1234567), int64(binary.LittleEndian.Uint64(b[0:])))
	// Ego follows the timestamp.
	assert.Equal(t, float32(1), f32(8))
	assert.Equal(t, float32(1388.9), f32(8+72))
	// Eye tracker follows ego: device timestamp, sequence, combined gaze.
	assert.Equal(t, int64(987654321), int64(binary.LittleEndian.Uint64(b[84:])))
	assert.Equal(t, int64(42), int64(binary.LittleEndian.Uint64(b[92:])))
	assert.Equal(t, float32(1), f32(100))
	// Combined vergence sits after the base eye fields.
	assert.Equal(t, float32(3.25), f32(100+25))
	// Left eye: base fields, openness, openness valid, diameter.
	left := 100 + 29
	assert.Equal(t, float32(0.9), f32(left+25))
	assert.Equal(t, byte(1), b[left+29])
	assert.Equal(t, float32(3.1), f32(left+30))
	// Focus name follows the eye tracker.
	focus := 84 + 131
	assert.Equal(t, uint16(len(f.Focus.ActorName)), binary.LittleEndian.Uint16(b[focus:]))
	assert.Equal(t, f.Focus.ActorName, string(b[focus+2:focus+2+len(f.Focus.ActorName)]))
	// Inputs close the frame.
	assert.Equal(t, []byte{0, 1, 0, 1}, b[len(b)-4:])
}

func TestAggregatePacketStream(t *testing.T) {
	frames := []AggregateData{sampleFrame(), {Timestamp: 33, Focus: NoHit()}}
	b, err := packet.Encode[AggregateData](packet.TagAggregate, frames)
	require.NoError(t, err)

	h := packet.Header{Tag: packet.Tag(b[0]), Length: binary.LittleEndian.Uint32(b[1:])}
	assert.Equal(t, packet.TagAggregate, h.Tag)
	got, err := packet.Decode[AggregateData](h.Tag, b[packet.HeaderSize:])
	require.NoError(t, err)
	assert.Equal(t, frames, got)
}

func TestStringIsDiagnosticOnly(t *testing.T) {
	f := sampleFrame()
	before := encode(t, &f)
	s1 := f.String()
	s2 := f.String()
	assert.Equal(t, s1, s2)
	assert.Contains(t, s1, "TimestampCarla:1234567")
	assert.Contains(t, s1, `Actor:"vehicle.tesla.model3"`)
	assert.Equal(t, before, encode(t, &f))
}

func TestGetters(t *testing.T) {
	f := sampleFrame()

	assert.Equal(t, f.EyeTracker.Left.GazeDir, f.GazeDir(Left))
	assert.Equal(t, f.EyeTracker.Right.GazeOrigin, f.GazeOrigin(Right))
	assert.Equal(t, f.EyeTracker.Combined.GazeDir, f.GazeDir(Combined))
	assert.False(t, f.GazeValid(Right))

	// Unknown selectors fall back to the combined sample.
	assert.Equal(t, f.EyeTracker.Combined.GazeDir, f.GazeDir(Eye(99)))
	assert.Equal(t, f.EyeTracker.Combined.GazeOrigin, f.GazeOrigin(Eye(-1)))
	assert.True(t, f.GazeValid(Eye(7)))

	assert.Equal(t, float32(0.9), f.EyeOpenness(Left))
	assert.Equal(t, float32(0.5), f.EyeOpenness(Right))
	assert.InDelta(t, 0.7, f.EyeOpenness(Combined), 1e-6)
	assert.InDelta(t, 3.0, f.PupilDiameter(Eye(12)), 1e-6)
	assert.True(t, f.EyeOpennessValid(Combined))
	assert.False(t, f.PupilPositionValid(Combined))
	assert.Equal(t, geom.Vector2{X: 0.2, Y: 0.1}, roundVec2(f.PupilPosition(Combined)))

	assert.Equal(t, float32(3.25), f.Vergence())
	assert.Equal(t, f.Ego.VehicleLocation, f.VehicleLocation())
	assert.Equal(t, f.Ego.CameraRotationAbs, f.CameraRotationAbs())
}

func roundVec2(v geom.Vector2) geom.Vector2 {
	r := func(x float32) float32 { return float32(math.Round(float64(x)*1000) / 1000) }
	return geom.Vector2{X: r(v.X), Y: r(v.Y)}
}

func TestFlattenJSON(t *testing.T) {
	f := sampleFrame()
	b, err := json.Marshal(f.Flatten())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, float64(1234567), m["timestamp_ms"])
	assert.Equal(t, "vehicle.tesla.model3", m["focus_actor"])
	assert.Equal(t, true, m["handbrake"])
	assert.Len(t, m["vehicle_location"], 3)
}

func TestInterpolate(t *testing.T) {
	a := sampleFrame()
	b := sampleFrame()
	b.Timestamp += 33
	b.Ego.VehicleLocation = geom.Vector3{X: 200, Y: 400, Z: 300}
	b.Ego.VehicleRotation = geom.Rotator{Yaw: 180}
	b.Ego.CameraLocationAbs = geom.Vector3{X: 0.3}
	b.EyeTracker.Combined.GazeValid = false
	b.Inputs.Throttle = 0.1
	b.Focus = NoHit()

	t.Run("zero fraction is the older pose exactly", func(t *testing.T) {
		got := Interpolate(&a, &b, 0)
		assert.Equal(t, a.Ego.VehicleLocation, got.Ego.VehicleLocation)
		assert.Equal(t, a.Ego.VehicleRotation, got.Ego.VehicleRotation)
		assert.Equal(t, a.Ego.CameraLocationAbs, got.Ego.CameraLocationAbs)
		// Non-pose fields still come from the newer frame.
		assert.Equal(t, b.Timestamp, got.Timestamp)
		assert.Equal(t, b.Inputs, got.Inputs)
		assert.Equal(t, b.Focus, got.Focus)
	})

	t.Run("unit fraction is the newer pose", func(t *testing.T) {
		got := Interpolate(&a, &b, 1)
		assert.Equal(t, b.Ego, got.Ego)
	})

	t.Run("midpoint", func(t *testing.T) {
		got := Interpolate(&a, &b, 0.5)
		assert.Equal(t, geom.Vector3{X: 150, Y: 300, Z: 300}, got.Ego.VehicleLocation)
		assert.Equal(t, float32(135), got.Ego.VehicleRotation.Yaw)
		assert.False(t, got.GazeValid(Combined))
		assert.Equal(t, float32(0.1), got.Inputs.Throttle)
		assert.Equal(t, NoFocus, got.Focus.ActorName)
		assert.Equal(t, b.Ego.VehicleVelocity, got.Ego.VehicleVelocity)
	})

	t.Run("inputs untouched", func(t *testing.T) {
		before := a
		_ = Interpolate(&a, &b, 0.3)
		assert.Equal(t, before, a)
	})
}
