package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.FrameRecorded()
	s.FrameRecorded()
	s.FrameReplayed()
	s.ActorSpawned()
	s.PacketSkipped("Aggregate")
	s.PacketSkipped("Aggregate")
	s.PacketSkipped("Tag(99)")
	s.CommandRejected("seek")
	s.SetTimeFactor(1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.framesRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.framesReplayed))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.actorsSpawned))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.packetsSkipped.WithLabelValues("Aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.packetsSkipped.WithLabelValues("Tag(99)")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.commandsRejected.WithLabelValues("seek")))
	assert.Equal(t, 1.5, testutil.ToFloat64(s.timeFactor))
}

func TestNilStatsIsSafe(t *testing.T) {
	var s *Stats
	assert.NotPanics(t, func() {
		s.FrameRecorded()
		s.FrameReplayed()
		s.ActorSpawned()
		s.PacketSkipped("x")
		s.CommandRejected("x")
		s.SetTimeFactor(2)
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetMetrics(t *testing.T) {
	original := Metrics()
	defer SetMetrics(original)

	s := NewStats()
	SetMetrics(s)
	Metrics().ActorSpawned()
	assert.Equal(t, 1.0, testutil.ToFloat64(s.actorsSpawned))

	SetMetrics(nil)
	assert.NotPanics(t, func() { Metrics().ActorSpawned() })
}

func TestStatsHandler(t *testing.T) {
	s := NewStats()
	s.FrameReplayed()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "drt_frames_replayed_total 1"))

	// Vectors without children are not gathered.
	n, err := testutil.GatherAndCount(s.Registry())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
