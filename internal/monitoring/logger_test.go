package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("test message")
	assert.True(t, called)

	called = false
	SetLogger(nil)
	assert.NotPanics(t, func() { Logf("test %d", 1) })
	assert.False(t, called, "no-op logger should not call the previous hook")
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf)
	assert.NotPanics(t, func() { Logf("test message: %s", "value") })
}

func TestCaptureLogs(t *testing.T) {
	original := Logf
	c, restore := CaptureLogs()

	Logf("[Replay] seek to %dms", 500)
	Logf("[Recorder] closed")
	assert.Equal(t, []string{"[Replay] seek to 500ms", "[Recorder] closed"}, c.Lines())
	assert.True(t, c.Contains("seek to"))
	assert.False(t, c.Contains("[Session]"))

	restore()
	Logf("after restore")
	assert.Len(t, c.Lines(), 2)
	assert.NotNil(t, original)
}
