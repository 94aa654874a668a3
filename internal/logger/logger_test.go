package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	SetLevel("info")
	Debugf("hidden %d", 1)
	Infof("shown %d", 2)
	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "shown 2")

	buf.Reset()
	SetLevel("debug")
	Debugf("now visible")
	assert.Contains(t, buf.String(), "now visible")

	// Unknown levels fall back to info.
	buf.Reset()
	SetLevel("chatty")
	Debugf("suppressed again")
	Warnf("warned")
	out = buf.String()
	assert.NotContains(t, out, "suppressed again")
	assert.Contains(t, out, "warned")
}
