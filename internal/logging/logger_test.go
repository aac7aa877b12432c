package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"error": Error,
		"W":     Warn,
		"info":  Info,
		"D":     Debug,
		"trace": MaxLevel,
		"5":     Level(5),
	} {
		got, err := ParseLevel(s)
		assert.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
	_, err = ParseLevel("12")
	assert.Error(t, err)
}

func TestLogFiltersByLevel(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	log := &Logger{Info, "test", &out, DefaultLogger.mu}

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Warn("warned")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], "I/test[logger_test.go:")
		assert.True(t, strings.HasSuffix(lines[0], "shown 2"))
		assert.Contains(t, lines[1], "W/test")
	}
}

func TestSetLevelReachesDerivedLoggers(t *testing.T) {
	saved := DefaultLogger.Level
	defer SetLevel(saved)

	l := DefaultLogger.WithTag("derived-test")
	SetLevel(Debug)
	assert.Equal(t, Debug, l.Level)
	SetLevel(Error)
	assert.Equal(t, Error, l.Level)
}
