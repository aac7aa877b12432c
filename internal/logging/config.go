package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

const envVar = "LOGLEVEL"

type tagLevel struct {
	tag   string
	level Level
}

var (
	tagLevels []tagLevel

	// Every logger derived via WithTag, so SetLevel can reach them.
	derivedMu sync.Mutex
	derived   []*Logger
)

func init() {
	// Parse environment variable into comma-separated "tag=level" directives.
	// If "tag=" is absent, use the level as the default.
	for _, d := range strings.Split(os.Getenv(envVar), ",") {
		if d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		levelString := v[len(v)-1]
		if level, err := ParseLevel(levelString); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid %s directive '%s': %s\n", envVar, d, err)
		} else {
			if len(v) == 1 {
				defaultLevel = level
			} else {
				tagLevels = append(tagLevels, tagLevel{v[0], level})
			}
		}
	}

	DefaultLogger.Level = defaultLevel
}

func determineLevel(tag string, fallback Level) Level {
	for _, e := range tagLevels {
		if e.tag == tag {
			return e.level
		}
	}
	return fallback
}

func hasDirective(tag string) bool {
	for _, e := range tagLevels {
		if e.tag == tag {
			return true
		}
	}
	return false
}

// SetLevel changes the default level of DefaultLogger and every tagged logger
// derived from it. Tags with an explicit LOGLEVEL directive keep their level.
// Call it during startup, before loggers are used concurrently.
func SetLevel(level Level) {
	defaultLevel = level
	DefaultLogger.Level = level

	derivedMu.Lock()
	defer derivedMu.Unlock()
	for _, l := range derived {
		if !hasDirective(l.Tag) {
			l.Level = level
		}
	}
}

func remember(l *Logger) *Logger {
	derivedMu.Lock()
	derived = append(derived, l)
	derivedMu.Unlock()
	return l
}
