package logging

import (
	"fmt"
	"os"
)

// These ease use from command-line tools that expect the standard 'log' API.
// Prefer the explicitly leveled API, e.g. log.Error().

func (log *Logger) Fatal(v ...interface{}) {
	log.Log(Error, 1, "%s", fmt.Sprint(v...))
	os.Exit(1)
}

func (log *Logger) Fatalf(format string, v ...interface{}) {
	log.Log(Error, 1, format, v...)
	os.Exit(1)
}

func (log *Logger) Printf(format string, v ...interface{}) {
	log.Log(Info, 1, format, v...)
}

func (log *Logger) Println(v ...interface{}) {
	log.Log(Info, 1, "%s", fmt.Sprintln(v...))
}
