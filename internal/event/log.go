package event

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Log is the shared logger for all packages.
var (
	Log *log.Logger
)

// Fields type, used to pass to `WithFields`. Forwarded from logrus library
type Fields = log.Fields

func init() {
	Log = &log.Logger{
		Out:          os.Stderr,
		Formatter:    &log.TextFormatter{DisableColors: false, FullTimestamp: true},
		Hooks:        make(log.LevelHooks),
		Level:        log.InfoLevel,
		ExitFunc:     os.Exit,
		ReportCaller: false,
	}
}

// ConfigureLogging switches between info and debug output.
func ConfigureLogging(debug bool) {
	Log.SetLevel(log.DebugLevel)
	if !debug {
		Log.SetLevel(log.InfoLevel)
	}
}
