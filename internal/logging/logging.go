package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds the control-plane logger. The audio thread never logs;
// everything routed here comes from the CLI, config and UI layers.
func New(out io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
