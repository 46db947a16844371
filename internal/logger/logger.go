package logger

import (
	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init sets up the global structured logger.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter switches to plain text logs (development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
