package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

const (
	FieldApp      = "app"
	FieldCategory = "category"
)

var (
	Log        *logrus.Logger
	AppLog     *logrus.Entry
	MainLog    *logrus.Entry
	CfgLog     *logrus.Entry
	SweepLog   *logrus.Entry
	RunLog     *logrus.Entry
	TrafficLog *logrus.Entry
	PcapLog    *logrus.Entry
)

func init() {
	Log = logrus.New()
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000",
	})

	AppLog = Log.WithField(FieldApp, "FHSWEEP")
	MainLog = AppLog.WithField(FieldCategory, "Main")
	CfgLog = AppLog.WithField(FieldCategory, "CFG")
	SweepLog = AppLog.WithField(FieldCategory, "Sweep")
	RunLog = AppLog.WithField(FieldCategory, "Run")
	TrafficLog = AppLog.WithField(FieldCategory, "Traffic")
	PcapLog = AppLog.WithField(FieldCategory, "Pcap")
}

// SetLogLevel changes the level of the root logger. An unparsable level
// leaves the current one in place.
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		MainLog.Warnf("Log level [%s] is invalid", level)
		return
	}
	if lvl == Log.GetLevel() {
		return
	}
	MainLog.Debugf("Log level is set to [%s]", level)
	Log.SetLevel(lvl)
}
