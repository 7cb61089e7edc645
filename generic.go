// package cfprefix ...
package cfprefix

import (
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"paepcke.de/cfprefix/bgpinfo"
)

// const
const (
	_app      = "[cfprefix] "
	_err      = _app + "[error] "
	_inf      = _app + "[info] "
	_linefeed = "\n"
)

var (
	outMu sync.Mutex
	outW  io.Writer = os.Stdout
)

// SetOutput redirects status output of cfprefix and bgpinfo
func SetOutput(w io.Writer) {
	outMu.Lock()
	outW = w
	outMu.Unlock()
	bgpinfo.SetOutput(w)
}

// SetLogFile duplicates status output into a rotating log file
func SetLogFile(name string) io.Closer {
	logFile := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	SetOutput(io.MultiWriter(os.Stdout, logFile))
	return logFile
}

// out ...
func out(msg string) {
	outMu.Lock()
	defer outMu.Unlock()
	outW.Write([]byte(msg + _linefeed))
}

// info ...
func info(msg string) { out(_inf + msg) }

// Fail reports err on the status output
func Fail(err error) { out(_err + err.Error()) }

// pad ...
func pad(in string, l int) string {
	for len(in) < l {
		in = in + " "
	}
	return in
}
