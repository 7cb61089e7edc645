// package bgpinfo ...
package bgpinfo

import (
	"io"
	"os"
	"sync"
)

// const
const (
	_app      = "[bgpinfo] "
	_inf      = _app + "[info] "
	_linefeed = "\n"
)

var (
	outMu sync.Mutex
	outW  io.Writer = os.Stdout
)

// SetOutput redirects status output [default: stdout]
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	outW = w
}

// out ...
func out(msg string) {
	outMu.Lock()
	defer outMu.Unlock()
	outW.Write([]byte(msg + _linefeed))
}

// info ...
func info(msg string) { out(_inf + msg) }
