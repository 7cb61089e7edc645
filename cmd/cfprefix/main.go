// package main ...
package main

// import ...
import (
	"context"
	"io"
	"os"
	"syscall"
	"time"

	"paepcke.de/cfprefix"
)

// const shortcuts
const (
	// DEFAULTS  [convinient build time defaults]
	_APPNAME = "CFPREFIX"
	_TIMEOUT = 30 * time.Second

	// ENV VAR NAMES
	_ENV_TERM      = _APPNAME + "_TERM"
	_ENV_OUT4      = _APPNAME + "_OUT4"
	_ENV_OUT6      = _APPNAME + "_OUT6"
	_ENV_URL       = _APPNAME + "_URL"
	_ENV_AGENT     = _APPNAME + "_AGENT"
	_ENV_AGGREGATE = _APPNAME + "_AGGREGATE"
	_ENV_ZSTD      = _APPNAME + "_ZSTD"
	_ENV_LOGFILE   = _APPNAME + "_LOGFILE"
)

// main ..
func main() {
	// syntax exit
	if len(os.Args) > 1 {
		syntax()
		os.Exit(1)
	}

	// log file
	var logFile io.Closer
	if file, ok := syscall.Getenv(_ENV_LOGFILE); ok {
		logFile = cfprefix.SetLogFile(file)
	}

	// run
	_, err := cfprefix.Generate(context.Background(), options())
	if err != nil {
		cfprefix.Fail(err)
	}
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		os.Exit(1)
	}
	out("update cf ip success!")
}

// options reads the env, unset values fall back to the library defaults
func options() cfprefix.Options {
	return cfprefix.Options{
		Term:      getEnv(_ENV_TERM),
		FileV4:    getEnv(_ENV_OUT4),
		FileV6:    getEnv(_ENV_OUT6),
		URL:       getEnv(_ENV_URL),
		UserAgent: getEnv(_ENV_AGENT),
		Timeout:   _TIMEOUT,
		Aggregate: isEnv(_ENV_AGGREGATE),
		Zstd:      isEnv(_ENV_ZSTD),
	}
}

// syntax ...
func syntax() {
	out("syntax : cfprefix [no arguments, configure via env]")
	out("writes the prefixes of all autonomous systems found for the search term")
	out("")
	out("env vars")
	out(_ENV_TERM + " [search term, default: " + cfprefix.DefaultTerm + "]")
	out(_ENV_OUT4 + " [ipv4 list, default: " + cfprefix.DefaultFileV4 + "]")
	out(_ENV_OUT6 + " [ipv6 list, default: " + cfprefix.DefaultFileV6 + "]")
	out(_ENV_URL + " [site url]")
	out(_ENV_AGENT + " [user agent]")
	out(_ENV_AGGREGATE + " [merge adjacent prefixes]")
	out(_ENV_ZSTD + " [add .zst copies]")
	out(_ENV_LOGFILE + " [duplicate output into a rotating log file]")
	out("HTTPS_PROXY, SSL_CERT_[FILE|DIR]")
}

//
// LITTLE GENERIC HELPER SECTION
//

// out ...
func out(msg string) {
	os.Stdout.Write([]byte(msg + "\n"))
}

// getEnv ...
func getEnv(name string) string {
	v, _ := syscall.Getenv(name)
	return v
}

// isEnv ...
func isEnv(name string) bool {
	_, ok := syscall.Getenv(name)
	return ok
}
