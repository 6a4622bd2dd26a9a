// Package glog binds github.com/golang/glog to the command line of nobus.
// Core packages never log; only the command handlers and the progress
// observer write through here.
package glog

import (
	"flag"
	"strconv"

	"github.com/golang/glog"
)

type Level = glog.Level

var (
	Infoln    = glog.Infoln
	Infof     = glog.Infof
	Warningln = glog.Warningln
	Errorln   = glog.Errorln
	Flush     = glog.Flush
)

func V(level Level) glog.Verbose {
	return glog.V(level)
}

// SetLogOutput writes into dir when it is non-empty, otherwise to stderr.
func SetLogOutput(dir string) {
	if !flag.Parsed() {
		// glog reads its settings from the default flag set
		flag.CommandLine.Parse([]string{})
	}
	if dir != "" {
		flag.Set("log_dir", dir)
		flag.Set("logtostderr", "false")
	} else {
		flag.Set("logtostderr", "true")
	}
}

func SetLogVerbose(level int) {
	flag.Set("v", strconv.Itoa(level))
}
