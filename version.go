package main

import (
	"fmt"
	"runtime"
)

const (
	app_name           = "nobus"
	project_url        = "https://github.com/Lafeng/nobus"
	ver_major   uint8  = 0
	ver_minor   uint8  = 3
	ver_build   uint16 = 412
)

var build_flag string // -ldflags "-X main.build_flag=-beta"

func versionNumber() string {
	return fmt.Sprintf("v%d.%d.%04d%s", ver_major, ver_minor, ver_build, build_flag)
}

func versionString() string {
	return fmt.Sprintf("%s version: %s", app_name, versionNumber())
}

func builtWith() string {
	return fmt.Sprintf("%s project: <%s>\nBuilt with %s %s for %s/%s",
		app_name, project_url, runtime.Compiler, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
