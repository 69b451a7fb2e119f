// SPDX-License-Identifier: GPL-3.0-or-later

package buildinfo

import (
	"fmt"
	"runtime"
)

// Version stores the engine's version number. It's set during the build process using build flags.
var Version = "v0.0.0"

// VarLibDir stores the default path of the state directory (value store, autochecks, locks).
// This value is set during the build process using build flags.
var VarLibDir = "/var/lib/checkengine"

func Info() string {
	return fmt.Sprintf("version=%s, go=%s, os=%s/%s", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
