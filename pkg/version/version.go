// pkg/version/version.go

package version

import "fmt"

// set with -ldflags "-X RaFS/pkg/version.revision=..." at build time
var (
	version      = "0.1-dev"
	revision     = "$Format:%h$"
	revisionDate = "$Format:%as$"
)

// Version returns the version in format - `VERSION (REVISIONDATE REVISION)`
func Version() string {
	return fmt.Sprintf("%v (%v %v)", version, revisionDate, revision)
}
