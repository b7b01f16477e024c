// Package misc keeps build time information.
package misc

// Set with -ldflags "-X fmfc/misc.version=... -X fmfc/misc.githash=...".
var (
	version = "dev"
	githash = "unknown"
	appname = "fmfc"
)

// GetVersion returns version of the program.
func GetVersion() string {
	return version
}

// GetGitHash returns commit hash the program was built from.
func GetGitHash() string {
	return githash
}

// GetAppName returns name of the program used for logs, reports and temporary files.
func GetAppName() string {
	return appname
}
