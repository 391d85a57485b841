// Package version records the brickgate release version.
package version

// Version is the brickgate release version. Overridden at build time via
// -ldflags for tagged releases.
var Version = "0.3.0"

// UserAgent returns the User-Agent value sent with every Databricks API
// request, so workspace audit logs can attribute traffic to brickgate.
func UserAgent() string {
	return "brickgate/" + Version
}
