// Package keyscope provides the version information for keyscope.
package keyscope

// Version is the current version of keyscope.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
