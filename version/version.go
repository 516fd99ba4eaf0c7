// Package version carries build identification, overridable at link time:
//
//	go build -ldflags "-X github.com/TFMV/mimic/version.Version=0.2.0"
package version

// Version is the release version.
var Version = "0.1.0"

// BuildDate is the date of the build.
var BuildDate = "2025-08-24"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}
