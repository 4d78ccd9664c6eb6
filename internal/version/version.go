// Package version provides build information for mapcolor.
package version

// Version is the release version of the mapcolor binaries.
// Override at build time with:
//
//	go build -ldflags "-X github.com/AaronLay10/mapcolor/internal/version.Version=x.y.z"
var Version = "0.1.0"
