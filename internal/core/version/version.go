// Package version provides information about the build version of the service.
package version

// BuildInfo holds version information about the service build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. The variables below are set at build time with -ldflags:
//
//	-X 'postlens/internal/core/version.version=v0.3.0'
//	-X 'postlens/internal/core/version.commit=abcd'
//	-X 'postlens/internal/core/version.date=2026-10-01'
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// For returns Info with the binary name filled in
func For(binary string) BuildInfo {
	bi := Info()
	if binary != "" {
		bi.Service = binary
	}
	return bi
}

var (
	service = "postlens"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
