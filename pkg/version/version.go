package version

import (
	"fmt"
	"runtime"
)

// Set through -ldflags "-X github.com/dexter939/EvoAcs-sub001/pkg/version.Version=..."
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// Supported protocol revisions reported by health and version endpoints
const (
	CWMPVersion = "1.2"
	USPVersion  = "1.3"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	GitCommit   string `json:"git_commit"`
	BuildDate   string `json:"build_date"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
	CWMPVersion string `json:"cwmp_version"`
	USPVersion  string `json:"usp_version"`
}

// GetBuildInfo returns complete build information
func GetBuildInfo(serviceName string) *BuildInfo {
	return &BuildInfo{
		Service:     serviceName,
		Version:     Version,
		GitCommit:   GitCommit,
		BuildDate:   BuildDate,
		GoVersion:   GoVersion,
		Platform:    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		CWMPVersion: CWMPVersion,
		USPVersion:  USPVersion,
	}
}

// GetShortVersion returns version with commit hash
func GetShortVersion() string {
	if GitCommit != "unknown" && len(GitCommit) > 7 {
		return fmt.Sprintf("%s-%s", Version, GitCommit[:7])
	}
	return Version
}

// GetFullVersion returns a one-line description for -version output
func GetFullVersion(serviceName string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s, cwmp %s, usp %s)",
		serviceName, GetShortVersion(), GitCommit, BuildDate, GoVersion, CWMPVersion, USPVersion)
}
