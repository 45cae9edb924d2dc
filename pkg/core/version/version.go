// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     version
// Description: Build and release information for beanval binaries
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version is the released version of the engine.
const Version = "1.0.0"

// Set at build time:
//
//	go build -ldflags "-X github.com/msto63/beanval/pkg/core/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	GitCommit = "development"
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a one-line summary.
func (i Info) String() string {
	return fmt.Sprintf("beanval v%s (%s, %s)", i.Version, i.GitCommit, i.Platform)
}
