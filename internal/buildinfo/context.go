// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

import "fmt"

// Set at link time, e.g.
//
//	go build -ldflags "-X github.com/yongshn220/wooriworship-sub001/internal/buildinfo.Version=v1.4.0"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// Current returns the metadata linked into this binary.
func Current() Context {
	return Context{Version: Version, BuildDate: BuildDate}
}

func (c Context) String() string {
	return fmt.Sprintf("%s (built %s)", c.Version, c.BuildDate)
}
