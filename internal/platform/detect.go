package platform

import (
	"os"
	"runtime"
	"sync"
)

// Platform identifiers returned by Detect in addition to runtime.GOOS values.
const (
	// QingLong is a Docker container run by the QingLong task panel.
	QingLong = "qinglong"
	// Docker is any other Docker container.
	Docker = "docker"
)

// DockerMarker is the file Docker creates at the root of every container.
const DockerMarker = "/.dockerenv"

// Detector identifies the runtime platform. The zero value is not usable;
// use NewDetector or set every field.
type Detector struct {
	// MarkerPath is checked for existence to recognize a container.
	MarkerPath string
	// Getenv looks up environment variables.
	Getenv func(string) string
	// GOOS is returned, lowercased by construction, outside containers.
	GOOS string
}

// NewDetector returns a Detector reading the real filesystem and environment.
func NewDetector() *Detector {
	return &Detector{
		MarkerPath: DockerMarker,
		Getenv:     os.Getenv,
		GOOS:       runtime.GOOS,
	}
}

// Detect returns "qinglong" when the container marker exists and both QL_DIR
// and QL_BRANCH are non-empty, "docker" when only the marker exists, and the
// operating system name otherwise.
func (d *Detector) Detect() string {
	if _, err := os.Stat(d.MarkerPath); err == nil {
		if d.Getenv("QL_DIR") != "" && d.Getenv("QL_BRANCH") != "" {
			return QingLong
		}
		return Docker
	}
	return d.GOOS
}

var (
	currentOnce sync.Once
	current     string
)

// Current returns the platform of this process. It is detected on first use
// and cached for the lifetime of the process.
func Current() string {
	currentOnce.Do(func() {
		current = NewDetector().Detect()
	})
	return current
}

// InContainer reports whether the identifier names a container platform.
func InContainer(id string) bool {
	return id == QingLong || id == Docker
}
