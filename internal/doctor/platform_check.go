package doctor

import (
	"github.com/thoreinstein/miuitask/internal/paths"
	"github.com/thoreinstein/miuitask/internal/platform"
)

// PlatformCheck reports the detected runtime platform.
type PlatformCheck struct {
	detector *platform.Detector
	loc      paths.Location
}

// Ensure PlatformCheck implements Check interface.
var _ Check = (*PlatformCheck)(nil)

// NewPlatformCheck creates a new platform detection check.
func NewPlatformCheck(d *platform.Detector, loc paths.Location) *PlatformCheck {
	return &PlatformCheck{detector: d, loc: loc}
}

// Name returns the unique identifier for this check.
func (c *PlatformCheck) Name() string {
	return "platform-detection"
}

// Category returns the grouping for this check.
func (c *PlatformCheck) Category() string {
	return "platform"
}

// Run executes the platform detection check and returns its result.
func (c *PlatformCheck) Run() *CheckResult {
	id := c.detector.Detect()
	container := platform.InContainer(id)

	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityInfo,
		Message:  "running on " + id,
		Details: map[string]any{
			"platform":  id,
			"container": container,
		},
	}

	// Container data survives only on a mounted volume.
	if container && !c.loc.Overridden {
		result.FixHint = "mount " + c.loc.DataDir + " as a volume or set " + paths.EnvConfigPath
	}
	return result
}
