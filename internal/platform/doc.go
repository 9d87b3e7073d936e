// Package platform identifies where miuitask runs: inside a QingLong panel
// container, inside another Docker container, or directly on an operating
// system (linux, darwin, windows, ...).
package platform
