// Package fileutil prepares file paths used by the shim, currently the
// handoff lock file shared between the shim and the real service.
package fileutil
