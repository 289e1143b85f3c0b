// Package loom identifies the module.
package loom

// Version is the loom release version.
const Version = "0.1.0"
