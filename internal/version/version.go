// Package version: build metadata, set with -ldflags "-X market-map/internal/version.Commit=...".
package version

var Commit = "dev"
