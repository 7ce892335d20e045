package storyboard

import _ "embed"

// Version is the release version, embedded from the VERSION file.
//
//go:embed VERSION
var Version string
