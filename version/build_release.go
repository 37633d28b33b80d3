//go:build !debug

package version

const BuildType = "release"
