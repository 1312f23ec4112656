//go:build mage

// Package main provides build targets for the folio project using Mage.
//
// Usage:
//
//	mage build             Compile the folio binary to bin/
//	mage install           Install folio to GOPATH/bin
//	mage clean             Remove build artifacts
//	mage test:all          Run all tests (unit + integration)
//	mage test:unit         Run only unit tests (exclude tests/)
//	mage test:integration  Build, then run the integration tests
//	mage test:cover        Run unit tests with a coverage profile
//	mage lint              Run golangci-lint
//	mage fmt               Check gofmt
//	mage stats             Print Go LOC for production and test code
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "folio"
	binaryDir  = "bin"
	cmdDir     = "./cmd/folio"
	versionVar = "github.com/mesh-intelligence/folio/internal/cli.Version"
)

// ldflags stamps the version from FOLIO_VERSION when it is set.
func ldflags() string {
	v := os.Getenv("FOLIO_VERSION")
	if v == "" {
		return ""
	}
	return "-X " + versionVar + "=" + v
}

// Build compiles the folio binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
