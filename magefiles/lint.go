//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/sh"
)

const (
	binLint  = "golangci-lint"
	binGofmt = "gofmt"
)

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Fmt fails when any Go file is not gofmt-clean.
func Fmt() error {
	out, err := sh.Output(binGofmt, "-l", "cmd", "internal", "pkg", "tests", "magefiles")
	if err != nil {
		return err
	}
	if out = strings.TrimSpace(out); out != "" {
		return fmt.Errorf("gofmt needed:\n%s", out)
	}
	return nil
}
