//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert turns ../dataset/originalData/*.pdf into ../dataset/mdData/*.md.
func Convert() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "convert")
}

// Extract appends one dataset line per invoice markdown file.
func Extract() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "extract")
}

// Preview prints the first five records without touching the dataset.
func Preview() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "extract", "--preview")
}

// Lint checks invoiceDataset.jsonl for malformed lines.
func Lint() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "lint")
}
