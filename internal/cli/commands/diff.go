package commands

import (
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
)

// unifiedDiff returns the unified diff between two versions of path, or ""
// when they are equal.
func unifiedDiff(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	name := filepath.Base(path)
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
}
