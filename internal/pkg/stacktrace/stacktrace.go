// Package stacktrace trims goroutine stacks down to frames of this module.
package stacktrace

import "strings"

// InternalPaths returns the file:line locations under internal/ found in a
// stack produced by runtime/debug.Stack.
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		loc := line[idx+1:]
		if sp := strings.IndexByte(loc, ' '); sp != -1 {
			loc = loc[:sp]
		}
		paths = append(paths, loc)
	}

	return paths
}
