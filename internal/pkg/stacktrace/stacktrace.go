// Package stacktrace trims raw goroutine stacks down to frames that belong to
// this module so panic logs stay readable.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries found in a
// stack produced by runtime/debug.Stack, in call order.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.Contains(line, ".go:") {
			continue
		}

		// file lines look like "/src/app/internal/auth/usecase/login.go:42 +0x1d"
		if sp := strings.IndexByte(line, ' '); sp != -1 {
			line = line[:sp]
		}

		idx := strings.Index(line, marker)
		if idx == -1 {
			continue
		}
		paths = append(paths, line[idx+1:])
	}

	return paths
}
