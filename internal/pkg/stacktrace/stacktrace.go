// Package stacktrace trims goroutine stacks down to the frames that belong to
// this module so panic logs stay readable.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const (
	marker    = "/internal/"
	maxFrames = 64
)

// Frame is a single call site in "internal/<pkg>/<file>.go:<line>" form.
type Frame string

// Capture walks the calling goroutine's stack, skipping skip frames above the
// caller, and returns the module frames. It falls back to every frame when
// none of them live under internal/.
func Capture(skip int) []Frame {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var all, own []Frame
	for {
		f, more := frames.Next()
		if f.File != "" {
			site := Frame(f.File + ":" + strconv.Itoa(f.Line))
			all = append(all, site)
			if i := strings.Index(f.File, marker); i >= 0 {
				own = append(own, Frame(f.File[i+1:]+":"+strconv.Itoa(f.Line)))
			}
		}
		if !more {
			break
		}
	}

	if len(own) == 0 {
		return all
	}
	return own
}

// InternalPaths extracts module frames from a textual stack such as the one
// produced by runtime/debug.Stack.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		i := strings.Index(line, marker)
		if i < 0 || !strings.Contains(line, ".go:") {
			continue
		}
		site, _, _ := strings.Cut(line[i+1:], " ")
		paths = append(paths, site)
	}
	return paths
}
