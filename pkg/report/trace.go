package report

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Frame is one parsed stack frame (spec §4.9).
type Frame struct {
	Func string
	File string
	Line int
	Col  int
}

var (
	// "at funcName (file:line:col)"
	frameWithFunc = regexp.MustCompile(`^\s*at\s+(?:async\s+)?([^\s(]+)\s+\(([^()]+):(\d+):(\d+)\)\s*$`)
	// "at (file:line:col)"
	frameParensOnly = regexp.MustCompile(`^\s*at\s+(?:async\s+)?\(([^()]+):(\d+):(\d+)\)\s*$`)
	// "at file:line:col"
	frameBare = regexp.MustCompile(`^\s*at\s+(?:async\s+)?([^\s()]+):(\d+):(\d+)\s*$`)
)

// ParseFrames parses every recognizable frame line out of a raw stack
// string, ignoring snippet code lines, carets, diff output, and blank lines
// — anything not matching one of the three accepted forms (spec §4.9 step
// 1).
func ParseFrames(stack string) []Frame {
	var frames []Frame
	for _, line := range strings.Split(stack, "\n") {
		if m := frameWithFunc.FindStringSubmatch(line); m != nil {
			frames = append(frames, Frame{Func: m[1], File: m[2], Line: atoi(m[3]), Col: atoi(m[4])})
			continue
		}
		if m := frameParensOnly.FindStringSubmatch(line); m != nil {
			frames = append(frames, Frame{File: m[1], Line: atoi(m[2]), Col: atoi(m[3])})
			continue
		}
		if m := frameBare.FindStringSubmatch(line); m != nil {
			frames = append(frames, Frame{File: m[1], Line: atoi(m[2]), Col: atoi(m[3])})
			continue
		}
	}
	return frames
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// UserFrame selects the first frame that looks like it belongs to the
// scenario author's own code rather than a library or the runtime (spec
// §4.9 step 2). corePrefix, when non-empty, excludes workspace-relative
// paths under this module's own source tree (generalizing the original's
// "ts/..." marker).
func UserFrame(frames []Frame, corePrefix string) (Frame, bool) {
	for _, f := range frames {
		if f.File == "unknown" {
			continue
		}
		if strings.HasPrefix(f.File, "<") {
			continue
		}
		if strings.Contains(f.File, "/node_modules/") {
			continue
		}
		if strings.HasPrefix(f.File, "native:") {
			continue
		}
		if corePrefix != "" && strings.HasPrefix(f.File, corePrefix) {
			continue
		}
		return f, true
	}
	return Frame{}, false
}

// maxContextLines is the window of source rendered around a user frame
// (spec §4.9 step 3: "up to 6 lines of context ending at the frame's
// line").
const maxContextLines = 6

// RenderContext renders up to maxContextLines of source ending at frame's
// line, with a caret under the target column, gutter-aligned line numbers.
// Returns "" if the file cannot be read.
func RenderContext(frame Frame) string {
	lines, err := readLines(frame.File)
	if err != nil || frame.Line <= 0 || frame.Line > len(lines) {
		return ""
	}

	start := frame.Line - maxContextLines + 1
	if start < 1 {
		start = 1
	}

	gutter := len(strconv.Itoa(frame.Line))

	var b strings.Builder
	for n := start; n <= frame.Line; n++ {
		fmt.Fprintf(&b, "%*d | %s\n", gutter, n, lines[n-1])
		if n == frame.Line && frame.Col > 0 {
			fmt.Fprintf(&b, "%s | %s^\n", strings.Repeat(" ", gutter), strings.Repeat(" ", frame.Col-1))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// RenderTrace renders a raw stack into the full trace block of spec §4.9:
// optional source context around the first user frame, then every frame as
// "at [funcName ]file:line:col".
func RenderTrace(stack string, corePrefix string) string {
	frames := ParseFrames(stack)
	if len(frames) == 0 {
		return stack
	}

	var b strings.Builder
	if userFrame, ok := UserFrame(frames, corePrefix); ok {
		if ctx := RenderContext(userFrame); ctx != "" {
			b.WriteString(ctx)
			b.WriteString("\n\n")
		}
	}

	for _, f := range frames {
		if f.Func != "" {
			fmt.Fprintf(&b, "at %s %s:%d:%d\n", f.Func, f.File, f.Line, f.Col)
		} else {
			fmt.Fprintf(&b, "at %s:%d:%d\n", f.File, f.Line, f.Col)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
