package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFramesAllThreeForms(t *testing.T) {
	stack := "Error: boom\n" +
		"    at doThing (/app/scenario.go:12:5)\n" +
		"    at (/app/runner.go:40:1)\n" +
		"    at /app/main.go:1:1\n" +
		"    some non-frame line\n"

	frames := ParseFrames(stack)
	require.Len(t, frames, 3)
	assert.Equal(t, Frame{Func: "doThing", File: "/app/scenario.go", Line: 12, Col: 5}, frames[0])
	assert.Equal(t, Frame{File: "/app/runner.go", Line: 40, Col: 1}, frames[1])
	assert.Equal(t, Frame{File: "/app/main.go", Line: 1, Col: 1}, frames[2])
}

func TestUserFrameExcludesNonUserFrames(t *testing.T) {
	frames := []Frame{
		{File: "unknown"},
		{File: "<anonymous>"},
		{File: "/app/node_modules/pkg/index.js", Line: 1, Col: 1},
		{File: "native:foo"},
		{File: "/app/internal/core/engine.go", Line: 3, Col: 2},
		{File: "/app/scenario_test.go", Line: 10, Col: 1},
	}

	f, ok := UserFrame(frames, "/app/internal/core/")
	require.True(t, ok)
	assert.Equal(t, "/app/scenario_test.go", f.File)
}

func TestUserFrameNoneFound(t *testing.T) {
	frames := []Frame{{File: "unknown"}, {File: "native:foo"}}
	_, ok := UserFrame(frames, "")
	assert.False(t, ok)
}

func TestRenderContextReadsSourceWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.go")
	content := "line1\nline2\nline3\nline4\nline5\nline6\nline7\nline8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ctx := RenderContext(Frame{File: path, Line: 8, Col: 3})
	assert.Contains(t, ctx, "8 | line8")
	assert.Contains(t, ctx, "3 | line3")
	assert.NotContains(t, ctx, "line2")
	assert.Contains(t, ctx, "^")
}

func TestRenderContextMissingFileReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", RenderContext(Frame{File: "/does/not/exist.go", Line: 1, Col: 1}))
}

func TestRenderTraceFallsBackToRawStackWhenUnparseable(t *testing.T) {
	stack := "totally unstructured text\nwith no frames at all"
	assert.Equal(t, stack, RenderTrace(stack, ""))
}

func TestRenderTraceListsFrames(t *testing.T) {
	stack := "    at doThing (/app/scenario.go:99999:1)\n    at main (/app/main.go:1:1)\n"
	out := RenderTrace(stack, "")
	assert.Contains(t, out, "at doThing /app/scenario.go:99999:1")
	assert.Contains(t, out, "at main /app/main.go:1:1")
}
