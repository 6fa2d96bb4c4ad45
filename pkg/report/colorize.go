package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	fenceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// fenceOpen matches a fence-opening line — "```" plus an optional language
// tag, and nothing else — the same shape renderCommand/renderAction/
// renderLabeledText always emit.
var fenceOpen = regexp.MustCompile("^```([A-Za-z0-9_-]*)$")

// stdinPlaceholder matches one line renderPlaceholderMarkdown substituted
// for a heredoc stdin body line (spec.md:229(b): "heredoc stdin blocks are
// highlighted separately by their declared language and spliced into the
// output using opaque placeholder tokens to preserve line correspondence").
// \x00 never appears in rendered Markdown, so this can't collide with
// anything a scenario author writes into stdin, stdout, or an error message.
var stdinPlaceholder = regexp.MustCompile("\x00KESTSTDIN:(\\d+):(\\d+)\x00")

// stdinBlock is one heredoc stdin body pulled out of the document during
// renderPlaceholderMarkdown, keyed by a small integer id so spliceStdinBlocks
// can find it again once colorizeText has finished with the rest of the
// document.
type stdinBlock struct {
	language string
	lines    []string
}

// Colorize renders r as ANSI-highlighted Markdown (spec §4.8's "Optional
// ANSI colorization", spec.md:229). Three things happen:
//
//   - (a) the whole document is annotated line-by-line: headings and status
//     glyphs get lipgloss styling, fenced code gets chroma highlighting by
//     the fence's declared language.
//   - (b) heredoc stdin bodies are pulled out behind opaque placeholder
//     tokens before (a) runs, highlighted separately by their own declared
//     language, and spliced back in afterward — so a YAML stdin block
//     embedded in a `shell` fence highlights as YAML, independently of the
//     shell highlighting around it.
//   - (c) trace blocks are left as raw text in both renderings — see
//     DESIGN.md's "trace rendering vs. the round-trip law" for why.
//
// Every annotation is guarded against the underlying text changing, so the
// round-trip law (spec §8: "ANSI-stripping the ANSI-highlighted report
// yields the plain-text report byte-for-byte") holds structurally rather
// than depending on any one highlighter behaving.
func Colorize(r *Report) string {
	placeholderText, blocks := renderPlaceholderMarkdown(r)
	colorized := colorizeText(placeholderText)
	return spliceStdinBlocks(colorized, blocks)
}

// renderPlaceholderMarkdown renders r exactly like RenderMarkdown, except
// every heredoc stdin body is replaced line-for-line with an opaque
// placeholder token. The returned blocks map lets spliceStdinBlocks recover
// each body's original text and declared language afterward.
func renderPlaceholderMarkdown(r *Report) (string, map[string]stdinBlock) {
	blocks := make(map[string]stdinBlock)
	nextID := 0

	stdinText := func(t *Text) string {
		nextID++
		key := strconv.Itoa(nextID)
		lines := strings.Split(strings.TrimRight(t.Value, "\n"), "\n")
		blocks[key] = stdinBlock{language: t.Language, lines: lines}

		placeholderLines := make([]string, len(lines))
		for i := range lines {
			placeholderLines[i] = fmt.Sprintf("\x00KESTSTDIN:%s:%d\x00", key, i)
		}
		return strings.Join(placeholderLines, "\n")
	}

	var b strings.Builder
	renderReport(&b, r, stdinText)
	return b.String(), blocks
}

func colorizeText(plain string) string {
	lines := strings.Split(plain, "\n")

	inFence := false
	fenceLang := ""
	for i, line := range lines {
		switch {
		case stdinPlaceholder.MatchString(line):
			// Left alone: spliceStdinBlocks highlights this line by its own
			// stdin language once the rest of the document is done.
		case inFence && line == "```":
			inFence = false
			fenceLang = ""
			lines[i] = guard(line, fenceStyle.Render(line))
		case fenceOpen.MatchString(line):
			fenceLang = fenceOpen.FindStringSubmatch(line)[1]
			inFence = true
			lines[i] = guard(line, fenceStyle.Render(line))
		case inFence:
			lines[i] = guard(line, highlightLine(line, fenceLang))
		case strings.HasPrefix(line, "#"):
			lines[i] = guard(line, headingStyle.Render(line))
		default:
			lines[i] = guard(line, colorizeGlyphs(line))
		}
	}

	return strings.Join(lines, "\n")
}

// spliceStdinBlocks replaces each placeholder line colorizeText left behind
// with its original stdin line, highlighted by that stdin block's own
// declared language rather than the surrounding fence's — the splice
// spec.md:229(b) calls for.
func spliceStdinBlocks(colorized string, blocks map[string]stdinBlock) string {
	lines := strings.Split(colorized, "\n")
	for i, line := range lines {
		m := stdinPlaceholder.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		block, ok := blocks[m[1]]
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil || idx < 0 || idx >= len(block.lines) {
			continue
		}

		original := block.lines[idx]
		lines[i] = guard(original, highlightLine(original, block.language))
	}
	return strings.Join(lines, "\n")
}

// guard only accepts highlighted in place of plain when stripping its ANSI
// codes reproduces plain exactly, so a lexer or style quirk can never make
// Colorize's output diverge from RenderMarkdown's in anything but escape
// codes.
func guard(plain, highlighted string) string {
	if stripANSI(highlighted) != plain {
		return plain
	}
	return highlighted
}

// highlightLine runs one line through chroma using language. Falls back to
// the plain line if the language is unrecognized or highlighting fails — a
// missing third-party lexer must never corrupt the report.
func highlightLine(line, language string) string {
	if line == "" {
		return line
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimRight(buf.String(), "\n")
}

// colorizeGlyphs wraps each status emoji occurrence in line with its status
// color, leaving every other character untouched.
func colorizeGlyphs(line string) string {
	line = strings.ReplaceAll(line, "✅", successStyle.Render("✅"))
	line = strings.ReplaceAll(line, "❌", failureStyle.Render("❌"))
	line = strings.ReplaceAll(line, "⏳", pendingStyle.Render("⏳"))
	return line
}

// StripANSI removes ANSI escape sequences from s (spec §8's round-trip law:
// "ANSI-stripping the ANSI-highlighted report yields the plain-text report
// byte-for-byte" — exposed so callers and tests can verify it directly).
func StripANSI(s string) string {
	return stripANSI(s)
}
