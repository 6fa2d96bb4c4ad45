package report

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a Report as Markdown (spec §4.8). A scenario with
// no overview rows, no details, and no cleanup entries renders to nothing
// (spec §8: "A scenario with no actions and no BDD annotations renders to
// the empty string"). Colorize shares this same rendering walk — it only
// swaps in a different stdinText hook — so changing renderScenario/
// renderAction's output shape changes both renderings at once.
func RenderMarkdown(r *Report) string {
	var b strings.Builder
	renderReport(&b, r, rawStdinText)
	return b.String()
}

// rawStdinText is RenderMarkdown's stdinText hook: it writes a heredoc
// stdin body verbatim. Colorize's own renderPlaceholderMarkdown (see
// colorize.go) supplies a different hook that splices in placeholder tokens
// instead, so the body can be highlighted separately by its own language.
func rawStdinText(t *Text) string {
	return strings.TrimRight(t.Value, "\n")
}

func renderReport(b *strings.Builder, r *Report, stdinText func(*Text) string) {
	first := true
	for _, s := range r.Scenarios {
		if isEmptyScenario(s) {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		renderScenario(b, s, stdinText)
	}
}

func isEmptyScenario(s *Scenario) bool {
	return len(s.Overview) == 0 && len(s.Details) == 0 && len(s.Cleanup) == 0 && !s.CleanupSkipped
}

func renderScenario(b *strings.Builder, s *Scenario, stdinText func(*Text) string) {
	fmt.Fprintf(b, "# %s\n\n", s.Name)

	if len(s.Overview) > 0 {
		b.WriteString("## Scenario Overview\n\n")
		b.WriteString("| # | Action | Status |\n")
		b.WriteString("|---|---|---|\n")
		for i, item := range s.Overview {
			fmt.Fprintf(b, "| %d | %s | %s |\n", i+1, item.Name, statusEmoji(item.Status))
		}
		b.WriteString("\n")
	}

	if len(s.Details) > 0 {
		b.WriteString("## Scenario Details\n\n")
		for _, detail := range s.Details {
			renderDetail(b, detail, stdinText)
		}
	}

	renderCleanup(b, s)
}

func renderDetail(b *strings.Builder, d Detail, stdinText func(*Text) string) {
	switch v := d.(type) {
	case *BDDSection:
		fmt.Fprintf(b, "### %s: %s\n\n", v.Keyword, v.Description)
		for _, action := range v.Actions {
			renderAction(b, action, stdinText)
		}
	case *Action:
		renderAction(b, v, stdinText)
	}
}

func renderAction(b *strings.Builder, a *Action, stdinText func(*Text) string) {
	emoji := statusEmoji(StatusSuccess)
	if a.Error != nil {
		emoji = statusEmoji(StatusFailure)
	}

	fmt.Fprintf(b, "**%s %s**", emoji, a.Name)
	if a.Error != nil && a.Attempts != nil {
		fmt.Fprintf(b, " (Failed after %d attempts)", *a.Attempts)
	}
	b.WriteString("\n\n")

	for _, cmd := range a.Commands {
		renderCommand(b, cmd, stdinText)
	}

	if a.Error != nil {
		b.WriteString("Error:\n\n")
		fmt.Fprintf(b, "```%s\n%s\n```\n\n", a.Error.Message.Language, a.Error.Message.Value)
		if a.Error.Stack != "" {
			fmt.Fprintf(b, "```trace\n%s\n```\n\n", a.Error.Stack)
		}
	}
}

func renderCommand(b *strings.Builder, c *Command, stdinText func(*Text) string) {
	commandLine := c.Cmd
	if len(c.Args) > 0 {
		commandLine += " " + strings.Join(c.Args, " ")
	}

	b.WriteString("```shell\n")
	if c.Stdin != nil && strings.TrimSpace(c.Stdin.Value) != "" {
		fmt.Fprintf(b, "%s <<EOF\n", commandLine)
		b.WriteString(stdinText(c.Stdin))
		b.WriteString("\nEOF\n")
	} else {
		fmt.Fprintf(b, "%s\n", commandLine)
	}
	b.WriteString("```\n\n")

	renderLabeledText(b, "stdout", c.Stdout)
	renderLabeledText(b, "stderr", c.Stderr)
}

func renderLabeledText(b *strings.Builder, label string, t *Text) {
	if t == nil || strings.TrimSpace(t.Value) == "" {
		return
	}
	fmt.Fprintf(b, "%s:\n\n```%s\n%s\n```\n\n", label, t.Language, strings.TrimRight(t.Value, "\n"))
}

func renderCleanup(b *strings.Builder, s *Scenario) {
	if s.CleanupSkipped {
		b.WriteString("## Cleanup (skipped)\n\n")
		b.WriteString("Cleanup was skipped; resources created by this scenario were preserved for inspection.\n\n")
		return
	}

	if len(s.Cleanup) == 0 {
		return
	}

	b.WriteString("## Cleanup\n\n")
	b.WriteString("| # | Action | Status |\n")
	b.WriteString("|---|---|---|\n")
	for i, item := range s.Cleanup {
		fmt.Fprintf(b, "| %d | %s | %s |\n", i+1, item.Action, statusEmoji(item.Status))
	}
	b.WriteString("\n")

	b.WriteString("```shellsession\n")
	for i, item := range s.Cleanup {
		if i > 0 {
			b.WriteString("\n")
		}
		commandLine := item.Command.Cmd
		if len(item.Command.Args) > 0 {
			commandLine += " " + strings.Join(item.Command.Args, " ")
		}
		fmt.Fprintf(b, "$ %s\n", commandLine)
		if out := strings.TrimSpace(item.Command.Output); out != "" {
			b.WriteString(out)
			b.WriteString("\n")
		}
	}
	b.WriteString("```\n")
}

func statusEmoji(s Status) string {
	switch s {
	case StatusSuccess:
		return "✅"
	case StatusFailure:
		return "❌"
	default:
		return "⏳"
	}
}
