package report

import (
	"regexp"
	"strings"

	"github.com/appthrust/kest/pkg/event"
	"github.com/appthrust/kest/pkg/kesterr"
)

// parser is the linear state machine of spec §4.7. It never re-reads
// events: Parse folds the stream into the model in one pass.
type parser struct {
	report *Report

	curScenario *Scenario
	curBDD      *BDDSection
	curAction   *Action
	curOverview *OverviewItem
	curCleanup  *CleanupItem
	inCleanup   bool
}

// Parse folds a scenario run's event stream into the report model.
func Parse(events []event.Event) *Report {
	p := &parser{report: &Report{}}
	for _, e := range events {
		p.apply(e)
	}
	return p.report
}

func (p *parser) apply(e event.Event) {
	switch e.Kind {
	case event.KindScenarioStart:
		payload := e.Payload.(event.ScenarioStart)
		p.curScenario = &Scenario{Name: payload.Name}
		p.report.Scenarios = append(p.report.Scenarios, p.curScenario)
		p.resetCurrents()

	case event.KindScenarioEnd:
		p.curScenario = nil
		p.resetCurrents()

	case event.KindBDDGiven, event.KindBDDWhen, event.KindBDDThen, event.KindBDDAnd, event.KindBDDBut:
		payload := e.Payload.(event.BDD)
		section := &BDDSection{Keyword: bddKeyword(e.Kind), Description: payload.Description}
		if p.curScenario != nil {
			p.curScenario.Details = append(p.curScenario.Details, section)
		}
		p.curBDD = section
		p.curAction, p.curOverview = nil, nil

	case event.KindActionStart:
		payload := e.Payload.(event.ActionStart)
		p.onActionStart(payload.Description)

	case event.KindCommandRun:
		payload := e.Payload.(event.CommandRun)
		p.onCommandRun(payload)

	case event.KindCommandResult:
		payload := e.Payload.(event.CommandResult)
		p.onCommandResult(payload)

	case event.KindRetryAttempt:
		// Collapse to the last attempt: drop every command the prior
		// attempts recorded (spec §4.7's retry-command-collapsing rule).
		if p.curAction != nil {
			p.curAction.Commands = nil
		}

	case event.KindRetryEnd:
		payload := e.Payload.(event.RetryEnd)
		if p.curAction != nil {
			attempts := payload.Attempts
			p.curAction.Attempts = &attempts
		}

	case event.KindActionEnd:
		payload := e.Payload.(event.ActionEnd)
		p.onActionEnd(payload)

	case event.KindRevertingsStart:
		p.inCleanup = true
		p.curBDD, p.curAction, p.curOverview, p.curCleanup = nil, nil, nil, nil

	case event.KindRevertingsEnd:
		p.inCleanup = false
		p.curBDD, p.curAction, p.curOverview, p.curCleanup = nil, nil, nil, nil

	case event.KindRevertingsSkipped:
		if p.curScenario != nil {
			p.curScenario.CleanupSkipped = true
		}
	}
}

func (p *parser) resetCurrents() {
	p.curBDD, p.curAction, p.curOverview, p.curCleanup = nil, nil, nil, nil
	p.inCleanup = false
}

func bddKeyword(kind event.Kind) string {
	switch kind {
	case event.KindBDDGiven:
		return "Given"
	case event.KindBDDWhen:
		return "When"
	case event.KindBDDThen:
		return "Then"
	case event.KindBDDAnd:
		return "And"
	case event.KindBDDBut:
		return "But"
	default:
		return string(kind)
	}
}

func (p *parser) onActionStart(description string) {
	if p.curScenario == nil {
		return
	}

	if p.inCleanup {
		item := &CleanupItem{Action: description, Status: StatusSuccess}
		p.curScenario.Cleanup = append(p.curScenario.Cleanup, item)
		p.curCleanup = item
		return
	}

	action := &Action{Name: description}
	overview := &OverviewItem{Name: description, Status: StatusPending}
	p.curScenario.Overview = append(p.curScenario.Overview, overview)

	if p.curBDD != nil {
		p.curBDD.Actions = append(p.curBDD.Actions, action)
	} else {
		p.curScenario.Details = append(p.curScenario.Details, action)
	}

	p.curAction = action
	p.curOverview = overview
}

func (p *parser) onCommandRun(payload event.CommandRun) {
	cmd := &Command{Cmd: payload.Cmd, Args: payload.Args}
	if payload.Stdin != "" {
		cmd.Stdin = &Text{Value: payload.Stdin, Language: payload.StdinLanguage}
	}

	if p.inCleanup {
		if p.curCleanup != nil {
			p.curCleanup.Command = CleanupCommand{Cmd: payload.Cmd, Args: payload.Args}
		}
		return
	}

	if p.curAction != nil {
		p.curAction.Commands = append(p.curAction.Commands, cmd)
	}
}

func (p *parser) onCommandResult(payload event.CommandResult) {
	if p.inCleanup {
		if p.curCleanup != nil {
			p.curCleanup.Command.Output = combineOutput(payload.Stdout, payload.Stderr)
		}
		return
	}

	if p.curAction == nil || len(p.curAction.Commands) == 0 {
		return
	}
	last := p.curAction.Commands[len(p.curAction.Commands)-1]
	if strings.TrimSpace(payload.Stdout) != "" {
		last.Stdout = &Text{Value: payload.Stdout, Language: payload.StdoutLanguage}
	}
	if strings.TrimSpace(payload.Stderr) != "" {
		last.Stderr = &Text{Value: payload.Stderr, Language: payload.StderrLanguage}
	}
}

func combineOutput(stdout, stderr string) string {
	stdout, stderr = strings.TrimSpace(stdout), strings.TrimSpace(stderr)
	switch {
	case stdout != "" && stderr != "":
		return stdout + "\n" + stderr
	case stdout != "":
		return stdout
	default:
		return stderr
	}
}

func (p *parser) onActionEnd(payload event.ActionEnd) {
	if p.inCleanup {
		if p.curCleanup != nil {
			if payload.OK {
				p.curCleanup.Status = StatusSuccess
			} else {
				p.curCleanup.Status = StatusFailure
			}
		}
		p.curCleanup = nil
		return
	}

	if p.curOverview != nil {
		if payload.OK {
			p.curOverview.Status = StatusSuccess
		} else {
			p.curOverview.Status = StatusFailure
		}
	}
	if p.curAction != nil && !payload.OK {
		p.curAction.Error = buildActionError(payload.Error)
	}
	p.curAction, p.curOverview = nil, nil
}

// timedOutCausePattern is spec §4.9's cause-unwrapping trigger: the retry
// engine's synthesized timeout message, which should be replaced for
// reporting purposes by its cause when one carries a real diagnostic.
var timedOutCausePattern = kesterr.TimedOutPattern

// stackHeaderLine matches an "at ..." trace line (spec §4.9: "Header lines
// of stacks (non-at lines) are stripped before rendering").
var stackHeaderLine = regexp.MustCompile(`^\s*(async\s+)?at\s`)

func buildActionError(sum *kesterr.Summary) *ActionError {
	if sum == nil {
		return nil
	}

	effective := sum
	if timedOutCausePattern.MatchString(sum.Message) && sum.Cause != nil && sum.Cause.Message != "" {
		effective = sum.Cause
	}

	return &ActionError{
		Message: classifyMessage(effective.Message),
		Stack:   stripNonFrameLines(effective.Stack),
	}
}

func stripNonFrameLines(stack string) string {
	if stack == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(stack, "\n") {
		if stackHeaderLine.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// ansiPattern strips ANSI escape sequences before diff classification runs
// (spec §4.7: "after ANSI stripping").
var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// classifyMessage implements spec §4.7's diff-detection heuristic: a
// message is "diff" iff, after ANSI stripping, it has at least one "+..."
// line whose second character is not another "+", and at least one "-..."
// line whose second character is not another "-" (so "+++"/"---" file
// headers never count).
func classifyMessage(message string) Text {
	stripped := stripANSI(message)

	hasAdd, hasRemove := false, false
	for _, line := range strings.Split(stripped, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "++") {
			hasAdd = true
		}
		if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "--") {
			hasRemove = true
		}
	}

	if hasAdd && hasRemove {
		return Text{Value: message, Language: "diff"}
	}
	return Text{Value: message, Language: "text"}
}
